package envelope

import "hubert.dev/hubert/arid"

// Sentinel is the well-known subject marking an envelope as a reference
// object (indirection marker). No application subject may collide with it;
// the router classifies solely on this exact value, never on assertion
// shape alone.
const Sentinel = "hubert:reference-object:v1"

// PredicateDereferenceVia names the assertion identifying which backend to
// follow for indirection. Its only defined object value today is
// DereferenceCAS.
const PredicateDereferenceVia = "dereference-via"

// DereferenceCAS is the fixed dereference-via value meaning "follow to the
// content-addressed store".
const DereferenceCAS = "content-addressed"

// PredicateID names the assertion carrying the fresh ARID at which the
// actual envelope is stored.
const PredicateID = "id"

// PredicateSize names the optional diagnostic assertion carrying the
// serialized size, in bytes, of the referenced envelope.
const PredicateSize = "size"

// NewReference builds a reference object pointing at aridRef, with an
// optional size diagnostic (pass a negative size to omit it).
func NewReference(aridRef arid.ARID, size int) (*Envelope, error) {
	assertions := []Assertion{
		{Predicate: PredicateDereferenceVia, Object: DereferenceCAS},
		{Predicate: PredicateID, Object: aridRef.Bytes()},
	}
	if size >= 0 {
		assertions = append(assertions, Assertion{Predicate: PredicateSize, Object: int64(size)})
	}
	return New(Sentinel, assertions...)
}

// IsReference reports whether e's subject is the reference sentinel.
func (e *Envelope) IsReference() bool {
	s, ok := e.subject.(string)
	return ok && s == Sentinel
}

// AsReference classifies e as a reference object and extracts its target
// ARID and optional size. ok is false for any envelope lacking the sentinel
// subject or a well-formed id/dereference-via pair — such an envelope is
// passed through unchanged by the router, per spec.
func (e *Envelope) AsReference() (aridRef arid.ARID, size int, ok bool) {
	if !e.IsReference() {
		return arid.Zero, 0, false
	}
	via, present := e.Object(PredicateDereferenceVia)
	if !present {
		return arid.Zero, 0, false
	}
	viaStr, isStr := via.(string)
	if !isStr || viaStr != DereferenceCAS {
		return arid.Zero, 0, false
	}
	idObj, present := e.Object(PredicateID)
	if !present {
		return arid.Zero, 0, false
	}
	a, isARID := objectARID(idObj)
	if !isARID {
		return arid.Zero, 0, false
	}
	size = -1
	if sizeObj, present := e.Object(PredicateSize); present {
		if sz, isInt := sizeObj.(int64); isInt {
			size = int(sz)
		}
	}
	return a, size, true
}
