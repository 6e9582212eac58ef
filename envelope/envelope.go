// Package envelope implements Hubert's structured value: a subject plus
// zero or more (predicate, object) assertions, with a canonical deterministic
// byte encoding. The core treats envelopes as opaque except when classifying
// reference objects (see Sentinel, NewReference, AsReference).
package envelope

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"hubert.dev/hubert/arid"
)

// Assertion is a single (predicate, object) pair. Predicate and Object may be
// string, []byte, int64, or bool — the set of types the canonical wire
// encoding below preserves unambiguously. ARID values are passed as their
// raw 32 bytes (arid.ARID.Bytes()); callers reconstruct with arid.FromBytes.
type Assertion struct {
	Predicate any
	Object    any
}

// Envelope is a subject plus assertions about it.
type Envelope struct {
	subject    any
	assertions []Assertion

	serialized []byte // memoized Serialize() result
}

// New constructs an envelope. subject and each assertion side must be one of
// string, []byte, int64, or bool.
func New(subject any, assertions ...Assertion) (*Envelope, error) {
	if err := checkType(subject); err != nil {
		return nil, fmt.Errorf("envelope: subject: %w", err)
	}
	for i, a := range assertions {
		if err := checkType(a.Predicate); err != nil {
			return nil, fmt.Errorf("envelope: assertion %d predicate: %w", i, err)
		}
		if err := checkType(a.Object); err != nil {
			return nil, fmt.Errorf("envelope: assertion %d object: %w", i, err)
		}
	}
	return &Envelope{subject: subject, assertions: append([]Assertion(nil), assertions...)}, nil
}

func checkType(v any) error {
	switch v.(type) {
	case string, []byte, int64, bool:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

// Subject returns the envelope's subject.
func (e *Envelope) Subject() any {
	return e.subject
}

// Object returns the object of the first assertion with the given predicate.
func (e *Envelope) Object(predicate any) (any, bool) {
	for _, a := range e.assertions {
		if equalValue(a.Predicate, predicate) {
			return a.Object, true
		}
	}
	return nil, false
}

// Assertions returns a copy of the envelope's assertions.
func (e *Envelope) Assertions() []Assertion {
	return append([]Assertion(nil), e.assertions...)
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

// wireAssertion and wireEnvelope are encoded as CBOR arrays (",toarray") so
// the on-the-wire shape is positional, not key-sorted-map, while still
// canonical: fxamacker/cbor's canonical mode fixes integer/float/string
// encoding to their shortest form, so byte-identical Go values always
// produce byte-identical output.
type wireAssertion struct {
	_         struct{} `cbor:",toarray"`
	Predicate any
	Object    any
}

type wireEnvelope struct {
	_          struct{} `cbor:",toarray"`
	Subject    any
	Assertions []wireAssertion
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// Serialize returns the canonical deterministic byte encoding of the
// envelope, memoized after the first call.
func (e *Envelope) Serialize() ([]byte, error) {
	if e.serialized != nil {
		return e.serialized, nil
	}
	w := wireEnvelope{Subject: e.subject, Assertions: make([]wireAssertion, len(e.assertions))}
	for i, a := range e.assertions {
		w.Assertions[i] = wireAssertion{Predicate: a.Predicate, Object: a.Object}
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		return nil, err
	}
	e.serialized = b
	return b, nil
}

// Size returns len(Serialize()).
func (e *Envelope) Size() (int, error) {
	b, err := e.Serialize()
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// ParseError wraps a decoding failure. Returned whenever bytes do not decode
// to a valid envelope.
type ParseError struct {
	Cause error
}

func (p *ParseError) Error() string { return fmt.Sprintf("envelope: parse: %v", p.Cause) }
func (p *ParseError) Unwrap() error { return p.Cause }

// Parse decodes bytes produced by Serialize back into an Envelope.
func Parse(data []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, &ParseError{Cause: err}
	}
	subject, err := retype(w.Subject)
	if err != nil {
		return nil, &ParseError{Cause: err}
	}
	assertions := make([]Assertion, len(w.Assertions))
	for i, a := range w.Assertions {
		pred, err := retype(a.Predicate)
		if err != nil {
			return nil, &ParseError{Cause: err}
		}
		obj, err := retype(a.Object)
		if err != nil {
			return nil, &ParseError{Cause: err}
		}
		assertions[i] = Assertion{Predicate: pred, Object: obj}
	}
	e := &Envelope{subject: subject, assertions: assertions, serialized: append([]byte(nil), data...)}
	return e, nil
}

// retype normalizes cbor's generic decode output (uint64/int64/string/[]byte/bool)
// down to the canonical set New accepts.
func retype(v any) (any, error) {
	switch t := v.(type) {
	case string, []byte, bool:
		return t, nil
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case nil:
		return nil, errors.New("missing value")
	default:
		return nil, fmt.Errorf("unsupported decoded value type %T", t)
	}
}

// Equal reports whether two envelopes have byte-identical canonical encodings.
func Equal(a, b *Envelope) bool {
	ab, err1 := a.Serialize()
	bb, err2 := b.Serialize()
	if err1 != nil || err2 != nil || len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// objectARID extracts a 32-byte object value as an arid.ARID.
func objectARID(v any) (arid.ARID, bool) {
	b, ok := v.([]byte)
	if !ok {
		return arid.Zero, false
	}
	a, err := arid.FromBytes(b)
	if err != nil {
		return arid.Zero, false
	}
	return a, true
}
