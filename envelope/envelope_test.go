package envelope

import (
	"testing"

	"hubert.dev/hubert/arid"
)

func TestRoundtripSimple(t *testing.T) {
	e, err := New("hello subject", Assertion{Predicate: "greeting", Object: "Hello, Hubert"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !Equal(e, got) {
		t.Fatalf("roundtrip mismatch")
	}
	obj, ok := got.Object("greeting")
	if !ok || obj != "Hello, Hubert" {
		t.Fatalf("unexpected object: %v (ok=%v)", obj, ok)
	}
}

func TestSerializeDeterministic(t *testing.T) {
	build := func() *Envelope {
		e, err := New("subj", Assertion{Predicate: "a", Object: int64(1)}, Assertion{Predicate: "b", Object: []byte("xyz")})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return e
	}
	a, err := build().Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	b, err := build().Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected byte-identical encoding for semantically equal envelopes")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var pe *ParseError
	if _, ok := err.(*ParseError); !ok {
		_ = pe
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestNewRejectsUnsupportedType(t *testing.T) {
	if _, err := New(3.14); err == nil {
		t.Fatalf("expected error for unsupported subject type")
	}
}

func TestSize(t *testing.T) {
	e, err := New("x")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n, err := e.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	b, _ := e.Serialize()
	if n != len(b) {
		t.Fatalf("Size() = %d, want %d", n, len(b))
	}
}

func TestReferenceRoundtrip(t *testing.T) {
	target, err := arid.New()
	if err != nil {
		t.Fatalf("arid.New: %v", err)
	}
	ref, err := NewReference(target, 2048)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	b, err := ref.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	parsed, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	gotARID, gotSize, ok := parsed.AsReference()
	if !ok {
		t.Fatalf("expected AsReference to succeed")
	}
	if gotARID != target {
		t.Fatalf("ARID mismatch: got %s want %s", gotARID, target)
	}
	if gotSize != 2048 {
		t.Fatalf("size mismatch: got %d want 2048", gotSize)
	}
}

func TestAsReferenceRejectsOrdinaryEnvelope(t *testing.T) {
	e, err := New("ordinary application data", Assertion{Predicate: "id", Object: []byte("not an arid, wrong length")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _, ok := e.AsReference()
	if ok {
		t.Fatalf("expected AsReference to reject a non-sentinel envelope")
	}
}

func TestAsReferenceRejectsSentinelWithoutWellFormedFields(t *testing.T) {
	e, err := New(Sentinel) // no assertions at all
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _, ok := e.AsReference()
	if ok {
		t.Fatalf("expected AsReference to reject a sentinel-only envelope lacking id/dereference-via")
	}
}

func TestReferenceWithoutSize(t *testing.T) {
	target, err := arid.New()
	if err != nil {
		t.Fatalf("arid.New: %v", err)
	}
	ref, err := NewReference(target, -1)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	gotARID, gotSize, ok := ref.AsReference()
	if !ok {
		t.Fatalf("expected AsReference to succeed")
	}
	if gotARID != target {
		t.Fatalf("ARID mismatch")
	}
	if gotSize != -1 {
		t.Fatalf("expected size -1 when omitted, got %d", gotSize)
	}
}
