package arid

import "testing"

func TestNewAndParseRoundtrip(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.IsZero() {
		t.Fatalf("New returned the zero ARID")
	}

	s := a.String()
	got, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got != a {
		t.Fatalf("roundtrip mismatch: got %s want %s", got, a)
	}
}

func TestStringFormat(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s := a.String()
	if len(s) != len(tag)+Size*2 {
		t.Fatalf("unexpected length %d for %q", len(s), s)
	}
	if s[:len(tag)] != tag {
		t.Fatalf("missing tag prefix: %q", s)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"not-an-arid",
		"arid1",
		"arid1" + "zz",
		"arid1" + "00", // too short
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("Parse(%q) unexpectedly succeeded", c)
		}
	}
}

func TestTwoAridsDiffer(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a == b {
		t.Fatalf("two generated ARIDs were equal")
	}
}

func TestFromBytes(t *testing.T) {
	if _, err := FromBytes(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for short input")
	}
	raw := make([]byte, Size)
	raw[0] = 0xAB
	a, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if a[0] != 0xAB {
		t.Fatalf("FromBytes did not copy bytes correctly")
	}
}
