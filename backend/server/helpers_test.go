package server

import (
	"testing"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/envelope"
)

func testARIDAndEnvelope(t *testing.T) (arid.ARID, *envelope.Envelope) {
	t.Helper()
	id, err := arid.New()
	if err != nil {
		t.Fatalf("arid.New: %v", err)
	}
	env, err := envelope.New("subject", envelope.Assertion{Predicate: "body", Object: "hello"})
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}
	return id, env
}
