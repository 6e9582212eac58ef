package dht

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/backendtest"
	"hubert.dev/hubert/envelope"
)

func TestDriverConformance(t *testing.T) {
	backendtest.RunKVConformance(t, func(t *testing.T) backend.KV {
		return New(newFakeTransport())
	})
}

func TestSignAndVerifyRoundtrip(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	item := sign(priv, nil, []byte("hello"))
	if !item.verify() {
		t.Fatalf("freshly signed item did not verify")
	}
}

func TestVerifyRejectsTamperedValue(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	item := sign(priv, nil, []byte("hello"))
	item.V = []byte("hellp")
	if item.verify() {
		t.Fatalf("tampered item verified")
	}
}

func TestBep44TargetForKeyIsContentAddressed(t *testing.T) {
	t1 := bep44TargetForKey([]byte("hello"))
	t2 := bep44TargetForKey([]byte("hello"))
	if t1 != t2 {
		t.Fatalf("expected the same value to hash to the same target")
	}
	if t3 := bep44TargetForKey([]byte("goodbye")); t1 == t3 {
		t.Fatalf("expected different values to hash to different targets")
	}
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if t1 == target(pub, nil) {
		t.Fatalf("immutable and mutable targets collided unexpectedly")
	}
}

func TestPutRejectsOversizedEnvelope(t *testing.T) {
	id, err := arid.New()
	if err != nil {
		t.Fatalf("arid.New: %v", err)
	}
	env, err := envelope.New(bytes.Repeat([]byte("x"), MaxValueBytes+1))
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}

	d := New(newFakeTransport())
	_, err = d.Put(context.Background(), id, env, backend.PutOptions{})
	if !backend.IsValueTooLarge(err) {
		t.Fatalf("expected ValueTooLargeError, got %v", err)
	}
}
