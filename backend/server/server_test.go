package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/backendtest"
)

func newTestClient(t *testing.T) backend.KV {
	srv := New(0)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientServerConformance(t *testing.T) {
	backendtest.RunKVConformance(t, newTestClient)
}

func TestStoreExpiresLazily(t *testing.T) {
	s := newMemStore(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }

	id, env := testARIDAndEnvelope(t)
	if err := s.Save(id, env, time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, ok := s.Load(id); ok {
		t.Fatalf("expected expired value to be absent")
	}

	// Re-saving after expiry must succeed (the slot was reclaimed).
	if err := s.Save(id, env, time.Second); err != nil {
		t.Fatalf("re-save after expiry: %v", err)
	}
}

func TestStoreTTLClamp(t *testing.T) {
	s := newMemStore(10 * time.Second)
	now := time.Now()
	s.now = func() time.Time { return now }

	id, env := testARIDAndEnvelope(t)
	if err := s.Save(id, env, 1000*time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	v := s.values[id]
	if v.expiresAt.After(now.Add(10 * time.Second).Add(time.Millisecond)) {
		t.Fatalf("ttl was not clamped: expires at %v", v.expiresAt)
	}
}

func TestStoreDelete(t *testing.T) {
	s := newMemStore(time.Hour)
	id, env := testARIDAndEnvelope(t)
	if err := s.Save(id, env, time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Delete(id)
	if _, ok := s.Load(id); ok {
		t.Fatalf("expected deleted value to be absent")
	}
}
