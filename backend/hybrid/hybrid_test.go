package hybrid

import (
	"bytes"
	"context"
	"testing"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/backendtest"
	"hubert.dev/hubert/envelope"
)

func newRouter() *Router {
	return &Router{DHT: newFakeKV("dht"), CAS: newFakeKV("cas")}
}

func TestRouterConformance(t *testing.T) {
	backendtest.RunKVConformance(t, func(t *testing.T) backend.KV {
		return newRouter()
	})
}

func TestSmallEnvelopeGoesDhtOnly(t *testing.T) {
	r := newRouter()
	ctx := context.Background()
	id, _ := arid.New()
	env, _ := envelope.New("subject", envelope.Assertion{Predicate: "body", Object: "small"})

	receipt, err := r.Put(ctx, id, env, backend.PutOptions{})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if receipt.Backend != "hybrid:DhtOnly" {
		t.Fatalf("expected DhtOnly receipt, got %q", receipt.Backend)
	}

	cas := r.CAS.(*fakeKV)
	if len(cas.vals) != 0 {
		t.Fatalf("expected nothing stored in CAS, got %d entries", len(cas.vals))
	}

	kind, err := r.StorageInfo(ctx, id)
	if err != nil {
		t.Fatalf("StorageInfo: %v", err)
	}
	if kind != DhtOnly {
		t.Fatalf("expected DhtOnly, got %v", kind)
	}
}

func TestLargeEnvelopeGoesHybrid(t *testing.T) {
	r := newRouter()
	ctx := context.Background()
	id, _ := arid.New()
	big := bytes.Repeat([]byte("x"), DirectThreshold+500)
	env, _ := envelope.New("subject", envelope.Assertion{Predicate: "body", Object: big})

	receipt, err := r.Put(ctx, id, env, backend.PutOptions{})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if receipt.Backend != "hybrid:Hybrid" {
		t.Fatalf("expected Hybrid receipt, got %q", receipt.Backend)
	}

	got, err := r.Get(ctx, id, backend.GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !envelope.Equal(env, got) {
		t.Fatalf("roundtrip mismatch for hybrid-stored envelope")
	}

	kind, err := r.StorageInfo(ctx, id)
	if err != nil {
		t.Fatalf("StorageInfo: %v", err)
	}
	if kind != Hybrid {
		t.Fatalf("expected Hybrid, got %v", kind)
	}
}

func TestGetSurfacesReferenceNotFound(t *testing.T) {
	r := newRouter()
	ctx := context.Background()
	id, _ := arid.New()
	aridRef, _ := arid.New()

	refEnv, err := envelope.NewReference(aridRef, 12345)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	if _, err := r.DHT.Put(ctx, id, refEnv, backend.PutOptions{}); err != nil {
		t.Fatalf("seed dht: %v", err)
	}

	_, err = r.Get(ctx, id, backend.GetOptions{})
	if err == nil {
		t.Fatalf("expected ErrReferenceNotFound, got nil")
	}
}
