package registry

import (
	"context"
	"testing"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
)

type nopKV struct{}

func (nopKV) Put(context.Context, arid.ARID, *envelope.Envelope, backend.PutOptions) (backend.Receipt, error) {
	return backend.Receipt{}, nil
}
func (nopKV) Get(context.Context, arid.ARID, backend.GetOptions) (*envelope.Envelope, error) {
	return nil, nil
}
func (nopKV) Exists(context.Context, arid.ARID) (bool, error) { return false, nil }

func TestRegisterAndOpen(t *testing.T) {
	name := "test-backend-registry"
	MustRegister(Backend{
		Name: name,
		Open: func(cfg Config) (backend.KV, func() error, error) {
			return nopKV{}, nil, nil
		},
	})

	kv, closeFn, err := Open(name, Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	if kv == nil {
		t.Fatalf("expected non-nil KV")
	}

	found := false
	for _, n := range Names() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Fatalf("Names() missing %q", name)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, _, err := Open("does-not-exist", Config{}); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	name := "test-backend-dup"
	b := Backend{Name: name, Open: func(Config) (backend.KV, func() error, error) { return nopKV{}, nil, nil }}
	if err := Register(b); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(b); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
