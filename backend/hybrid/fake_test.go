package hybrid

import (
	"context"
	"sync"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
)

// fakeKV is a minimal in-memory backend.KV used to exercise Router without
// a real DHT or CAS daemon.
type fakeKV struct {
	name string
	mu   sync.Mutex
	vals map[arid.ARID]*envelope.Envelope
}

func newFakeKV(name string) *fakeKV {
	return &fakeKV{name: name, vals: make(map[arid.ARID]*envelope.Envelope)}
}

func (f *fakeKV) Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts backend.PutOptions) (backend.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vals[id]; ok {
		return backend.Receipt{}, backend.ErrAlreadyExists
	}
	f.vals[id] = env
	return backend.Receipt{Backend: f.name}, nil
}

func (f *fakeKV) Get(ctx context.Context, id arid.ARID, opts backend.GetOptions) (*envelope.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vals[id], nil
}

func (f *fakeKV) Exists(ctx context.Context, id arid.ARID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.vals[id]
	return ok, nil
}
