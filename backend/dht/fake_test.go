package dht

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"
)

// fakeTransport is an in-process stand-in for the Mainline DHT swarm: a
// map keyed by public key, guarded by a mutex. It exercises exactly the
// put/get contract Driver relies on, without a live network — mirroring
// how the teacher's storage/localfs.CAS stands in for a production CAS in
// its own conformance run.
type fakeTransport struct {
	mu    sync.Mutex
	items map[string]mutableItem
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{items: make(map[string]mutableItem)}
}

func keyFor(pub ed25519.PublicKey, salt []byte) string {
	return string(pub) + "\x00" + string(salt)
}

func (f *fakeTransport) put(ctx context.Context, item mutableItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyFor(item.K, item.Salt)
	if existing, ok := f.items[k]; ok && !bytes.Equal(existing.V, item.V) {
		// A real swarm would just overwrite; Driver never calls put twice
		// for the same key because it probes first, so this only fires if
		// that invariant is ever violated.
		f.items[k] = item
		return nil
	}
	f.items[k] = item
	return nil
}

func (f *fakeTransport) get(ctx context.Context, pub ed25519.PublicKey, salt []byte) (mutableItem, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[keyFor(pub, salt)]
	return item, ok, nil
}

// ping always succeeds: there's no swarm to bootstrap against in-process.
func (f *fakeTransport) ping(ctx context.Context) error {
	return nil
}
