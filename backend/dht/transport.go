package dht

import (
	"context"
	"crypto/ed25519"
	"fmt"
)

// transport abstracts the network primitives the Mainline DHT needs from
// Hubert's point of view: publish a signed mutable item, and look one up by
// its owning public key. Keeping this narrow lets the driver's Put/Get logic
// be tested against an in-process fake (see fake_test.go) without a live
// swarm, the same way the teacher's storage/testkit drives CAS implementations
// generically behind the storage.BlockStore interface.
type transport interface {
	put(ctx context.Context, item mutableItem) error
	get(ctx context.Context, pub ed25519.PublicKey, salt []byte) (mutableItem, bool, error)
	// ping re-bootstraps the swarm, the cheapest way to confirm the node
	// can still reach the network without publishing or looking anything up.
	ping(ctx context.Context) error
}

// dhtServer is the subset of github.com/anacrolix/dht/v2's Server this
// package depends on, expressed in Hubert's own vocabulary (mutable items,
// not torrents). realServer in server.go is the only type that implements
// it against the real library.
type dhtServer interface {
	Bootstrap() error
	AnnounceMutable(ctx context.Context, item mutableItem) error
	LookupMutable(ctx context.Context, pub ed25519.PublicKey, salt []byte) (mutableItem, bool, error)
}

// anacrolixTransport adapts a dhtServer to the transport interface.
type anacrolixTransport struct {
	server dhtServer
}

func newAnacrolixTransport(server dhtServer) *anacrolixTransport {
	return &anacrolixTransport{server: server}
}

func (t *anacrolixTransport) put(ctx context.Context, item mutableItem) error {
	if err := t.server.AnnounceMutable(ctx, item); err != nil {
		return fmt.Errorf("dht: announce: %w", err)
	}
	return nil
}

func (t *anacrolixTransport) get(ctx context.Context, pub ed25519.PublicKey, salt []byte) (mutableItem, bool, error) {
	item, ok, err := t.server.LookupMutable(ctx, pub, salt)
	if err != nil {
		return mutableItem{}, false, fmt.Errorf("dht: lookup: %w", err)
	}
	return item, ok, nil
}

func (t *anacrolixTransport) ping(ctx context.Context) error {
	if err := t.server.Bootstrap(); err != nil {
		return fmt.Errorf("dht: bootstrap: %w", err)
	}
	return nil
}
