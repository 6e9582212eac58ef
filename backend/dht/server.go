package dht

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net"

	anacrolixdht "github.com/anacrolix/dht/v2"
	"github.com/anacrolix/dht/v2/bep44"
)

// realServer binds dhtServer to github.com/anacrolix/dht/v2's BEP44 support.
// It is the only place in this package that names the third-party types
// directly; everything else talks to the narrower dhtServer/transport
// interfaces so tests can substitute an in-process fake.
type realServer struct {
	s *anacrolixdht.Server
}

// NewServer opens a UDP socket and starts a Mainline DHT node. conn may be
// nil to let the library pick an ephemeral port, matching the teacher's
// preference for zero-configuration defaults (storage/ipfs.CAS dials the
// local daemon the same way: no explicit address required).
func NewServer(conn net.PacketConn) (*Driver, func() error, error) {
	cfg := anacrolixdht.NewDefaultServerConfig()
	if conn != nil {
		cfg.Conn = conn
	}
	s, err := anacrolixdht.NewServer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("dht: start node: %w", err)
	}
	rs := &realServer{s: s}
	if err := rs.Bootstrap(); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("dht: bootstrap: %w", err)
	}
	return New(newAnacrolixTransport(rs)), rs.Close, nil
}

func (rs *realServer) Bootstrap() error {
	_, err := rs.s.Bootstrap()
	return err
}

func (rs *realServer) Close() error {
	rs.s.Close()
	return nil
}

func (rs *realServer) AnnounceMutable(ctx context.Context, item mutableItem) error {
	put := &bep44.Put{
		K:    itemKey(item.K),
		Salt: item.Salt,
		Seq:  item.Seq,
		V:    item.V,
		Sig:  itemSig(item.Sig),
	}
	_, _, err := rs.s.Put(ctx, put.Target(), put, put.Seq)
	if err != nil {
		return err
	}
	return nil
}

func (rs *realServer) LookupMutable(ctx context.Context, pub ed25519.PublicKey, salt []byte) (mutableItem, bool, error) {
	key := itemKey(pub)
	t := bep44.Target(key, salt)
	result, err := rs.s.Get(ctx, t, nil)
	if err != nil {
		if err == anacrolixdht.ErrNotFound {
			return mutableItem{}, false, nil
		}
		return mutableItem{}, false, err
	}
	if result.Item == nil {
		return mutableItem{}, false, nil
	}
	got := mutableItem{
		K:    pub,
		Salt: salt,
		Seq:  result.Item.Seq,
		V:    result.Item.V,
		Sig:  result.Item.Sig[:],
	}
	if !got.verify() {
		return mutableItem{}, false, fmt.Errorf("dht: signature verification failed")
	}
	return got, true, nil
}

func itemKey(pub ed25519.PublicKey) bep44.PubKey {
	var k bep44.PubKey
	copy(k[:], pub)
	return k
}

func itemSig(sig []byte) bep44.Signature {
	var s bep44.Signature
	copy(s[:], sig)
	return s
}
