package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"hubert.dev/hubert/cidutil"
)

// NamedBlockStore associates an obfuscated-block store with a stable
// backend name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend metadata (e.g., for reporting or auditing).
type NamedBlockStore struct {
	Name  string
	Store BlockStore
}

// ReplicatedBlockStore writes every obfuscated block to all configured
// stores, so a CAS-routed envelope survives the loss of any one of them.
//
// Reads fall back in order. Writes go to all stores and require all
// returned CIDs to match (otherwise ErrCIDMismatch is returned).
//
// Use PutAll when you need the per-store CID mapping.
type ReplicatedBlockStore struct {
	Stores []NamedBlockStore
}

var _ BlockStore = (*ReplicatedBlockStore)(nil)

// PutAll writes the same block to all stores.
//
// It returns:
// - the canonical CID (computed from the block)
// - a map of store name -> returned CID
//
// If any store returns a different CID, ErrCIDMismatch is returned.
func (r ReplicatedBlockStore) PutAll(block []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(block)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(r.Stores) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatedBlockStore has no stores")
	}

	out := make(map[string]cid.Cid, len(r.Stores))
	for _, s := range r.Stores {
		if s.Store == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store for backend %q", s.Name)
		}
		got, err := s.Store.Put(block)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[s.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatedBlockStore) Put(block []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(block)
	return id, err
}

func (r ReplicatedBlockStore) Get(id cid.Cid) ([]byte, error) {
	var sawNotFound bool
	for _, s := range r.Stores {
		if s.Store == nil {
			continue
		}
		out, err := s.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			sawNotFound = true
			continue
		}
		return nil, err
	}
	if sawNotFound {
		return nil, ErrNotFound
	}
	return nil, ErrNotFound
}

func (r ReplicatedBlockStore) Has(id cid.Cid) bool {
	for _, s := range r.Stores {
		if s.Store != nil && s.Store.Has(id) {
			return true
		}
	}
	return false
}
