package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// FallbackBlockStore provides deterministic, ordered fallback across
// multiple obfuscated-block stores backing the same CAS-routed traffic.
//
// Fallback order is the slice order in Stores; callers MUST supply a fixed
// order. This avoids map-iteration nondeterminism and makes the retrieval
// strategy explicit.
//
// Put is defined to write only to the first store.
type FallbackBlockStore struct {
	Stores []BlockStore
}

func (m FallbackBlockStore) Put(block []byte) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("storage: FallbackBlockStore has no stores")
	}
	return m.Stores[0].Put(block)
}

func (m FallbackBlockStore) Get(id cid.Cid) ([]byte, error) {
	var sawNotFound bool
	for _, store := range m.Stores {
		b, err := store.Get(id)
		if err == nil {
			return b, nil
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

func (m FallbackBlockStore) Has(id cid.Cid) bool {
	for _, store := range m.Stores {
		if store.Has(id) {
			return true
		}
	}
	return false
}
