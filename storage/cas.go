package storage

import "github.com/ipfs/go-cid"

// BlockStore holds the obfuscated ciphertext blocks a CAS-routed envelope is
// split into: by the time a block reaches this interface it has already
// been through obfuscate.Obfuscate, so a BlockStore implementation only
// ever sees content-addressed ciphertext, never an ARID or a plaintext
// envelope.
//
// Contract:
// - Put MUST be idempotent.
// - Stored blocks MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for supplying canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type BlockStore interface {
	Put(block []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
