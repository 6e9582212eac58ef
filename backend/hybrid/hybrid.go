// Package hybrid implements the size-adaptive router: small envelopes go
// straight to the DHT; larger ones are stored in CAS and referenced from a
// small DHT object. Composition follows the teacher's
// storage.MultiCAS/storage.ReplicatingCAS pattern — a small struct holding
// named sub-backends with deterministic, non-map-iteration behavior.
package hybrid

import (
	"context"
	"fmt"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
)

// DirectThreshold is the largest serialized envelope size stored directly
// on the DHT, chosen to sit comfortably under dht.MaxValueBytes once
// per-purpose overhead is accounted for.
const DirectThreshold = 1000

// Kind classifies how a value ended up stored.
type Kind int

const (
	DhtOnly Kind = iota
	Hybrid
)

func (k Kind) String() string {
	switch k {
	case DhtOnly:
		return "DhtOnly"
	case Hybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// HybridDetail carries the extra bookkeeping a Hybrid put produces, for
// callers that want it (e.g. the CLI's verbose mode).
type HybridDetail struct {
	ARIDRef       arid.ARID
	PublishedName string
}

// Router composes a DHT-backed and a CAS-backed backend.KV into the unified
// contract.
type Router struct {
	DHT backend.KV
	CAS backend.KV
}

// PutOptions extends backend.PutOptions with the one hybrid-specific knob.
type PutOptions struct {
	backend.PutOptions
	// ForceCAS routes even a small envelope through CAS, overriding
	// DirectThreshold for callers that always want a CAS-backed object.
	ForceCAS bool
}

var _ backend.KV = (*Router)(nil)

// Put implements backend.KV with plain backend.PutOptions (ForceCAS unset).
// Callers that need ForceCAS should call PutWithOptions directly.
func (r *Router) Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts backend.PutOptions) (backend.Receipt, error) {
	return r.PutWithOptions(ctx, id, env, PutOptions{PutOptions: opts})
}

func (r *Router) PutWithOptions(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts PutOptions) (backend.Receipt, error) {
	n, err := env.Size()
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("hybrid: size: %w", err)
	}

	if n <= DirectThreshold && !opts.ForceCAS {
		receipt, err := r.DHT.Put(ctx, id, env, opts.PutOptions)
		if err != nil {
			return backend.Receipt{}, err
		}
		receipt.Backend = "hybrid:" + DhtOnly.String()
		return receipt, nil
	}

	aridRef, err := arid.New()
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("hybrid: generate reference arid: %w", err)
	}
	if _, err := r.CAS.Put(ctx, aridRef, env, opts.PutOptions); err != nil {
		return backend.Receipt{}, fmt.Errorf("hybrid: cas put: %w", err)
	}

	refEnv, err := envelope.NewReference(aridRef, n)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("hybrid: build reference envelope: %w", err)
	}
	if _, err := r.DHT.Put(ctx, id, refEnv, opts.PutOptions); err != nil {
		return backend.Receipt{}, fmt.Errorf("hybrid: dht put of reference: %w", err)
	}

	return backend.Receipt{
		Backend: "hybrid:" + Hybrid.String(),
		Detail:  fmt.Sprintf("ref=%s size=%d", aridRef, n),
	}, nil
}

func (r *Router) Get(ctx context.Context, id arid.ARID, opts backend.GetOptions) (*envelope.Envelope, error) {
	env, err := r.DHT.Get(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}

	aridRef, _, ok := env.AsReference()
	if !ok {
		return env, nil
	}

	got, err := r.CAS.Get(ctx, aridRef, opts)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("hybrid: %w", backend.ErrReferenceNotFound)
	}
	if _, _, isRef := got.AsReference(); isRef {
		return nil, fmt.Errorf("hybrid: %w: cas object is itself a reference", backend.ErrDecode)
	}
	return got, nil
}

func (r *Router) Exists(ctx context.Context, id arid.ARID) (bool, error) {
	return r.DHT.Exists(ctx, id)
}

// StorageInfo reports whether id's value (if any) is stored directly or via
// a CAS reference, without re-fetching from CAS.
func (r *Router) StorageInfo(ctx context.Context, id arid.ARID) (Kind, error) {
	env, err := r.DHT.Get(ctx, id, backend.GetOptions{})
	if err != nil {
		return DhtOnly, err
	}
	if env == nil {
		return DhtOnly, fmt.Errorf("hybrid: %w", backend.ErrReferenceNotFound)
	}
	if _, _, ok := env.AsReference(); ok {
		return Hybrid, nil
	}
	return DhtOnly, nil
}
