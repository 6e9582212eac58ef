// Package backend defines Hubert's unified write-once key-value contract
// and the error taxonomy every driver and the hybrid router report through.
package backend

import (
	"context"
	"time"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/envelope"
)

// DefaultTimeout is used when a caller supplies none: long enough for a
// Mainline DHT lookup or IPNS resolution to settle, short enough that a
// genuinely absent value doesn't hang a caller indefinitely.
const DefaultTimeout = 30 * time.Second

// PutOptions controls a single put.
type PutOptions struct {
	// TTL is interpreted per backend: ignored by DHT, used by CAS as the
	// name-publication lifetime, clamped by Server. Zero means "use the
	// backend default".
	TTL time.Duration
	// Pin requests that the CAS driver pin the object locally.
	Pin bool
	// Verbose requests diagnostic progress output from the driver (drivers
	// that don't support it ignore this field).
	Verbose bool
}

// GetOptions controls a single get.
type GetOptions struct {
	// Timeout bounds the poll. Zero means DefaultTimeout.
	Timeout time.Duration
	Verbose bool
}

// KV is the unified contract every backend driver and the hybrid router
// satisfy. Implementations must be safe to call from multiple goroutines
// concurrently.
type KV interface {
	// Put deposits env at arid. Write-once: any second put at the same ARID
	// returns ErrAlreadyExists. The write-once guarantee is best-effort
	// against a racing concurrent put to the same ARID on a decentralized
	// backend; it is exact against the in-memory server backend.
	Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts PutOptions) (Receipt, error)

	// Get polls for a value at arid, bounded by opts.Timeout (or
	// DefaultTimeout). Returns (nil, nil) if the poll is exhausted without a
	// hit — "not yet published" is not an error.
	Get(ctx context.Context, id arid.ARID, opts GetOptions) (*envelope.Envelope, error)

	// Exists is a cheap existence probe; it never fetches more than the
	// probe itself costs.
	Exists(ctx context.Context, id arid.ARID) (bool, error)
}

// Receipt describes how a put was realized. Drivers populate Backend with
// their own name; the hybrid router additionally fills in Kind.
type Receipt struct {
	Backend string
	Detail  string
}

// Checker is satisfied by a backend.KV driver that can probe the backend's
// own availability directly — a DHT bootstrap ping, a local daemon's
// identity call, an HTTP health check — rather than inferring it from an
// Exists call against a throwaway ARID. The "check" CLI command prefers
// this where a driver implements it, falling back to a generic Exists
// probe otherwise.
type Checker interface {
	Check(ctx context.Context) error
}
