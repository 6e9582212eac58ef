// Package dht implements the Mainline-DHT backend.KV driver: values live
// entirely as signed BEP44 mutable items, addressed by a keypair derived
// from the ARID so no ARID ever touches the wire. This is the fast,
// infrastructure-free path the hybrid router prefers for small envelopes.
package dht

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
	"hubert.dev/hubert/internal/backoff"
	"hubert.dev/hubert/keys"
	"hubert.dev/hubert/obfuscate"
)

// MaxValueBytes is the conservative cap on an envelope's serialized size
// that can be stored directly as a mutable item: comfortably inside BEP44's
// ~1000-byte wire limit once signature, public key, and salt overhead are
// accounted for.
const MaxValueBytes = 1000

// Driver implements backend.KV against the Mainline DHT.
type Driver struct {
	transport transport
}

// New wraps a transport as a backend.KV. Exported so tests and other code
// within this module can substitute a fake transport; production callers
// should use NewServer instead.
func New(t transport) *Driver {
	return &Driver{transport: t}
}

var _ backend.KV = (*Driver)(nil)

func (d *Driver) Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts backend.PutOptions) (backend.Receipt, error) {
	plain, err := env.Serialize()
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: serialize: %w", err)
	}
	if len(plain) > MaxValueBytes {
		return backend.Receipt{}, &backend.ValueTooLargeError{Size: len(plain), Limit: MaxValueBytes}
	}

	priv, err := keys.DHTSigningKeypair(id)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: derive keypair: %w", err)
	}
	pub := priv.Public().(ed25519.PublicKey)

	putCtx, cancel := context.WithTimeout(ctx, backend.DefaultTimeout)
	defer cancel()

	if _, found, err := d.transport.get(putCtx, pub, nil); err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: %w", combineNetworkErr(err))
	} else if found {
		return backend.Receipt{}, backend.ErrAlreadyExists
	}

	obfKey, err := keys.ObfuscationKey(id)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: derive obfuscation key: %w", err)
	}
	cipher, err := obfuscate.Obfuscate(plain, obfKey)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: obfuscate: %w", err)
	}

	item := sign(priv, nil, cipher)
	if err := d.transport.put(putCtx, item); err != nil {
		return backend.Receipt{}, fmt.Errorf("dht: %w", combineNetworkErr(err))
	}
	return backend.Receipt{Backend: "dht", Detail: fmt.Sprintf("%d bytes", len(cipher))}, nil
}

func (d *Driver) Get(ctx context.Context, id arid.ARID, opts backend.GetOptions) (*envelope.Envelope, error) {
	priv, err := keys.DHTSigningKeypair(id)
	if err != nil {
		return nil, fmt.Errorf("dht: derive keypair: %w", err)
	}
	pub := priv.Public().(ed25519.PublicKey)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var found mutableItem
	err = backoff.Poll(pollCtx, 200*time.Millisecond, 5*time.Second, func(ctx context.Context) (bool, error) {
		item, ok, err := d.transport.get(ctx, pub, nil)
		if err != nil {
			wrapped := combineNetworkErr(err)
			if backend.IsRetryable(wrapped) {
				return false, nil
			}
			return false, wrapped
		}
		if !ok {
			return false, nil
		}
		found = item
		return true, nil
	})
	if err != nil {
		if pollCtx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("dht: %w", err)
	}

	if !found.verify() {
		return nil, fmt.Errorf("dht: %w: signature did not verify", backend.ErrDecode)
	}

	obfKey, err := keys.ObfuscationKey(id)
	if err != nil {
		return nil, fmt.Errorf("dht: derive obfuscation key: %w", err)
	}
	plain, err := obfuscate.Deobfuscate(found.V, obfKey)
	if err != nil {
		return nil, fmt.Errorf("dht: deobfuscate: %w", err)
	}
	env, err := envelope.Parse(plain)
	if err != nil {
		return nil, fmt.Errorf("dht: %w: %v", backend.ErrDecode, err)
	}
	return env, nil
}

func (d *Driver) Exists(ctx context.Context, id arid.ARID) (bool, error) {
	priv, err := keys.DHTSigningKeypair(id)
	if err != nil {
		return false, fmt.Errorf("dht: derive keypair: %w", err)
	}
	pub := priv.Public().(ed25519.PublicKey)
	_, found, err := d.transport.get(ctx, pub, nil)
	if err != nil {
		return false, fmt.Errorf("dht: %w", combineNetworkErr(err))
	}
	return found, nil
}

// Check re-bootstraps the swarm, confirming the node can reach the
// network, without publishing or looking anything up.
func (d *Driver) Check(ctx context.Context) error {
	if err := d.transport.ping(ctx); err != nil {
		return fmt.Errorf("dht: %w", combineNetworkErr(err))
	}
	return nil
}

var _ backend.Checker = (*Driver)(nil)

func combineNetworkErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", backend.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", backend.ErrNetwork, err)
}
