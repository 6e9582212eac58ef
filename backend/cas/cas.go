// Package cas implements the content-addressed-storage backend.KV driver:
// large envelopes are added as raw blocks and located through an IPNS name
// derived from the ARID. IPNS naming follows storage/ipfs.BlockStore's pattern of
// shelling out to the local Kubo "ipfs" CLI; block storage itself goes
// through storage.BlockStore, so it can stay local or be redirected to a
// storage/grpccas daemon.
package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/cidutil"
	"hubert.dev/hubert/envelope"
	"hubert.dev/hubert/internal/backoff"
	"hubert.dev/hubert/keys"
	"hubert.dev/hubert/obfuscate"
	"hubert.dev/hubert/storage"
	"hubert.dev/hubert/storage/grpccas"
)

// shell is the narrow command-execution seam the driver talks through. The
// production implementation shells out to the local "ipfs" binary, exactly
// like storage/ipfs.BlockStore.run; tests substitute an in-process fake so the
// conformance suite does not require a live daemon.
type shell interface {
	run(ctx context.Context, stdin []byte, args ...string) ([]byte, error)
}

// Driver implements backend.KV against a content-addressed block store.
//
// IPNS naming and publication always go through the local Kubo "ipfs" CLI
// (sh); the underlying block storage is pluggable through blocks, a
// storage.BlockStore, so a single Driver can keep blocks on the local repo or push
// them to a remote CAS daemon over grpccas while still publishing the same
// IPNS pointer locally.
type Driver struct {
	sh     shell
	blocks storage.BlockStore
	// PinOnPut requests "ipfs pin add" after every successful publish,
	// overridable per-call via backend.PutOptions.Pin.
	PinOnPut bool
}

// Options configures the CLI shell-out and block storage, mirroring
// storage/ipfs.Options plus an optional remote block-store target.
type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env optionally overrides the command environment (e.g. IPFS_PATH).
	Env []string

	// GRPCTarget, if set, sends block bodies to a CAS gRPC daemon
	// (storage/grpccas) instead of the local repo's "ipfs block" commands.
	// IPNS naming still goes through the local ipfs CLI.
	GRPCTarget string
	// GRPCDialTimeout bounds the initial dial to GRPCTarget.
	GRPCDialTimeout time.Duration
}

// New constructs a Driver that shells out to the local "ipfs" CLI for IPNS
// naming, and to local blocks unless opts.GRPCTarget selects a remote CAS.
func New(opts Options) (*Driver, error) {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	sh := &cliShell{bin: bin, env: opts.Env}
	d := &Driver{sh: sh, blocks: &localBlocks{sh: sh}}

	if opts.GRPCTarget != "" {
		client, err := grpccas.Dial(opts.GRPCTarget, grpccas.DialOptions{Timeout: opts.GRPCDialTimeout})
		if err != nil {
			return nil, fmt.Errorf("cas: dial %s: %w: %v", opts.GRPCTarget, backend.ErrNetwork, err)
		}
		d.blocks = client
	}
	return d, nil
}

// Close releases any remote connection opened by New. It is a no-op for a
// Driver backed by local blocks only.
func (d *Driver) Close() error {
	if closer, ok := d.blocks.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

var _ backend.KV = (*Driver)(nil)

// MaxValueBytes caps the serialized envelope size this driver will push
// into a block, well under Kubo's default block-add limits while still
// comfortably holding anything the DHT driver would refuse.
const MaxValueBytes = 10 * 1024 * 1024

func (d *Driver) Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts backend.PutOptions) (backend.Receipt, error) {
	plain, err := env.Serialize()
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("cas: serialize: %w", err)
	}
	if len(plain) > MaxValueBytes {
		return backend.Receipt{}, &backend.ValueTooLargeError{Size: len(plain), Limit: MaxValueBytes}
	}
	obfKey, err := keys.ObfuscationKey(id)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("cas: derive obfuscation key: %w", err)
	}
	cipher, err := obfuscate.Obfuscate(plain, obfKey)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("cas: obfuscate: %w", err)
	}

	name, err := keys.CASPublisherName(id)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("cas: derive publisher name: %w", err)
	}

	putCtx, cancel := context.WithTimeout(ctx, backend.DefaultTimeout)
	defer cancel()

	if _, found, err := d.resolve(putCtx, name); err != nil && !errors.Is(err, backend.ErrDaemon) {
		return backend.Receipt{}, err
	} else if found {
		return backend.Receipt{}, backend.ErrAlreadyExists
	}

	id32, err := d.addBlock(putCtx, cipher)
	if err != nil {
		return backend.Receipt{}, err
	}

	if err := d.ensureKey(putCtx, name); err != nil {
		return backend.Receipt{}, err
	}
	if err := d.publish(putCtx, name, id32); err != nil {
		return backend.Receipt{}, err
	}
	if opts.Pin || d.PinOnPut {
		if _, err := d.sh.run(putCtx, nil, "pin", "add", id32.String()); err != nil {
			return backend.Receipt{}, fmt.Errorf("cas: pin: %w", wrapDaemonErr(err))
		}
	}

	return backend.Receipt{Backend: "cas", Detail: fmt.Sprintf("ipns:%s -> %s", name, id32.String())}, nil
}

func (d *Driver) Get(ctx context.Context, id arid.ARID, opts backend.GetOptions) (*envelope.Envelope, error) {
	name, err := keys.CASPublisherName(id)
	if err != nil {
		return nil, fmt.Errorf("cas: derive publisher name: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var target cid.Cid
	err = backoff.Poll(pollCtx, 300*time.Millisecond, 5*time.Second, func(ctx context.Context) (bool, error) {
		got, found, err := d.resolve(ctx, name)
		if err != nil {
			if backend.IsRetryable(err) {
				return false, nil
			}
			return false, err
		}
		if !found {
			return false, nil
		}
		target = got
		return true, nil
	})
	if err != nil {
		if pollCtx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}

	cipher, err := d.getBlock(ctx, target)
	if err != nil {
		return nil, err
	}
	obfKey, err := keys.ObfuscationKey(id)
	if err != nil {
		return nil, fmt.Errorf("cas: derive obfuscation key: %w", err)
	}
	plain, err := obfuscate.Deobfuscate(cipher, obfKey)
	if err != nil {
		return nil, fmt.Errorf("cas: deobfuscate: %w", err)
	}
	e, err := envelope.Parse(plain)
	if err != nil {
		return nil, fmt.Errorf("cas: %w: %v", backend.ErrDecode, err)
	}
	return e, nil
}

func (d *Driver) Exists(ctx context.Context, id arid.ARID) (bool, error) {
	name, err := keys.CASPublisherName(id)
	if err != nil {
		return false, err
	}
	_, found, err := d.resolve(ctx, name)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Check confirms the local ipfs daemon is reachable with "ipfs id", without
// touching any block storage or IPNS name.
func (d *Driver) Check(ctx context.Context) error {
	if _, err := d.sh.run(ctx, nil, "id"); err != nil {
		return fmt.Errorf("cas: id: %w", wrapDaemonErr(err))
	}
	return nil
}

var _ backend.Checker = (*Driver)(nil)

// addBlock stores data as a raw block and returns its CID, matching the
// repo's CID contract (CIDv1 raw + sha2-256). ctx is accepted for symmetry
// with the rest of the driver; storage.BlockStore is synchronous by contract.
func (d *Driver) addBlock(ctx context.Context, data []byte) (cid.Cid, error) {
	_ = ctx
	want, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, fmt.Errorf("cas: compute cid: %w", err)
	}
	got, err := d.blocks.Put(data)
	if err != nil {
		return cid.Undef, combineDaemonErr(err)
	}
	if got.String() != want.String() {
		return cid.Undef, fmt.Errorf("cas: %w: block store returned a different cid than expected", backend.ErrDecode)
	}
	return want, nil
}

func (d *Driver) getBlock(ctx context.Context, id cid.Cid) ([]byte, error) {
	_ = ctx
	out, err := d.blocks.Get(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("cas: %w", backend.ErrReferenceNotFound)
		}
		return nil, combineDaemonErr(err)
	}
	got, err := cidutil.CIDv1RawSHA256CID(out)
	if err != nil {
		return nil, fmt.Errorf("cas: %w", backend.ErrDecode)
	}
	if got.String() != id.String() {
		return nil, fmt.Errorf("cas: %w: block content does not hash to its cid", backend.ErrDecode)
	}
	return out, nil
}

func combineDaemonErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cas: block store: %w", wrapDaemonErr(err))
}

// wrapDaemonErr distinguishes a put/get that missed its deadline from any
// other local daemon failure, so callers can tell Timeout apart from Daemon.
func wrapDaemonErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", backend.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", backend.ErrDaemon, err)
}

// localBlocks adapts the local "ipfs block" CLI commands to storage.BlockStore, so
// Driver can treat local and remote (grpccas) block storage identically.
type localBlocks struct {
	sh shell
}

func (l *localBlocks) Put(data []byte) (cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	out, err := l.sh.run(context.Background(), data,
		"block", "put",
		"--quiet",
		"--format=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"--cid-version=1",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}
	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("unexpected block put output: %w", err)
	}
	if got.String() != want.String() {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return want, nil
}

func (l *localBlocks) Get(id cid.Cid) ([]byte, error) {
	out, err := l.sh.run(context.Background(), nil, "block", "get", id.String())
	if err != nil {
		if isLikelyNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.CIDv1RawSHA256CID(out)
	if err != nil {
		return nil, err
	}
	if got.String() != id.String() {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (l *localBlocks) Has(id cid.Cid) bool {
	_, err := l.sh.run(context.Background(), nil, "block", "stat", id.String())
	return err == nil
}

// ensureKey creates the ARID's IPNS publishing key if it does not already
// exist. Key creation is not write-once by itself — only the subsequent
// publish is — so a pre-existing key from a racing publisher is fine.
func (d *Driver) ensureKey(ctx context.Context, name string) error {
	_, err := d.sh.run(ctx, nil, "key", "gen", "--type=ed25519", name)
	if err != nil && !isLikelyExists(err) {
		return fmt.Errorf("cas: key gen: %w", wrapDaemonErr(err))
	}
	return nil
}

func (d *Driver) publish(ctx context.Context, name string, id cid.Cid) error {
	_, err := d.sh.run(ctx, nil, "name", "publish", "--key="+name, "--quieter", "/ipfs/"+id.String())
	if err != nil {
		return fmt.Errorf("cas: name publish: %w", wrapDaemonErr(err))
	}
	return nil
}

// resolve returns the CID an ARID's IPNS name currently points at, if any.
func (d *Driver) resolve(ctx context.Context, name string) (cid.Cid, bool, error) {
	out, err := d.sh.run(ctx, nil, "name", "resolve", "--nocache", "/ipns/"+name)
	if err != nil {
		if isLikelyNotFound(err) {
			return cid.Undef, false, nil
		}
		return cid.Undef, false, fmt.Errorf("cas: name resolve: %w", wrapDaemonErr(err))
	}
	path := strings.TrimSpace(string(out))
	path = strings.TrimPrefix(path, "/ipfs/")
	got, err := cid.Decode(path)
	if err != nil {
		return cid.Undef, false, fmt.Errorf("cas: unexpected name resolve output %q: %w", path, err)
	}
	return got, true, nil
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not resolve name") ||
		strings.Contains(msg, "routing: not found")
}

func isLikelyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// cliShell is the production shell, identical in spirit to storage/ipfs.BlockStore.run.
type cliShell struct {
	bin string
	env []string
}

func (c *cliShell) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		s := strings.TrimSpace(string(ee.Stderr))
		if s == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", s)
	}
	return nil, err
}
