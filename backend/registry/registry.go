// Package registry is a build-time plugin registry mapping the CLI's
// --storage names to backend.KV constructors, modeled on the teacher's
// storage/casregistry: backends self-register via init(), and a binary
// enables one by importing its package (often blank-imported).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"hubert.dev/hubert/backend"
)

// Config carries the CLI-level settings a backend's Open needs. Not every
// field applies to every backend; each Open ignores what it doesn't use.
type Config struct {
	// Host/Port address a Mainline DHT bootstrap node or the server
	// backend's dropbox, depending on which backend is opening.
	Host string
	Port int

	// IPFSBin/IPFSEnv configure the CAS driver's ipfs CLI shell-out.
	IPFSBin string
	IPFSEnv []string

	// PinByDefault requests the CAS driver pin every object it stores.
	PinByDefault bool

	// GRPCTarget, if set, redirects the CAS driver's block storage to a
	// CAS gRPC daemon instead of the local ipfs repo.
	GRPCTarget string
}

// Backend is a build-time plugin that can open a backend.KV.
type Backend struct {
	Name        string
	Description string

	// Open constructs the backend.KV from cfg. It returns an optional
	// close function for backends that hold resources (sockets, daemons).
	Open func(cfg Config) (backend.KV, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend. Safe to call from init().
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// Names returns every registered backend name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open opens the named backend.
func Open(name string, cfg Config) (backend.KV, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("registry: unknown backend %q (have: %v)", name, Names())
	}
	return b.Open(cfg)
}
