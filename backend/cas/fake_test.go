package cas

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"

	"hubert.dev/hubert/cidutil"
)

// fakeShell stands in for the local "ipfs" CLI: blocks keyed by CID, and
// IPNS names keyed by key-name pointing at a CID. It implements just enough
// of the command surface cas.go issues to exercise the driver end to end
// without a Kubo daemon, mirroring storage/localfs.CAS's role in the
// teacher's own conformance run.
type fakeShell struct {
	mu      sync.Mutex
	blocks  map[string][]byte
	keys    map[string]bool
	records map[string]cid.Cid
}

func newFakeShell() *fakeShell {
	return &fakeShell{
		blocks:  make(map[string][]byte),
		keys:    make(map[string]bool),
		records: make(map[string]cid.Cid),
	}
}

func (f *fakeShell) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case len(args) >= 2 && args[0] == "block" && args[1] == "put":
		id, err := cidutil.CIDv1RawSHA256CID(stdin)
		if err != nil {
			return nil, err
		}
		f.blocks[id.String()] = append([]byte(nil), stdin...)
		return []byte(id.String() + "\n"), nil

	case len(args) >= 2 && args[0] == "block" && args[1] == "get":
		id := args[2]
		data, ok := f.blocks[id]
		if !ok {
			return nil, fmt.Errorf("block not found")
		}
		return data, nil

	case len(args) >= 2 && args[0] == "key" && args[1] == "gen":
		name := args[len(args)-1]
		if f.keys[name] {
			return nil, fmt.Errorf("key with name %q already exists", name)
		}
		f.keys[name] = true
		return nil, nil

	case len(args) >= 2 && args[0] == "name" && args[1] == "publish":
		var name, path string
		for _, a := range args[2:] {
			if strings.HasPrefix(a, "--key=") {
				name = strings.TrimPrefix(a, "--key=")
			} else if strings.HasPrefix(a, "/ipfs/") {
				path = a
			}
		}
		id, err := cid.Decode(strings.TrimPrefix(path, "/ipfs/"))
		if err != nil {
			return nil, err
		}
		f.records[name] = id
		return nil, nil

	case len(args) >= 2 && args[0] == "name" && args[1] == "resolve":
		name := strings.TrimPrefix(args[len(args)-1], "/ipns/")
		id, ok := f.records[name]
		if !ok {
			return nil, fmt.Errorf("could not resolve name")
		}
		return []byte("/ipfs/" + id.String() + "\n"), nil

	case len(args) >= 2 && args[0] == "pin" && args[1] == "add":
		return nil, nil

	case len(args) == 1 && args[0] == "id":
		return []byte(`{"ID":"fake-daemon"}` + "\n"), nil

	default:
		return nil, fmt.Errorf("fakeShell: unhandled command %v", args)
	}
}
