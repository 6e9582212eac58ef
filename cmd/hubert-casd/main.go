// Command hubert-casd serves a storage.BlockStore of obfuscated blocks over
// the block-store gRPC service (storage/grpccas), so backend/cas drivers
// elsewhere on the network can redirect their block storage to it with
// --grpc-target.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"

	"hubert.dev/hubert/storage"
	"hubert.dev/hubert/storage/grpccas"
	"hubert.dev/hubert/storage/ipfs"
	"hubert.dev/hubert/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("hubert-casd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backendName := fs.String("backend", "ipfs", "CAS backend: ipfs|localfs|replicate|fallback")
	localfsDir := fs.String("localfs-dir", "", "localfs CAS directory (backend=localfs or replicate)")
	ipfsBin := fs.String("ipfs-bin", "", "path to the ipfs binary (backend=ipfs or replicate)")
	_ = fs.Parse(os.Args[1:])

	cas, err := open(*backendName, *localfsDir, *ipfsBin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpccas.RegisterBlockStoreServer(s, &grpccas.Server{Blocks: cas})

	fmt.Fprintf(os.Stderr, "hubert-casd listening on %s (backend=%s)\n", lis.Addr().String(), *backendName)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open builds the obfuscated-block store named by name. "replicate" writes
// every block to both a local ipfs repo and a localfs directory, using
// storage.ReplicatedBlockStore to verify both backends agree on the CID.
func open(name, localfsDir, ipfsBin string) (storage.BlockStore, error) {
	switch strings.ToLower(name) {
	case "ipfs":
		return ipfs.New(ipfs.Options{Bin: ipfsBin}), nil
	case "localfs":
		if localfsDir == "" {
			return nil, fmt.Errorf("missing --localfs-dir")
		}
		return localfs.New(localfsDir)
	case "replicate":
		if localfsDir == "" {
			return nil, fmt.Errorf("missing --localfs-dir")
		}
		lf, err := localfs.New(localfsDir)
		if err != nil {
			return nil, err
		}
		return storage.ReplicatedBlockStore{Stores: []storage.NamedBlockStore{
			{Name: "ipfs", Store: ipfs.New(ipfs.Options{Bin: ipfsBin})},
			{Name: "localfs", Store: lf},
		}}, nil
	case "fallback":
		// Reads check the local ipfs repo first, then fall back to the
		// localfs directory; writes always go to ipfs (first store).
		if localfsDir == "" {
			return nil, fmt.Errorf("missing --localfs-dir")
		}
		lf, err := localfs.New(localfsDir)
		if err != nil {
			return nil, err
		}
		return storage.FallbackBlockStore{Stores: []storage.BlockStore{
			ipfs.New(ipfs.Options{Bin: ipfsBin}),
			lf,
		}}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want ipfs, localfs, or replicate)", name)
	}
}
