// Command hubert is the reference CLI for the write-once ARID-keyed
// substrate: generate identifiers and test envelopes, put/get/exists
// against a chosen backend, probe backend availability, and run the
// development dropbox server.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/hybrid"
	"hubert.dev/hubert/backend/registry"
	"hubert.dev/hubert/envelope"

	_ "hubert.dev/hubert/backend/cas"
	_ "hubert.dev/hubert/backend/dht"
	hubertserver "hubert.dev/hubert/backend/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type globalFlags struct {
	storage    string
	host       string
	port       int
	timeout    time.Duration
	ttl        time.Duration
	pin        bool
	verbose    bool
	grpcTarget string
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hubert", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var g globalFlags
	var timeoutSeconds, ttlSeconds float64
	fs.StringVar(&g.storage, "storage", "mainline", "backend: mainline|ipfs|hybrid|server")
	fs.StringVar(&g.host, "host", "", "backend host (server/mainline bootstrap)")
	fs.IntVar(&g.port, "port", 0, "backend port (0 = backend default)")
	fs.Float64Var(&timeoutSeconds, "timeout", 0, "operation timeout in seconds (0 = backend default)")
	fs.Float64Var(&ttlSeconds, "ttl", 0, "TTL in seconds, where applicable (0 = backend default)")
	fs.BoolVar(&g.pin, "pin", false, "pin objects in CAS-backed backends")
	fs.BoolVar(&g.verbose, "v", false, "verbose diagnostic output")
	fs.BoolVar(&g.verbose, "verbose", false, "verbose diagnostic output")
	fs.StringVar(&g.grpcTarget, "grpc-target", "", "CAS gRPC daemon address (ipfs/hybrid backends; local ipfs repo if empty)")

	fs.Usage = func() { printUsage(errOut) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	g.timeout = time.Duration(timeoutSeconds * float64(time.Second))
	g.ttl = time.Duration(ttlSeconds * float64(time.Second))

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(errOut)
		return 2
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "generate":
		return cmdGenerate(cmdArgs, out, errOut)
	case "put":
		return cmdPut(g, cmdArgs, out, errOut)
	case "get":
		return cmdGet(g, cmdArgs, out, errOut)
	case "exists":
		return cmdExists(g, cmdArgs, out, errOut)
	case "check":
		return cmdCheck(g, cmdArgs, out, errOut)
	case "server":
		return cmdServer(g, cmdArgs, out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", cmd)
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "hubert: write-once ARID-keyed key-value substrate")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  hubert generate arid")
	fmt.Fprintln(w, "  hubert generate envelope <n>")
	fmt.Fprintln(w, "  hubert [flags] put <arid> <envelope>")
	fmt.Fprintln(w, "  hubert [flags] get <arid>")
	fmt.Fprintln(w, "  hubert [flags] exists <arid>")
	fmt.Fprintln(w, "  hubert [flags] check")
	fmt.Fprintln(w, "  hubert server [--port N]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --storage {mainline|ipfs|hybrid|server}  (default mainline)")
	fmt.Fprintln(w, "  --host <addr>  --port <n>  --timeout <seconds>  --ttl <seconds>  --pin  -v/--verbose")
	fmt.Fprintln(w, "  --grpc-target <host:port>  (redirect CAS block storage to a CAS gRPC daemon)")
}

func cmdGenerate(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: hubert generate {arid|envelope <n>}")
		return 2
	}
	switch args[0] {
	case "arid":
		id, err := arid.New()
		if err != nil {
			fmt.Fprintf(errOut, "generate arid: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, id.String())
		return 0
	case "envelope":
		if len(args) != 2 {
			fmt.Fprintln(errOut, "usage: hubert generate envelope <n>")
			return 2
		}
		n, err := parseByteCount(args[1])
		if err != nil {
			fmt.Fprintf(errOut, "invalid n: %v\n", err)
			return 2
		}
		payload := make([]byte, n)
		if _, err := rand.Read(payload); err != nil {
			fmt.Fprintf(errOut, "generate envelope: %v\n", err)
			return 1
		}
		env, err := envelope.New("subject", envelope.Assertion{Predicate: "body", Object: payload})
		if err != nil {
			fmt.Fprintf(errOut, "generate envelope: %v\n", err)
			return 1
		}
		text, err := encodeEnvelopeText(env)
		if err != nil {
			fmt.Fprintf(errOut, "generate envelope: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, text)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown generate subcommand: %s\n", args[0])
		return 2
	}
}

func cmdPut(g globalFlags, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "usage: hubert put <arid> <envelope>")
		return 2
	}
	id, err := arid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid arid: %v\n", err)
		return 2
	}
	env, err := decodeEnvelopeText(args[1])
	if err != nil {
		fmt.Fprintf(errOut, "invalid envelope: %v\n", err)
		return 2
	}

	kv, closeFn, err := registry.Open(g.storage, toConfig(g))
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	ctx, cancel := context.WithTimeout(context.Background(), withDefault(g.timeout, backend.DefaultTimeout))
	defer cancel()

	receipt, err := kv.Put(ctx, id, env, backend.PutOptions{TTL: g.ttl, Pin: g.pin, Verbose: g.verbose})
	if err != nil {
		fmt.Fprintf(errOut, "put: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%s: %s\n", receipt.Backend, receipt.Detail)
	return 0
}

func cmdGet(g globalFlags, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: hubert get <arid>")
		return 2
	}
	id, err := arid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid arid: %v\n", err)
		return 2
	}

	kv, closeFn, err := registry.Open(g.storage, toConfig(g))
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	ctx := context.Background()
	env, err := kv.Get(ctx, id, backend.GetOptions{Timeout: g.timeout, Verbose: g.verbose})
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	if env == nil {
		fmt.Fprintln(errOut, "not found")
		return 1
	}
	text, err := encodeEnvelopeText(env)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, text)
	return 0
}

func cmdExists(g globalFlags, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: hubert exists <arid>")
		return 2
	}
	id, err := arid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid arid: %v\n", err)
		return 2
	}

	kv, closeFn, err := registry.Open(g.storage, toConfig(g))
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	ctx, cancel := context.WithTimeout(context.Background(), withDefault(g.timeout, backend.DefaultTimeout))
	defer cancel()
	ok, err := kv.Exists(ctx, id)
	if err != nil {
		fmt.Fprintf(errOut, "exists: %v\n", err)
		return 1
	}
	if !ok {
		return 1
	}
	fmt.Fprintln(out, "true")
	return 0
}

func cmdCheck(g globalFlags, args []string, out io.Writer, errOut io.Writer) int {
	kv, closeFn, err := registry.Open(g.storage, toConfig(g))
	if err != nil {
		fmt.Fprintf(errOut, "check: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := checkKV(ctx, kv); err != nil {
		fmt.Fprintf(errOut, "check: backend %q unavailable: %v\n", g.storage, err)
		return 1
	}
	fmt.Fprintf(out, "%s: OK\n", g.storage)
	return 0
}

// checkKV probes kv the most specific way it knows how: a backend.Checker
// implementation (DHT bootstrap ping, "ipfs id", an HTTP health check) if
// kv is one, a composite of its sub-backends if it's a hybrid router, or a
// plain Exists against a throwaway ARID as the generic fallback.
func checkKV(ctx context.Context, kv backend.KV) error {
	if c, ok := kv.(backend.Checker); ok {
		return c.Check(ctx)
	}
	if r, ok := kv.(*hybrid.Router); ok {
		if err := checkKV(ctx, r.DHT); err != nil {
			return fmt.Errorf("dht: %w", err)
		}
		if err := checkKV(ctx, r.CAS); err != nil {
			return fmt.Errorf("cas: %w", err)
		}
		return nil
	}

	id, err := arid.New()
	if err != nil {
		return err
	}
	_, err = kv.Exists(ctx, id)
	return err
}

func cmdServer(g globalFlags, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(errOut)
	port := fs.Int("port", hubertserver.DefaultPort, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	srv := hubertserver.New(g.ttl)
	addr := fmt.Sprintf(":%d", *port)
	fmt.Fprintf(out, "hubert server listening on %s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(errOut, "server: %v\n", err)
		return 1
	}
	return 0
}

func toConfig(g globalFlags) registry.Config {
	return registry.Config{
		Host:         g.host,
		Port:         g.port,
		PinByDefault: g.pin,
		GRPCTarget:   g.grpcTarget,
	}
}

func withDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
