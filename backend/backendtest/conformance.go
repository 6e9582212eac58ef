// Package backendtest provides a shared conformance suite every backend.KV
// implementation can run against, modeled on the teacher's
// storage/testkit.RunCASConformance.
package backendtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
)

// NewKV constructs a fresh KV instance for a test. The returned KV MUST be
// isolated from other tests (a distinct in-memory/tempdir backing store).
type NewKV func(t *testing.T) backend.KV

// RunKVConformance exercises the write-once, existence, and polling-get
// invariants every backend.KV implementation must uphold.
func RunKVConformance(t *testing.T, newKV NewKV) {
	t.Helper()

	t.Run("PutGetRoundtrip", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		id, err := arid.New()
		if err != nil {
			t.Fatalf("arid.New: %v", err)
		}
		want, err := envelope.New("subject", envelope.Assertion{Predicate: "body", Object: "Hello, Hubert"})
		if err != nil {
			t.Fatalf("envelope.New: %v", err)
		}

		if _, err := kv.Put(ctx, id, want, backend.PutOptions{}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := kv.Get(ctx, id, backend.GetOptions{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got == nil {
			t.Fatalf("Get returned nil for a published ARID")
		}
		if !envelope.Equal(want, got) {
			t.Fatalf("roundtrip mismatch")
		}

		exists, err := kv.Exists(ctx, id)
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if !exists {
			t.Fatalf("Exists returned false after Put")
		}
	})

	t.Run("WriteOnce", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		id, err := arid.New()
		if err != nil {
			t.Fatalf("arid.New: %v", err)
		}
		v1, _ := envelope.New("subject", envelope.Assertion{Predicate: "v", Object: "v1"})
		v2, _ := envelope.New("subject", envelope.Assertion{Predicate: "v", Object: "v2"})

		if _, err := kv.Put(ctx, id, v1, backend.PutOptions{}); err != nil {
			t.Fatalf("first Put failed: %v", err)
		}
		_, err = kv.Put(ctx, id, v2, backend.PutOptions{})
		if !errors.Is(err, backend.ErrAlreadyExists) {
			t.Fatalf("second Put: got %v, want ErrAlreadyExists", err)
		}

		got, err := kv.Get(ctx, id, backend.GetOptions{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !envelope.Equal(v1, got) {
			t.Fatalf("expected the first value to win")
		}
	})

	t.Run("ConcurrentDistinctPuts", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		const n = 8
		ids := make([]arid.ARID, n)
		envs := make([]*envelope.Envelope, n)
		for i := range ids {
			id, err := arid.New()
			if err != nil {
				t.Fatalf("arid.New: %v", err)
			}
			env, err := envelope.New("subject", envelope.Assertion{
				Predicate: "n", Object: fmt.Sprintf("worker-%d", i),
			})
			if err != nil {
				t.Fatalf("envelope.New: %v", err)
			}
			ids[i] = id
			envs[i] = env
		}

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = kv.Put(ctx, ids[i], envs[i], backend.PutOptions{})
			}(i)
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				t.Fatalf("concurrent Put %d failed: %v", i, err)
			}
		}

		results := make([]*envelope.Envelope, n)
		getErrs := make([]error, n)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], getErrs[i] = kv.Get(ctx, ids[i], backend.GetOptions{Timeout: 5 * time.Second})
			}(i)
		}
		wg.Wait()
		for i := range ids {
			if getErrs[i] != nil {
				t.Fatalf("concurrent Get %d failed: %v", i, getErrs[i])
			}
			if results[i] == nil {
				t.Fatalf("concurrent Get %d: expected a value, got none", i)
			}
			if !envelope.Equal(envs[i], results[i]) {
				t.Fatalf("concurrent Get %d: got wrong value back, racing puts crossed wires", i)
			}
		}
	})

	t.Run("GetMissingTimesOut", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		id, err := arid.New()
		if err != nil {
			t.Fatalf("arid.New: %v", err)
		}
		got, err := kv.Get(ctx, id, backend.GetOptions{Timeout: 50 * time.Millisecond})
		if err != nil {
			t.Fatalf("Get: unexpected error %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil for an unpublished ARID")
		}

		exists, err := kv.Exists(ctx, id)
		if err != nil {
			t.Fatalf("Exists: unexpected error %v", err)
		}
		if exists {
			t.Fatalf("Exists returned true for an unpublished ARID")
		}
	})
}
