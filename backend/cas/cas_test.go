package cas

import (
	"testing"

	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/backendtest"
)

func newTestDriver(t *testing.T) backend.KV {
	sh := newFakeShell()
	return &Driver{sh: sh, blocks: &localBlocks{sh: sh}}
}

func TestDriverConformance(t *testing.T) {
	backendtest.RunKVConformance(t, newTestDriver)
}

func TestIsLikelyNotFound(t *testing.T) {
	cases := map[string]bool{
		"":                               false,
		"routing: not found":             true,
		"could not resolve name":         true,
		"block not found":                true,
		"context deadline exceeded":      false,
	}
	for msg, want := range cases {
		var err error
		if msg != "" {
			err = errString(msg)
		}
		if got := isLikelyNotFound(err); got != want {
			t.Errorf("isLikelyNotFound(%q) = %v, want %v", msg, got, want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
