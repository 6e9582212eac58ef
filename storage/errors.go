// Package storage holds the obfuscated-block-store abstraction backend/cas
// routes its large, obfuscated envelope blocks through: a minimal
// content-addressed interface plus fallback and replication composition,
// kept independent of any one block-storage daemon.
package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable block mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
