// Package arid implements Hubert's Apparently Random Identifier: a 32-byte
// caller-chosen key that looks uniformly random and is never sent to any
// storage backend.
package arid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

// Size is the length of an ARID in bytes.
const Size = 32

// tag is the stable textual prefix identifying the hex encoding below as an ARID.
const tag = "arid1"

// ARID is a 256-bit identifier with uniformly random appearance.
type ARID [Size]byte

// Zero is the all-zero ARID. It is never a valid generated ARID but is useful
// as an explicit "no value" sentinel in call sites that need one.
var Zero ARID

// New generates a fresh ARID from a cryptographically secure random source.
func New() (ARID, error) {
	var a ARID
	if _, err := rand.Read(a[:]); err != nil {
		return Zero, err
	}
	return a, nil
}

// String renders the ARID in its stable textual form: the tag "arid1"
// followed by lowercase hex of the 32 bytes.
func (a ARID) String() string {
	return tag + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw 32 bytes.
func (a ARID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

// IsZero reports whether a is the all-zero ARID.
func (a ARID) IsZero() bool {
	return a == Zero
}

// ErrInvalidARID is returned when input does not decode as a 32-byte ARID.
var ErrInvalidARID = errors.New("arid: invalid encoding")

// Parse decodes the stable textual form produced by String.
func Parse(s string) (ARID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, tag) {
		return Zero, ErrInvalidARID
	}
	raw, err := hex.DecodeString(s[len(tag):])
	if err != nil {
		return Zero, ErrInvalidARID
	}
	if len(raw) != Size {
		return Zero, ErrInvalidARID
	}
	var a ARID
	copy(a[:], raw)
	return a, nil
}

// FromBytes constructs an ARID from an existing 32-byte slice.
func FromBytes(b []byte) (ARID, error) {
	if len(b) != Size {
		return Zero, ErrInvalidARID
	}
	var a ARID
	copy(a[:], b)
	return a, nil
}
