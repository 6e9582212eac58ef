// Package obfuscate implements the length-preserving keyed transformation
// Hubert applies to serialized envelopes before they touch a backend, and
// reverses on retrieval. It is not authenticated encryption and provides no
// confidentiality beyond what the stream cipher itself offers; its job is to
// make at-rest bytes statistically indistinguishable from uniform randomness
// to an observer who lacks the ARID.
package obfuscate

import (
	"golang.org/x/crypto/chacha20"
)

// zeroNonce is safe here only because each key is derived fresh per ARID
// (keys.ObfuscationKey) and, by the write-once contract enforced above this
// package, is used to encrypt at most one plaintext.
var zeroNonce [chacha20.NonceSize]byte

// Obfuscate XORs data against a ChaCha20 keystream keyed by key. The
// transformation is its own inverse: Deobfuscate is Obfuscate.
func Obfuscate(data []byte, key [32]byte) ([]byte, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], zeroNonce[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}

// Deobfuscate reverses Obfuscate. Length-preserving, deterministic given key
// and input.
func Deobfuscate(data []byte, key [32]byte) ([]byte, error) {
	return Obfuscate(data, key)
}
