// Package keys derives the backend-facing key material for an ARID: DHT
// signing keypairs, CAS publisher names, and obfuscation keys, all by
// HKDF-HMAC-SHA-256 with domain-separated info strings. None of this
// derived material is transmitted to a backend in a form that would let it
// recover the ARID.
package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	"hubert.dev/hubert/arid"
)

// Domain separators for per-purpose ARID derivation. Each is versioned
// independently; reusing one across purposes is forbidden.
const (
	DHTSalt         = "hubert-mainline-dht-v1"
	CASSalt         = "hubert-ipfs-ipns-v1"
	ObfuscationSalt = "hubert-obfuscation-v1"
)

// Derive runs HKDF-HMAC-SHA-256 over the ARID's raw bytes as input key
// material, with salt fixed to the purpose-specific domain separator, and
// returns outputLen bytes. Same ARID + same salt always yields the same
// output; different salts are computationally independent.
func Derive(a arid.ARID, salt string, outputLen int) ([]byte, error) {
	r := hkdf.New(sha256.New, a.Bytes(), []byte(salt), nil)
	out := make([]byte, outputLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DHTSigningKeypair derives the Ed25519 keypair used to publish and probe
// the ARID's mutable item on the Mainline DHT.
func DHTSigningKeypair(a arid.ARID) (ed25519.PrivateKey, error) {
	seed, err := Derive(a, DHTSalt, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// CASPublisherName derives the deterministic IPNS publisher name used to
// create or locate the ARID's content-addressed-store keypair. The name is
// published to the network verbatim (it's the argument to "ipfs key gen"
// and "ipfs name publish/resolve"), so it must be HKDF-derived like the
// DHT signing keypair rather than a direct rendering of the ARID's bytes —
// otherwise anyone watching IPNS traffic would recover the ARID outright.
func CASPublisherName(a arid.ARID) (string, error) {
	raw, err := Derive(a, CASSalt, 16)
	if err != nil {
		return "", err
	}
	return "hubert-" + hex.EncodeToString(raw), nil
}

// ObfuscationKey derives the 32-byte symmetric key used to obfuscate
// payloads stored under the ARID.
func ObfuscationKey(a arid.ARID) ([32]byte, error) {
	raw, err := Derive(a, ObfuscationSalt, 32)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}
