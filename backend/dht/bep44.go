package dht

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha1"
	"fmt"
	"strconv"
)

// mutableItem is BEP44's mutable-item shape: a value signed by the owner of
// K, addressed by target = sha1(K || salt). Seq must strictly increase on
// republication; Hubert only ever publishes seq 1, since ARIDs are
// write-once and there is never a second version to publish.
type mutableItem struct {
	K    ed25519.PublicKey
	Salt []byte
	Seq  int64
	V    []byte
	Sig  []byte
}

// target computes BEP44's mutable-item lookup key: sha1(pub || salt).
func target(pub ed25519.PublicKey, salt []byte) [20]byte {
	h := sha1.New()
	h.Write(pub)
	h.Write(salt)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// bep44TargetForKey computes BEP44's *immutable*-item target: sha1 of the
// bencoded value itself, content-addressed and keyless. Hubert never
// publishes immutable items — every value is addressed by the ARID-derived
// keypair in target above, not by its own hash — so nothing in this
// package calls this. It's kept factored out rather than deleted so that
// fact stays visible in the code instead of only asserted in a comment.
func bep44TargetForKey(v []byte) [20]byte {
	h := sha1.New()
	fmt.Fprintf(h, "%d:", len(v))
	h.Write(v)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// signable builds the exact byte string BEP44 signs: the bencoded form of
// the dict restricted to the "salt" (if present), "seq", and "v" keys, with
// the enclosing 'd'/'e' dict delimiters stripped off, per BEP44 §"Signature
// verification and authentication".
func signable(salt []byte, seq int64, v []byte) []byte {
	var buf bytes.Buffer
	if len(salt) > 0 {
		fmt.Fprintf(&buf, "4:salt%d:", len(salt))
		buf.Write(salt)
	}
	fmt.Fprintf(&buf, "3:seqi%de", seq)
	fmt.Fprintf(&buf, "1:v%d:", len(v))
	buf.Write(v)
	return buf.Bytes()
}

// sign produces a mutableItem ready to publish at seq 1.
func sign(priv ed25519.PrivateKey, salt []byte, value []byte) mutableItem {
	const seq = 1
	sig := ed25519.Sign(priv, signable(salt, seq, value))
	return mutableItem{
		K:    priv.Public().(ed25519.PublicKey),
		Salt: append([]byte(nil), salt...),
		Seq:  seq,
		V:    value,
		Sig:  sig,
	}
}

// verify reports whether item's signature is valid for its own fields.
func (item mutableItem) verify() bool {
	if len(item.K) != ed25519.PublicKeySize || len(item.Sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(item.K, signable(item.Salt, item.Seq, item.V), item.Sig)
}

func (item mutableItem) String() string {
	return "mutable-item(target=" + strconv.Itoa(int(target(item.K, item.Salt)[0])) + "...)"
}
