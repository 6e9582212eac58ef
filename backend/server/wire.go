// Package server implements the centralized HTTP dropbox backend.KV driver:
// a development/test backend, not part of the decentralized threat model.
// It ships both the client (satisfying backend.KV over net/http) and the
// server (an in-memory write-once store).
package server

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/envelope"
)

// DefaultPort is the fixed port the dropbox protocol listens on by default.
const DefaultPort = 45678

// encodeEnvelope renders an envelope in the wire's "canonical textual form":
// standard base64 of its canonical binary encoding. The line-based /put and
// /get bodies are text, so the binary envelope codec needs a text wrapper;
// this is purely a transport convenience, not a second encoding of the
// envelope itself.
func encodeEnvelope(env *envelope.Envelope) (string, error) {
	b, err := env.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeEnvelope(s string) (*envelope.Envelope, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("server: malformed envelope text: %w", err)
	}
	return envelope.Parse(b)
}

// putBody renders the three-line /put request body: ARID, envelope, and an
// optional TTL in seconds.
func putBody(id arid.ARID, env *envelope.Envelope, ttlSeconds int64) (string, error) {
	envText, err := encodeEnvelope(env)
	if err != nil {
		return "", err
	}
	if ttlSeconds <= 0 {
		return id.String() + "\n" + envText, nil
	}
	return id.String() + "\n" + envText + "\n" + strconv.FormatInt(ttlSeconds, 10), nil
}

// parseGetBody is the server side's parser for a /get request body: just
// the ARID in canonical textual form.
func parseGetBody(body string) (arid.ARID, error) {
	return arid.Parse(strings.TrimSpace(body))
}

// parsePutBody is the server side's inverse of putBody.
func parsePutBody(body string) (id arid.ARID, env *envelope.Envelope, ttlSeconds int64, err error) {
	lines := strings.SplitN(strings.TrimRight(body, "\n"), "\n", 3)
	if len(lines) < 2 {
		return arid.Zero, nil, 0, fmt.Errorf("server: put body must have at least 2 lines")
	}
	id, err = arid.Parse(lines[0])
	if err != nil {
		return arid.Zero, nil, 0, err
	}
	env, err = decodeEnvelope(lines[1])
	if err != nil {
		return arid.Zero, nil, 0, err
	}
	if len(lines) == 3 && strings.TrimSpace(lines[2]) != "" {
		ttlSeconds, err = strconv.ParseInt(strings.TrimSpace(lines[2]), 10, 64)
		if err != nil {
			return arid.Zero, nil, 0, fmt.Errorf("server: malformed ttl: %w", err)
		}
	}
	return id, env, ttlSeconds, nil
}
