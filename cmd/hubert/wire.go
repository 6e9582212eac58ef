package main

import (
	"encoding/base64"
	"strconv"
	"strings"

	"hubert.dev/hubert/envelope"
)

// encodeEnvelopeText and decodeEnvelopeText give the CLI a copy-pasteable
// textual form for an envelope: standard base64 of its canonical binary
// encoding, the same convention backend/server uses on the wire.
func encodeEnvelopeText(env *envelope.Envelope) (string, error) {
	b, err := env.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeEnvelopeText(s string) (*envelope.Envelope, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return envelope.Parse(b)
}

func parseByteCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
