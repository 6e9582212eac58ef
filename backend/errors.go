package backend

import (
	"errors"
	"strconv"
)

// Error kinds exposed at the unified backend.KV contract. Backends do not
// silently translate failures into absence except for the explicit
// "not published yet" case, where Get returns (nil, nil) after its timeout.
var (
	// ErrAlreadyExists: the write-once probe found a prior publish. Fatal
	// for this put; the caller must choose a new ARID.
	ErrAlreadyExists = errors.New("backend: already exists")

	// ErrTimeout: the operation exceeded its deadline. The caller may retry
	// with a longer deadline.
	ErrTimeout = errors.New("backend: timeout")

	// ErrNetwork: a decentralized-transport failure. The caller may retry;
	// idempotent for gets.
	ErrNetwork = errors.New("backend: network error")

	// ErrDaemon: a local daemon/transport failure (e.g. the ipfs CLI).
	ErrDaemon = errors.New("backend: daemon error")

	// ErrDecode: retrieved bytes did not deobfuscate and parse. Fatal for
	// this get; indicates corruption or the wrong ARID.
	ErrDecode = errors.New("backend: decode error")

	// ErrReferenceNotFound: the DHT held a reference but CAS had no object
	// at the referenced ARID. Fatal for this get.
	ErrReferenceNotFound = errors.New("backend: reference target not found")

	// ErrInvalidARID: input did not decode as a 32-byte ARID.
	ErrInvalidARID = errors.New("backend: invalid arid")
)

// ValueTooLargeError reports that a serialized envelope exceeds a backend's
// size limit. Fatal; the caller must compress or route differently.
type ValueTooLargeError struct {
	Size  int
	Limit int
}

func (e *ValueTooLargeError) Error() string {
	return "backend: value too large: " + strconv.Itoa(e.Size) + " bytes exceeds limit of " + strconv.Itoa(e.Limit)
}

// IsValueTooLarge reports whether err is a *ValueTooLargeError.
func IsValueTooLarge(err error) bool {
	var e *ValueTooLargeError
	return errors.As(err, &e)
}

// IsRetryable reports whether err represents a transient failure a Get poll
// loop should swallow and retry rather than surface immediately.
// ErrNetwork and ErrDaemon cover a single dropped request or daemon hiccup;
// everything else (ErrDecode, ErrInvalidARID, ErrReferenceNotFound, and
// ErrTimeout itself) is terminal for the attempt that hit it.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrDaemon)
}
