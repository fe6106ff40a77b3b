// Package protoerr defines the sentinel errors shared across the codec,
// SRP6 engine, credential store and connection state machine. Handlers
// compare against these with errors.Is; nothing in this package is ever
// retried by the caller (spec.md §7: "Nothing is retried at this layer").
package protoerr

import "errors"

var (
	// ErrMalformedFrame means the codec could not parse an inbound packet.
	ErrMalformedFrame = errors.New("protoerr: malformed frame")

	// ErrUnknownUser means the credential store returned NotFound. Per
	// spec.md §7, this is never distinguished from a bad password at the
	// wire level.
	ErrUnknownUser = errors.New("protoerr: unknown user")

	// ErrInvalidState means a packet arrived in a state that does not
	// accept it.
	ErrInvalidState = errors.New("protoerr: invalid state")

	// ErrInvalidA means the client's public ephemeral A was zero modulo N.
	ErrInvalidA = errors.New("protoerr: invalid client public value A")

	// ErrInvalidU means the derived scrambling parameter u was zero.
	ErrInvalidU = errors.New("protoerr: invalid scrambling parameter u")

	// ErrProofMismatch means the client's M1 did not match the server's
	// expected value.
	ErrProofMismatch = errors.New("protoerr: client proof mismatch")

	// ErrStoreUnavailable means the credential store failed for reasons
	// other than NotFound.
	ErrStoreUnavailable = errors.New("protoerr: credential store unavailable")

	// ErrTimeoutIdle means the session made no progress within the idle
	// window.
	ErrTimeoutIdle = errors.New("protoerr: idle timeout")

	// ErrUsernameTooLong means the inbound username did not fit the
	// 20-byte fixed field with room for its NUL terminator (spec.md §9,
	// "reject usernames >= 20 bytes at parse time").
	ErrUsernameTooLong = errors.New("protoerr: username too long")
)
