package session

import "errors"

// Session package errors. All of them end the session.
var (
	// ErrFraming is returned when a stop bit check fails or a chunk cannot be decoded.
	ErrFraming = errors.New("session: framing error")

	// ErrConnectionReset is returned when the stream ends before a full field was read.
	ErrConnectionReset = errors.New("session: connection reset")

	// ErrHandshake is returned when the opening hello exchange is wrong.
	ErrHandshake = errors.New("session: handshake failed")

	// ErrVersionMismatch is returned when initiator and responder versions differ.
	ErrVersionMismatch = errors.New("session: version mismatch")

	// ErrUnsupportedVersion is returned for a protocol version this package cannot speak.
	ErrUnsupportedVersion = errors.New("session: unsupported protocol version")

	// ErrKeyImport is returned when a key blob fails its marker or checksum check.
	ErrKeyImport = errors.New("session: key import failed")

	// ErrProtocol is returned for an unexpected signal or value in the dispatch loop.
	ErrProtocol = errors.New("session: protocol error")

	// ErrRejected is returned when the responder answers a value with Failure.
	ErrRejected = errors.New("session: rejected by peer")

	// ErrNotConnected is returned when a client operation needs the dispatch stage.
	ErrNotConnected = errors.New("session: not connected")

	// ErrClosed is returned when using a session that has already closed.
	ErrClosed = errors.New("session: closed")
)
