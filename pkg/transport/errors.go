package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNoHandler is returned when no connection handler is configured.
	ErrNoHandler = errors.New("transport: no connection handler configured")

	// ErrAlreadyStarted is returned when Start is called on an already running transport.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrNotStarted is returned when a connection is added before Start.
	ErrNotStarted = errors.New("transport: not started")
)
