package wire

import "errors"

// Wire value errors.
var (
	// ErrUnknownHandshake is returned when a decoded handshake signal is not defined.
	ErrUnknownHandshake = errors.New("wire: unknown handshake signal")

	// ErrUnknownStatus is returned when a decoded receive status is not defined.
	ErrUnknownStatus = errors.New("wire: unknown receive status")

	// ErrWidthMismatch is returned when a value is parsed from a field of the wrong width.
	ErrWidthMismatch = errors.New("wire: bit width mismatch")

	// ErrTextTooLong is returned when text does not fit a 12-bit length prefix.
	ErrTextTooLong = errors.New("wire: text too long")
)
