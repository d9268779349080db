package bitcodec

import "errors"

// Bit codec errors.
var (
	// ErrInvalidWidth is returned for a value width of 0 or above MaxWidth.
	ErrInvalidWidth = errors.New("bitcodec: invalid bit width")

	// ErrValueOverflow is returned when a raw value does not fit its width.
	ErrValueOverflow = errors.New("bitcodec: value does not fit bit width")

	// ErrFraming is returned when a decoded field does not end in a stop bit.
	// The stream is out of sync and cannot be recovered locally.
	ErrFraming = errors.New("bitcodec: stop bit missing")
)
