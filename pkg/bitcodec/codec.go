package bitcodec

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// MaxWidth is the widest value the codec accepts. One bit of headroom is kept
// so a framed field still fits a 64-bit read.
const MaxWidth = 63

// Value is a single fixed-width integer.
type Value struct {
	Width uint8
	Raw   uint64
}

// NewValue returns a value of the given width with raw masked to fit.
func NewValue(width uint8, raw uint64) Value {
	return Value{Width: width, Raw: raw & mask(width)}
}

// Valid reports whether the width is usable and raw fits in it.
func (v Value) Valid() bool {
	return v.Width > 0 && v.Width <= MaxWidth && v.Raw <= mask(v.Width)
}

// String renders the value with its binary form, e.g. "5 - 0b0101 (4)".
func (v Value) String() string {
	return fmt.Sprintf("%d - 0b%0*b (%d)", v.Raw, int(v.Width), v.Raw, v.Width)
}

func mask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func fieldWidth(width uint8, stopBit bool) int {
	if stopBit {
		return int(width) + 1
	}
	return int(width)
}

// EncodedLen returns the number of bytes Encode produces for count values of
// the given width. Readers use it to know how much of a stream to consume.
func EncodedLen(width uint8, count int, stopBit bool) int {
	if count <= 0 {
		return 0
	}
	return (count*fieldWidth(width, stopBit) + 7) / 8
}

// Encode packs values into a byte-aligned buffer.
//
// Each value contributes Width bits, MSB first, followed by a 1 bit when
// stopBit is set. Padding up to the next byte boundary is split with
// floor(pad/2) zero bits before the payload and the remainder after it.
func Encode(values []Value, stopBit bool) ([]byte, error) {
	total := 0
	for i, v := range values {
		if v.Width == 0 || v.Width > MaxWidth {
			return nil, fmt.Errorf("%w: value %d has width %d", ErrInvalidWidth, i, v.Width)
		}
		if v.Raw > mask(v.Width) {
			return nil, fmt.Errorf("%w: value %d (%d) exceeds %d bits", ErrValueOverflow, i, v.Raw, v.Width)
		}
		total += fieldWidth(v.Width, stopBit)
	}
	if total == 0 {
		return []byte{}, nil
	}

	pad := (8 - total%8) % 8
	front := uint8(pad / 2)

	var buf bytes.Buffer
	buf.Grow((total + 7) / 8)
	w := bitio.NewWriter(&buf)

	if front > 0 {
		if err := w.WriteBits(0, front); err != nil {
			return nil, err
		}
	}
	for _, v := range values {
		if err := w.WriteBits(v.Raw, v.Width); err != nil {
			return nil, err
		}
		if stopBit {
			if err := w.WriteBool(true); err != nil {
				return nil, err
			}
		}
	}
	// Close flushes the partial last byte, zero-filling the back padding.
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode unpacks as many width-bit values as fit in data.
//
// The front padding is recomputed from the buffer length with the same rule
// Encode uses, so decoding only recovers the original values when it is
// given exactly one encoded buffer. Trailing bits past the last whole field
// are ignored. With stopBit set, every field must end in a 1 bit; the stop
// bit is removed from the returned values.
func Decode(data []byte, stopBit bool, width uint8) ([]Value, error) {
	if width == 0 || width > MaxWidth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	field := fieldWidth(width, stopBit)
	totalBits := len(data) * 8
	count := totalBits / field
	front := uint8((totalBits - count*field) / 2)

	values := make([]Value, 0, count)
	if count == 0 {
		return values, nil
	}

	r := bitio.NewReader(bytes.NewReader(data))
	if front > 0 {
		if _, err := r.ReadBits(front); err != nil {
			return nil, err
		}
	}
	for i := 0; i < count; i++ {
		raw, err := r.ReadBits(uint8(field))
		if err != nil {
			return nil, err
		}
		if stopBit {
			if raw&1 != 1 {
				return nil, fmt.Errorf("%w: field %d", ErrFraming, i)
			}
			raw >>= 1
		}
		values = append(values, Value{Width: width, Raw: raw})
	}
	return values, nil
}
