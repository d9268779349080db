package bitcodec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEncodeKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		values  []Value
		stopBit bool
		want    []byte
	}{
		{
			name:    "handshake 72 framed",
			values:  []Value{NewValue(21, 72)},
			stopBit: true,
			want:    []byte{0x00, 0x01, 0x22},
		},
		{
			name:    "handshake 72 plain",
			values:  []Value{NewValue(21, 72)},
			stopBit: false,
			want:    []byte{0x00, 0x01, 0x20},
		},
		{
			name:    "nine ones framed",
			values:  []Value{NewValue(9, 0x1FF)},
			stopBit: true,
			want:    []byte{0x1F, 0xF8},
		},
		{
			name:    "byte aligned needs no padding",
			values:  []Value{NewValue(4, 0xA), NewValue(4, 0x5)},
			stopBit: false,
			want:    []byte{0xA5},
		},
		{
			name:    "empty",
			values:  nil,
			stopBit: true,
			want:    []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.values, tt.stopBit)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = %08b, want %08b", got, tt.want)
			}
		})
	}
}

func TestEncodeRejectsInvalidValues(t *testing.T) {
	if _, err := Encode([]Value{{Width: 0, Raw: 0}}, false); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("width 0: error = %v, want ErrInvalidWidth", err)
	}
	if _, err := Encode([]Value{{Width: 64, Raw: 0}}, false); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("width 64: error = %v, want ErrInvalidWidth", err)
	}
	if _, err := Encode([]Value{{Width: 9, Raw: 512}}, true); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("overflow: error = %v, want ErrValueOverflow", err)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// Fields narrower than a byte can leave room for a phantom field in the
	// padding, so only widths of 8 and above round-trip unconditionally.
	widths := []uint8{8, 9, 10, 12, 21, 33}

	for _, width := range widths {
		for _, stopBit := range []bool{true, false} {
			for count := 1; count <= 40; count++ {
				values := make([]Value, count)
				for i := range values {
					values[i] = NewValue(width, rng.Uint64())
				}

				data, err := Encode(values, stopBit)
				if err != nil {
					t.Fatalf("Encode(width=%d, count=%d) error = %v", width, count, err)
				}
				if len(data) != EncodedLen(width, count, stopBit) {
					t.Fatalf("len = %d, EncodedLen = %d", len(data), EncodedLen(width, count, stopBit))
				}

				got, err := Decode(data, stopBit, width)
				if err != nil {
					t.Fatalf("Decode(width=%d, count=%d, stop=%v) error = %v", width, count, stopBit, err)
				}
				if len(got) != count {
					t.Fatalf("Decode(width=%d, count=%d) returned %d values", width, count, len(got))
				}
				for i := range values {
					if got[i] != values[i] {
						t.Fatalf("width=%d count=%d: value %d = %v, want %v", width, count, i, got[i], values[i])
					}
				}
			}
		}
	}
}

func TestDecodeRejectsMissingStopBit(t *testing.T) {
	const width = 12
	values := []Value{NewValue(width, 0xABC), NewValue(width, 0x123), NewValue(width, 0xFFF)}
	data, err := Encode(values, true)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	field := width + 1
	total := len(values) * field
	front := ((8 - total%8) % 8) / 2

	for i := range values {
		corrupted := append([]byte(nil), data...)
		pos := front + (i+1)*field - 1
		corrupted[pos/8] &^= 1 << (7 - pos%8)

		if _, err := Decode(corrupted, true, width); !errors.Is(err, ErrFraming) {
			t.Errorf("field %d: Decode() error = %v, want ErrFraming", i, err)
		}
	}
}

func TestPaddingIsSplitFrontAndBack(t *testing.T) {
	for _, width := range []uint8{9, 10, 12, 21} {
		for count := 1; count <= 8; count++ {
			values := make([]Value, count)
			for i := range values {
				values[i] = NewValue(width, ^uint64(0))
			}
			data, err := Encode(values, true)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			total := count * (int(width) + 1)
			pad := (8 - total%8) % 8
			front := pad / 2
			back := pad - front

			// All payload bits are ones, so every padding bit must be the only zeros.
			for pos := 0; pos < len(data)*8; pos++ {
				bit := data[pos/8] >> (7 - pos%8) & 1
				inPadding := pos < front || pos >= len(data)*8-back
				if inPadding && bit != 0 {
					t.Fatalf("width=%d count=%d: padding bit %d is set", width, count, pos)
				}
				if !inPadding && bit != 1 {
					t.Fatalf("width=%d count=%d: payload bit %d is clear", width, count, pos)
				}
			}
		}
	}
}

func TestDecodeIgnoresTrailingBits(t *testing.T) {
	// 3 bytes hold one 21-bit field with 3 bits left over.
	got, err := Decode([]byte{0x00, 0x01, 0x20}, false, 21)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 1 || got[0].Raw != 72 {
		t.Fatalf("Decode() = %v, want single value 72", got)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	got, err := Decode([]byte{0xFF}, true, 21)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decode() returned %d values, want 0", len(got))
	}
	if _, err := Decode(nil, false, 0); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("Decode(width 0) error = %v, want ErrInvalidWidth", err)
	}
}

func TestEncodedLen(t *testing.T) {
	tests := []struct {
		width   uint8
		count   int
		stopBit bool
		want    int
	}{
		{21, 1, true, 3},
		{21, 1, false, 3},
		{9, 1, true, 2},
		{9, 1, false, 2},
		{10, 1, true, 2},
		{12, 1, false, 2},
		{12, 22, true, 36},
		{12, 22, false, 33},
		{12, 0, true, 0},
	}
	for _, tt := range tests {
		if got := EncodedLen(tt.width, tt.count, tt.stopBit); got != tt.want {
			t.Errorf("EncodedLen(%d, %d, %v) = %d, want %d", tt.width, tt.count, tt.stopBit, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	if got := NewValue(4, 5).String(); got != "5 - 0b0101 (4)" {
		t.Errorf("String() = %q", got)
	}
}
