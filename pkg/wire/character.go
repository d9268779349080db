package wire

import (
	"fmt"
	"strings"

	"github.com/Agrael11/BSCP/pkg/bitcodec"
)

// MaxTextLen is the longest text a 12-bit length prefix can describe.
const MaxTextLen = MaxNumber

// Character is one 12-bit text field.
//
// Layout, MSB first:
//
//	bits 11..10  checksum bits 1..0
//	bits  9..2   character code
//	bits  1..0   checksum bits 3..2
type Character uint16

const (
	characterCodeMask  = 0x3FC
	characterCheckMask = 0xC03
)

// NewCharacter returns a character with a zero checksum nibble.
func NewCharacter(c byte) Character {
	return Character(uint16(c) << 2)
}

// WithChecksum returns c with its checksum nibble replaced by k.
func (c Character) WithChecksum(k byte) Character {
	aligned := uint16(k&0b1100)>>2 | uint16(k&0b0011)<<10
	return Character(uint16(c)&characterCodeMask | aligned)
}

// Code returns the 8-bit character code.
func (c Character) Code() byte {
	return byte(uint16(c) >> 2)
}

// Checksum returns the embedded 4-bit checksum nibble.
func (c Character) Checksum() byte {
	bits := uint16(c) & characterCheckMask
	return byte(bits>>10 | (bits&0b11)<<2)
}

// Value returns the 12-bit wire value.
func (c Character) Value() bitcodec.Value {
	return bitcodec.NewValue(CharacterWidth, uint64(c))
}

// ParseCharacter converts a decoded field into a character.
func ParseCharacter(v bitcodec.Value) (Character, error) {
	if v.Width != CharacterWidth {
		return 0, fmt.Errorf("%w: character has %d bits", ErrWidthMismatch, v.Width)
	}
	return Character(v.Raw & 0xFFF), nil
}

// StreamChecksum computes one 4-bit checksum per byte of text.
//
// The checksum is seeded with the first byte, the last byte and the length,
// so it depends on both content and order. It detects transport corruption
// only and is not collision resistant.
func StreamChecksum(text []byte) []byte {
	if len(text) == 0 {
		return []byte{}
	}
	magic := text[0] ^ text[len(text)-1] ^ byte(len(text)&0xFF)
	sums := make([]byte, len(text))
	for i, d := range text {
		v := d + magic
		sums[i] = v>>4 ^ v&0xF
	}
	return sums
}

// EncodeText converts text into checksummed character fields. Text is taken
// byte by byte.
func EncodeText(text string) ([]bitcodec.Value, error) {
	if len(text) > MaxTextLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextTooLong, len(text))
	}
	sums := StreamChecksum([]byte(text))
	values := make([]bitcodec.Value, len(text))
	for i := 0; i < len(text); i++ {
		values[i] = NewCharacter(text[i]).WithChecksum(sums[i]).Value()
	}
	return values, nil
}

// DecodeText converts character fields back into text and reports whether
// every embedded checksum matches the one recomputed over the decoded text.
func DecodeText(values []bitcodec.Value) (string, bool, error) {
	chars := make([]Character, len(values))
	var sb strings.Builder
	sb.Grow(len(values))
	for i, v := range values {
		c, err := ParseCharacter(v)
		if err != nil {
			return "", false, err
		}
		chars[i] = c
		sb.WriteByte(c.Code())
	}

	text := sb.String()
	return text, VerifyChecksum(chars, text), nil
}

// VerifyChecksum compares the nibbles embedded in chars against the stream
// checksum of text.
func VerifyChecksum(chars []Character, text string) bool {
	sums := StreamChecksum([]byte(text))
	if len(sums) != len(chars) {
		return false
	}
	for i, c := range chars {
		if c.Checksum() != sums[i] {
			return false
		}
	}
	return true
}
