package wire

import (
	"fmt"

	"github.com/Agrael11/BSCP/pkg/bitcodec"
)

// Bit widths of the protocol values.
const (
	HandshakeWidth uint8 = 21
	VersionWidth   uint8 = 10
	NumberWidth    uint8 = 12
	CharacterWidth uint8 = 12
	StatusWidth    uint8 = 9
)

// MaxNumber is the largest value a Number can carry.
const MaxNumber = 1<<NumberWidth - 1

// JSONModeNumber is the number that switches the next string into a
// structured request.
const JSONModeNumber Number = 0x3C

// Handshake is a session control signal.
type Handshake uint32

const (
	HandshakeGoodbye       Handshake = 0
	HandshakeServerHello   Handshake = 13
	HandshakeSendingString Handshake = 39
	HandshakeSendingNumber Handshake = 42
	HandshakeClientHello   Handshake = 72
)

// String returns the signal name.
func (h Handshake) String() string {
	switch h {
	case HandshakeGoodbye:
		return "Goodbye"
	case HandshakeServerHello:
		return "ServerHello"
	case HandshakeSendingString:
		return "SendingString"
	case HandshakeSendingNumber:
		return "SendingNumber"
	case HandshakeClientHello:
		return "ClientHello"
	default:
		return fmt.Sprintf("Handshake(%d)", uint32(h))
	}
}

// IsValid reports whether h is a defined signal.
func (h Handshake) IsValid() bool {
	switch h {
	case HandshakeGoodbye, HandshakeServerHello, HandshakeSendingString,
		HandshakeSendingNumber, HandshakeClientHello:
		return true
	}
	return false
}

// Value returns the 21-bit wire value.
func (h Handshake) Value() bitcodec.Value {
	return bitcodec.NewValue(HandshakeWidth, uint64(h))
}

// ParseHandshake converts a decoded field into a signal.
func ParseHandshake(v bitcodec.Value) (Handshake, error) {
	if v.Width != HandshakeWidth {
		return 0, fmt.Errorf("%w: handshake has %d bits", ErrWidthMismatch, v.Width)
	}
	h := Handshake(v.Raw)
	if !h.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownHandshake, v.Raw)
	}
	return h, nil
}

// Status is the receiver's reply to a transmitted value.
type Status uint16

const (
	StatusUnknown Status = 0
	StatusSuccess Status = 1
	StatusFailure Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	default:
		return fmt.Sprintf("Status(%d)", uint16(s))
	}
}

// IsValid reports whether s is a defined status.
func (s Status) IsValid() bool {
	return s <= StatusFailure
}

// Value returns the 9-bit wire value.
func (s Status) Value() bitcodec.Value {
	return bitcodec.NewValue(StatusWidth, uint64(s))
}

// ParseStatus converts a decoded field into a status.
func ParseStatus(v bitcodec.Value) (Status, error) {
	if v.Width != StatusWidth {
		return 0, fmt.Errorf("%w: status has %d bits", ErrWidthMismatch, v.Width)
	}
	s := Status(v.Raw)
	if !s.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, v.Raw)
	}
	return s, nil
}

// Version identifies a protocol revision.
type Version uint16

// Value returns the 10-bit wire value.
func (v Version) Value() bitcodec.Value {
	return bitcodec.NewValue(VersionWidth, uint64(v))
}

// ParseVersion converts a decoded field into a version.
func ParseVersion(v bitcodec.Value) (Version, error) {
	if v.Width != VersionWidth {
		return 0, fmt.Errorf("%w: version has %d bits", ErrWidthMismatch, v.Width)
	}
	return Version(v.Raw), nil
}

// Number is a general purpose 12-bit unsigned integer.
type Number uint16

// NewNumber returns n reduced mod 4096.
func NewNumber(n int) Number {
	return Number(n & MaxNumber)
}

// Value returns the 12-bit wire value.
func (n Number) Value() bitcodec.Value {
	return bitcodec.NewValue(NumberWidth, uint64(n))
}

// ParseNumber converts a decoded field into a number.
func ParseNumber(v bitcodec.Value) (Number, error) {
	if v.Width != NumberWidth {
		return 0, fmt.Errorf("%w: number has %d bits", ErrWidthMismatch, v.Width)
	}
	return Number(v.Raw & MaxNumber), nil
}
