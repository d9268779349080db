package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Key blob markers.
const (
	publicKeyStartMarker  = 0xFF
	publicKeyEndMarker    = 0x00
	sessionKeyStartMarker = 0xEE
	sessionKeyEndMarker   = 0x11
)

// SessionKeyBlobSize is the size of an exported session key blob:
// marker, 4-byte checksum, 32-byte key, 16-byte IV, 4-byte checksum, marker.
const SessionKeyBlobSize = 1 + 4 + AESCBCKeySize + AESCBCIVSize + 4 + 1

// PublicKeyChecksum computes the two-byte checksum of a public key body.
//
// All bytes are summed into a 64-bit accumulator; its 32-bit halves are
// XORed, the 16-bit halves of the result are added, and the 16-bit sum is
// returned as high and low bytes.
func PublicKeyChecksum(body []byte) (hi, lo byte) {
	var sum uint64
	for _, b := range body {
		sum += uint64(b)
	}
	folded := (sum >> 32) ^ (sum & 0xFFFFFFFF)
	folded = ((folded >> 16) + (folded & 0xFFFF)) & 0xFFFF
	return byte(folded >> 8), byte(folded)
}

// SealPublicKey wraps a DER public key as [0xFF, lo, body..., hi, 0x00].
func SealPublicKey(der []byte) []byte {
	hi, lo := PublicKeyChecksum(der)

	var b cryptobyte.Builder
	b.AddUint8(publicKeyStartMarker)
	b.AddUint8(lo)
	b.AddBytes(der)
	b.AddUint8(hi)
	b.AddUint8(publicKeyEndMarker)
	return b.BytesOrPanic()
}

// OpenPublicKey verifies the markers and checksum of a public key blob and
// returns its DER body.
func OpenPublicKey(blob []byte) ([]byte, error) {
	if len(blob) < 5 {
		return nil, fmt.Errorf("%w: public key blob of %d bytes", ErrInvalidBlob, len(blob))
	}

	s := cryptobyte.String(blob)
	var start, lo, hi, end uint8
	var body []byte
	if !s.ReadUint8(&start) || !s.ReadUint8(&lo) ||
		!s.ReadBytes(&body, len(blob)-4) ||
		!s.ReadUint8(&hi) || !s.ReadUint8(&end) || !s.Empty() {
		return nil, fmt.Errorf("%w: truncated public key blob", ErrInvalidBlob)
	}
	if start != publicKeyStartMarker || end != publicKeyEndMarker {
		return nil, fmt.Errorf("%w: public key markers %#02x/%#02x", ErrInvalidBlob, start, end)
	}

	wantHi, wantLo := PublicKeyChecksum(body)
	if hi != wantHi || lo != wantLo {
		return nil, ErrBlobChecksum
	}
	return copyBytes(body), nil
}

// SessionKeyChecksum computes the checksum pair of a session key and IV.
//
// Every key byte is added to a 64-bit accumulator; after each even index the
// accumulator is XORed with iv[i/2]. The result is split into 32-bit halves.
func SessionKeyChecksum(key, iv []byte) (hi, lo uint32) {
	var sum uint64
	for i := 0; i < len(key); i++ {
		sum += uint64(key[i])
		if i%2 == 0 && i/2 < len(iv) {
			sum ^= uint64(iv[i/2])
		}
	}
	return uint32(sum >> 32), uint32(sum)
}

// SealSessionKey wraps a session key and IV as
// [0xEE, lo32(LE), key, iv, hi32(LE), 0x11].
func SealSessionKey(key, iv []byte) ([]byte, error) {
	if len(key) != AESCBCKeySize {
		return nil, ErrAESCBCInvalidKeySize
	}
	if len(iv) != AESCBCIVSize {
		return nil, ErrAESCBCInvalidIVSize
	}
	hi, lo := SessionKeyChecksum(key, iv)

	var b cryptobyte.Builder
	b.AddUint8(sessionKeyStartMarker)
	b.AddBytes(binary.LittleEndian.AppendUint32(nil, lo))
	b.AddBytes(key)
	b.AddBytes(iv)
	b.AddBytes(binary.LittleEndian.AppendUint32(nil, hi))
	b.AddUint8(sessionKeyEndMarker)
	return b.Bytes()
}

// OpenSessionKey verifies the markers and checksum of a session key blob and
// returns the key and IV.
func OpenSessionKey(blob []byte) (key, iv []byte, err error) {
	if len(blob) != SessionKeyBlobSize {
		return nil, nil, fmt.Errorf("%w: session key blob of %d bytes, want %d", ErrInvalidBlob, len(blob), SessionKeyBlobSize)
	}

	s := cryptobyte.String(blob)
	var start, end uint8
	var loBytes, hiBytes []byte
	if !s.ReadUint8(&start) || !s.ReadBytes(&loBytes, 4) ||
		!s.ReadBytes(&key, AESCBCKeySize) || !s.ReadBytes(&iv, AESCBCIVSize) ||
		!s.ReadBytes(&hiBytes, 4) || !s.ReadUint8(&end) || !s.Empty() {
		return nil, nil, fmt.Errorf("%w: truncated session key blob", ErrInvalidBlob)
	}
	if start != sessionKeyStartMarker || end != sessionKeyEndMarker {
		return nil, nil, fmt.Errorf("%w: session key markers %#02x/%#02x", ErrInvalidBlob, start, end)
	}

	wantHi, wantLo := SessionKeyChecksum(key, iv)
	if binary.LittleEndian.Uint32(hiBytes) != wantHi || binary.LittleEndian.Uint32(loBytes) != wantLo {
		return nil, nil, ErrBlobChecksum
	}
	return copyBytes(key), copyBytes(iv), nil
}
