package crypto

import "errors"

// AES-CBC errors.
var (
	ErrAESCBCInvalidKeySize   = errors.New("aescbc: invalid key size, must be 32 bytes")
	ErrAESCBCInvalidIVSize    = errors.New("aescbc: invalid IV size, must be 16 bytes")
	ErrAESCBCCiphertextLength = errors.New("aescbc: ciphertext is not a whole number of blocks")
	ErrInvalidPadding         = errors.New("aescbc: invalid PKCS#7 padding")
)

// Key blob errors. A blob that fails these checks must abort the session.
var (
	// ErrInvalidBlob is returned when a key blob has bad markers or length.
	ErrInvalidBlob = errors.New("crypto: invalid key blob")

	// ErrBlobChecksum is returned when a key blob checksum does not match its body.
	ErrBlobChecksum = errors.New("crypto: key blob checksum mismatch")
)

// Hybrid cipher errors.
var (
	// ErrNoPeerKey is returned when encrypting before a peer public key is imported.
	ErrNoPeerKey = errors.New("crypto: no peer public key")

	// ErrNoSessionKey is returned when enabling symmetric mode without session key material.
	ErrNoSessionKey = errors.New("crypto: no session key")

	// ErrKeyAlreadySet is returned when a peer or session key is set a second time.
	ErrKeyAlreadySet = errors.New("crypto: key already set")

	// ErrAlreadyEnabled is returned when symmetric mode is enabled twice.
	ErrAlreadyEnabled = errors.New("crypto: symmetric mode already enabled")

	// ErrMessageTooLong is returned when a plaintext exceeds the RSA-OAEP limit.
	ErrMessageTooLong = errors.New("crypto: message too long for RSA-OAEP")

	// ErrInvalidKeySize is returned for an RSA modulus below MinRSABits.
	ErrInvalidKeySize = errors.New("crypto: invalid RSA key size")
)
