// AES-CBC implementation for BSCP bulk traffic.
// This implements AES-256-CBC as defined in NIST 800-38A Section 6.2 with
// PKCS#7 padding (RFC 5652 Section 6.3). Each message starts a fresh chain
// from the negotiated IV.

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
)

// AES-CBC constants.
const (
	// AESCBCKeySize is the AES-256 key size in bytes.
	AESCBCKeySize = 32

	// AESCBCIVSize is the IV size in bytes (one AES block).
	AESCBCIVSize = aes.BlockSize

	// AESBlockSize is the AES block size (always 16 bytes).
	AESBlockSize = aes.BlockSize
)

// AESCBC represents an AES-256-CBC cipher bound to one key and IV.
type AESCBC struct {
	block cipher.Block
	iv    []byte
}

// NewAESCBC creates a new AES-256-CBC cipher.
// The key must be exactly 32 bytes and the IV exactly 16 bytes.
func NewAESCBC(key, iv []byte) (*AESCBC, error) {
	if len(key) != AESCBCKeySize {
		return nil, ErrAESCBCInvalidKeySize
	}
	if len(iv) != AESCBCIVSize {
		return nil, ErrAESCBCInvalidIVSize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &AESCBC{block: block, iv: copyBytes(iv)}, nil
}

// PaddedLength returns the ciphertext length for n bytes of plaintext.
// PKCS#7 always adds padding, so a block-aligned input grows by a full block.
func (c *AESCBC) PaddedLength(n int) int {
	return (n/AESBlockSize + 1) * AESBlockSize
}

// Encrypt pads and encrypts plaintext.
func (c *AESCBC) Encrypt(plaintext []byte) []byte {
	padded := pkcs7Pad(plaintext, AESBlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(ciphertext, padded)
	return ciphertext
}

// Decrypt decrypts ciphertext and removes its padding.
func (c *AESCBC) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%AESBlockSize != 0 {
		return nil, ErrAESCBCCiphertextLength
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext, AESBlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	want := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(data[len(data)-n:], want) != 1 {
		return nil, ErrInvalidPadding
	}
	return data[:len(data)-n], nil
}

// AESCBCEncrypt is a convenience function for AES-256-CBC encryption.
func AESCBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	c, err := NewAESCBC(key, iv)
	if err != nil {
		return nil, err
	}
	return c.Encrypt(plaintext), nil
}

// AESCBCDecrypt is a convenience function for AES-256-CBC decryption.
func AESCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	c, err := NewAESCBC(key, iv)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(ciphertext)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
