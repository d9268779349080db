package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
)

// RSA key sizes.
const (
	// DefaultRSABits is the modulus size used when HybridConfig.Bits is zero.
	DefaultRSABits = 3072

	// MinRSABits is the smallest modulus accepted by NewHybrid.
	MinRSABits = 1024
)

// oaepOverhead is the RSA-OAEP-SHA256 per-message overhead in bytes.
const oaepOverhead = 2*sha256.Size + 2

// Mode is the encryption mode of a Hybrid cipher.
type Mode uint8

const (
	// ModeDisabled means no peer public key has been imported yet.
	ModeDisabled Mode = iota
	// ModeAsymmetric encrypts to the peer public key with RSA-OAEP.
	ModeAsymmetric
	// ModeSymmetric uses the negotiated AES-256-CBC session key.
	ModeSymmetric
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "Disabled"
	case ModeAsymmetric:
		return "Asymmetric"
	case ModeSymmetric:
		return "Symmetric"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// HybridConfig configures a Hybrid cipher.
type HybridConfig struct {
	// Bits is the RSA modulus size. Zero selects DefaultRSABits.
	Bits int

	// Rand is the entropy source. Nil selects crypto/rand.
	Rand io.Reader
}

// Hybrid is a per-connection cipher that encrypts with RSA-OAEP until the
// session key is enabled, then switches permanently to AES-256-CBC.
//
// Hybrid is not safe for concurrent use; a session owns exactly one.
type Hybrid struct {
	rand    io.Reader
	private *rsa.PrivateKey
	peer    *rsa.PublicKey

	sessionKey []byte
	sessionIV  []byte
	aes        *AESCBC
}

// NewHybrid generates a fresh RSA key pair and returns a cipher in ModeDisabled.
func NewHybrid(config HybridConfig) (*Hybrid, error) {
	bits := config.Bits
	if bits == 0 {
		bits = DefaultRSABits
	}
	if bits < MinRSABits {
		return nil, fmt.Errorf("%w: %d bits, minimum %d", ErrInvalidKeySize, bits, MinRSABits)
	}
	r := config.Rand
	if r == nil {
		r = rand.Reader
	}

	private, err := rsa.GenerateKey(r, bits)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate RSA key: %w", err)
	}
	return &Hybrid{rand: r, private: private}, nil
}

// Mode returns the current encryption mode.
func (h *Hybrid) Mode() Mode {
	switch {
	case h.aes != nil:
		return ModeSymmetric
	case h.peer != nil:
		return ModeAsymmetric
	default:
		return ModeDisabled
	}
}

// KeySize returns the local RSA modulus size in bytes.
func (h *Hybrid) KeySize() int {
	return h.private.Size()
}

// MaxMessageLen returns the largest plaintext accepted by Encrypt before
// symmetric mode, or zero when no peer key is present.
func (h *Hybrid) MaxMessageLen() int {
	if h.peer == nil {
		return 0
	}
	return h.peer.Size() - oaepOverhead
}

// ExportPublicKey returns the local public key as a checksummed blob.
func (h *Hybrid) ExportPublicKey() []byte {
	return SealPublicKey(x509.MarshalPKCS1PublicKey(&h.private.PublicKey))
}

// ImportPeerPublicKey verifies and installs the peer public key blob.
// The peer key can only be set once.
func (h *Hybrid) ImportPeerPublicKey(blob []byte) error {
	if h.peer != nil {
		return fmt.Errorf("%w: peer public key", ErrKeyAlreadySet)
	}
	der, err := OpenPublicKey(blob)
	if err != nil {
		return err
	}
	peer, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	h.peer = peer
	return nil
}

// ExportSessionKey generates a fresh AES-256 key and IV and returns them as
// a checksummed blob. The blob is not encrypted.
func (h *Hybrid) ExportSessionKey() ([]byte, error) {
	if h.sessionKey != nil {
		return nil, fmt.Errorf("%w: session key", ErrKeyAlreadySet)
	}
	key := make([]byte, AESCBCKeySize)
	iv := make([]byte, AESCBCIVSize)
	if _, err := io.ReadFull(h.rand, key); err != nil {
		return nil, fmt.Errorf("crypto: generate session key: %w", err)
	}
	if _, err := io.ReadFull(h.rand, iv); err != nil {
		return nil, fmt.Errorf("crypto: generate session IV: %w", err)
	}

	blob, err := SealSessionKey(key, iv)
	if err != nil {
		return nil, err
	}
	h.sessionKey, h.sessionIV = key, iv
	return blob, nil
}

// ImportSessionKey verifies and installs a session key blob received from the peer.
func (h *Hybrid) ImportSessionKey(blob []byte) error {
	if h.sessionKey != nil {
		return fmt.Errorf("%w: session key", ErrKeyAlreadySet)
	}
	key, iv, err := OpenSessionKey(blob)
	if err != nil {
		return err
	}
	h.sessionKey, h.sessionIV = key, iv
	return nil
}

// EnableSymmetric switches to AES-256-CBC. The switch happens once and is
// never undone.
func (h *Hybrid) EnableSymmetric() error {
	if h.aes != nil {
		return ErrAlreadyEnabled
	}
	if h.sessionKey == nil {
		return ErrNoSessionKey
	}
	c, err := NewAESCBC(h.sessionKey, h.sessionIV)
	if err != nil {
		return err
	}
	h.aes = c
	return nil
}

// Encrypt encrypts plaintext with the session key, or with the peer public
// key before symmetric mode.
func (h *Hybrid) Encrypt(plaintext []byte) ([]byte, error) {
	if h.aes != nil {
		return h.aes.Encrypt(plaintext), nil
	}
	if h.peer == nil {
		return nil, ErrNoPeerKey
	}
	if len(plaintext) > h.MaxMessageLen() {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLong, len(plaintext), h.MaxMessageLen())
	}
	return rsa.EncryptOAEP(sha256.New(), h.rand, h.peer, plaintext, nil)
}

// Decrypt decrypts ciphertext with the session key, or with the local
// private key before symmetric mode.
func (h *Hybrid) Decrypt(ciphertext []byte) ([]byte, error) {
	if h.aes != nil {
		return h.aes.Decrypt(ciphertext)
	}
	return rsa.DecryptOAEP(sha256.New(), nil, h.private, ciphertext, nil)
}

// PaddedLength returns the ciphertext length for n plaintext bytes. Before
// symmetric mode every ciphertext is one RSA block of the local key size.
func (h *Hybrid) PaddedLength(n int) int {
	if h.aes != nil {
		return h.aes.PaddedLength(n)
	}
	return h.KeySize()
}
