package crypto

// Cipher transforms every field chunk a session puts on or reads from the wire.
type Cipher interface {
	// Encrypt transforms an outgoing chunk.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt for an incoming chunk.
	Decrypt(ciphertext []byte) ([]byte, error)

	// PaddedLength returns how many wire bytes carry a chunk of n plaintext bytes.
	PaddedLength(n int) int
}

// Plain is the identity Cipher used by protocol version 1.
type Plain struct{}

// Encrypt returns a copy of plaintext.
func (Plain) Encrypt(plaintext []byte) ([]byte, error) { return copyBytes(plaintext), nil }

// Decrypt returns a copy of ciphertext.
func (Plain) Decrypt(ciphertext []byte) ([]byte, error) { return copyBytes(ciphertext), nil }

// PaddedLength returns n.
func (Plain) PaddedLength(n int) int { return n }

var (
	_ Cipher = Plain{}
	_ Cipher = (*Hybrid)(nil)
)
