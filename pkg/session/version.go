package session

import (
	"fmt"
	"io"

	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// Supported protocol versions.
const (
	// VersionPlain sends every field unencrypted.
	VersionPlain wire.Version = 1

	// VersionHybrid exchanges RSA keys and then encrypts every field with AES-256-CBC.
	VersionHybrid wire.Version = 2

	// DefaultVersion is used when a config leaves the version unset.
	DefaultVersion = VersionHybrid
)

// CheckVersion returns ErrUnsupportedVersion unless v is a version this
// package can speak.
func CheckVersion(v wire.Version) error {
	switch v {
	case VersionPlain, VersionHybrid:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

// needsKeyExchange reports whether v runs the key exchange stage.
func needsKeyExchange(v wire.Version) bool {
	return v == VersionHybrid
}

// newHybrid creates the per-connection cipher for protocol 2.
func newHybrid(bits int, rand io.Reader) (*crypto.Hybrid, error) {
	return crypto.NewHybrid(crypto.HybridConfig{Bits: bits, Rand: rand})
}
