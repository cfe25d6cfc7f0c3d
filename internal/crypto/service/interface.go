// Package service provides the key management services of the engine:
// RSA key pair generation with encrypted-at-rest private keys, scrypt
// password-based derivation, and public key fingerprinting.
package service

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/privacy/internal/crypto/domain"
)

// GenerateOptions controls key pair generation. Zero values fall back to
// the configured defaults.
type GenerateOptions struct {
	// KeySize is the RSA modulus size in bits. Must be >= 2048.
	KeySize int
}

// DeriveOptions controls password-based key derivation. Zero values fall
// back to the configured defaults; a nil Salt requests a random one.
type DeriveOptions struct {
	Salt        []byte
	Cost        int // scrypt N
	BlockSize   int // scrypt r
	Parallelism int // scrypt p
	KeyLength   int // output length in bytes
}

// KeyManager defines the interface for key generation and derivation.
type KeyManager interface {
	// GenerateKeyPair generates an RSA key pair. The private key is returned
	// encrypted under the resolved passphrase; public key and metadata are cached.
	GenerateKeyPair(ctx context.Context, opts GenerateOptions) (*cryptoDomain.KeyPair, error)

	// DeriveKey derives a key from a password using scrypt.
	DeriveKey(ctx context.Context, password string, opts DeriveOptions) (*cryptoDomain.DerivedKey, error)

	// Fingerprint computes the stable fingerprint of a PEM-encoded public key.
	Fingerprint(publicKeyPEM []byte) string

	// SweepExpired evicts expired and stale cache entries, returning the count.
	SweepExpired(now time.Time) int

	// CacheSize returns the number of cached key entries.
	CacheSize() int

	// KeysGenerated returns the total number of key pairs generated.
	KeysGenerated() uint64
}
