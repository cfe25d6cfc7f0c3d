// Package domain defines the cryptographic domain models of the engine.
//
// Key pairs are RSA with the private key exported encrypted at rest.
// Only public keys and metadata are ever cached; private key material is
// returned to the caller once and never retained.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Algorithm identifies a key algorithm.
type Algorithm string

const (
	// AlgorithmRSA is the asymmetric algorithm for generated key pairs.
	AlgorithmRSA Algorithm = "RSA"
	// AlgorithmScrypt is the password-based derivation algorithm.
	AlgorithmScrypt Algorithm = "scrypt"
)

// KeyMetadata describes a generated key pair without carrying private material.
type KeyMetadata struct {
	ID          uuid.UUID // Unique identifier (UUIDv7)
	Algorithm   Algorithm // Always AlgorithmRSA for generated pairs
	KeySizeBits int       // RSA modulus size in bits
	Fingerprint string    // First 16 hex chars of SHA-256 of the public key
	GeneratedAt time.Time
	ExpiresAt   time.Time // GeneratedAt + certificate expiry window
}

// KeyPair is the result of key pair generation. The private key PEM is
// encrypted at rest under the resolved passphrase.
type KeyPair struct {
	PublicKeyPEM           []byte // PKIX public key, PEM-encoded
	EncryptedPrivateKeyPEM []byte // PKCS#8 private key, AES-256-GCM encrypted, PEM-encoded
	Metadata               KeyMetadata
}

// CachedKey is the cache entry kept per generated key pair: public key and
// metadata only.
type CachedKey struct {
	PublicKeyPEM []byte
	Metadata     KeyMetadata
	CachedAt     time.Time
}

// DerivedKeyMetadata records the parameters used for a derivation so the
// caller can reproduce it.
type DerivedKeyMetadata struct {
	Algorithm   Algorithm // Always AlgorithmScrypt
	Cost        int       // scrypt N
	BlockSize   int       // scrypt r
	Parallelism int       // scrypt p
	KeyLength   int       // output length in bytes
}

// DerivedKey is the output of password-based key derivation. It is ephemeral:
// returned to the caller and never retained by the engine.
type DerivedKey struct {
	Key              []byte
	Salt             []byte
	Metadata         DerivedKeyMetadata
	VerificationHash string // SHA-256(key || salt), hex
}

// Expired reports whether the cached key is past its expiry at the given time.
func (c *CachedKey) Expired(now time.Time) bool {
	return c.Metadata.ExpiresAt.Before(now)
}
