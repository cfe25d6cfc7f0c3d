// Package random provides the uniform randomness sources backing noise
// generation and identifier creation.
//
// The secure source reads crypto/rand and is the default. The legacy source
// exists only for parity with deployments that predate the CSPRNG
// requirement and must never be used where randomness affects security.
package random

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"

	apperrors "github.com/allisson/privacy/internal/errors"
)

// Source produces uniform random values.
type Source interface {
	// Float64 returns a uniform random float64 in [0, 1).
	Float64() (float64, error)

	// Bytes returns n uniform random bytes.
	Bytes(n int) ([]byte, error)
}

type secureSource struct{}

// NewSecureSource creates a Source backed by the operating system CSPRNG.
func NewSecureSource() Source {
	return &secureSource{}
}

// Float64 derives a uniform float64 in [0, 1) from 8 secure random bytes.
func (s *secureSource) Float64() (float64, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return 0, apperrors.Wrap(err, "failed to read secure random bytes")
	}

	// Normalize the full 64-bit range to [0, 1).
	return float64(binary.BigEndian.Uint64(buf)) / (1 << 64), nil
}

// Bytes returns n bytes from the operating system CSPRNG.
func (s *secureSource) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, apperrors.Wrap(err, "failed to read secure random bytes")
	}
	return buf, nil
}

type legacySource struct {
	rng *mathrand.Rand
}

// NewLegacySource creates a non-cryptographic Source seeded from the given
// values. It reproduces the legacy noise mode and is unfit for anything
// security-sensitive.
func NewLegacySource(seed1, seed2 uint64) Source {
	return &legacySource{
		rng: mathrand.New(mathrand.NewPCG(seed1, seed2)),
	}
}

// Float64 returns a uniform float64 in [0, 1) from the seeded generator.
func (l *legacySource) Float64() (float64, error) {
	return l.rng.Float64(), nil
}

// Bytes returns n bytes from the seeded generator.
func (l *legacySource) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(l.rng.UintN(256))
	}
	return buf, nil
}
