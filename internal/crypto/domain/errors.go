package domain

import (
	"github.com/allisson/privacy/internal/errors"
)

// Cryptographic operation error definitions.
var (
	// ErrKeySizeTooSmall indicates a requested RSA modulus below the 2048-bit floor.
	ErrKeySizeTooSmall = errors.Wrap(errors.ErrInvalidInput, "key size must be at least 2048 bits")

	// ErrEmptyPassword indicates derivation was requested for an empty password.
	ErrEmptyPassword = errors.Wrap(errors.ErrInvalidInput, "password must not be empty")

	// ErrInvalidScryptParams indicates the scrypt cost parameters were rejected
	// by the underlying primitive.
	ErrInvalidScryptParams = errors.Wrap(errors.ErrDerivation, "invalid scrypt parameters")

	// ErrInvalidPublicKey indicates a public key could not be parsed from PEM.
	ErrInvalidPublicKey = errors.Wrap(errors.ErrInvalidInput, "invalid public key")
)
