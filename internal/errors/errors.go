// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by services
// and inspected by callers through errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors shared across all engine modules.
var (
	// ErrConfiguration indicates the engine configuration is invalid or a
	// required secret is missing. Fatal at startup in production mode.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrKeyGeneration indicates an asymmetric key pair could not be generated.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrDerivation indicates password-based key derivation failed, usually
	// because the underlying primitive rejected the cost parameters.
	ErrDerivation = errors.New("key derivation failed")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
