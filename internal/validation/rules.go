// Package validation provides custom validation rules for the engine.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/privacy/internal/errors"
)

// placeholderValues are secret values that ship in example configuration and
// must never reach a production deployment.
var placeholderValues = map[string]struct{}{
	"changeme":         {},
	"change-me":        {},
	"placeholder":      {},
	"secret":           {},
	"default":          {},
	"test-key":         {},
	"your-secret-here": {},
}

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// IsPlaceholder reports whether a secret value matches a known placeholder.
// The comparison is case-insensitive to catch CHANGEME style values.
func IsPlaceholder(value string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// SecretStrength validates that a configured secret is usable: non-empty,
// not a recognized placeholder, and at least MinLength characters long.
type SecretStrength struct {
	MinLength int
}

// Validate checks if the secret meets the configured requirements.
func (s SecretStrength) Validate(value interface{}) error {
	v, ok := value.(string)
	if !ok {
		return validation.NewError("validation_secret_type", "secret must be a string")
	}

	if strings.TrimSpace(v) == "" {
		return validation.NewError("validation_secret_blank", "secret must not be blank")
	}

	if IsPlaceholder(v) {
		return validation.NewError("validation_secret_placeholder", "secret is a known placeholder value")
	}

	if len(v) < s.MinLength {
		return validation.NewError("validation_secret_min_length", "secret is shorter than the required minimum")
	}

	return nil
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)
