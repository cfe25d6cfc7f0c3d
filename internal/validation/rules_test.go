package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/privacy/internal/errors"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"changeme", true},
		{"CHANGEME", true},
		{"  change-me  ", true},
		{"your-secret-here", true},
		{"a-real-secret-value-with-entropy", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPlaceholder(tt.value), tt.value)
	}
}

func TestSecretStrength(t *testing.T) {
	rule := SecretStrength{MinLength: 16}

	assert.NoError(t, rule.Validate("a-real-secret-value-with-entropy"))
	assert.Error(t, rule.Validate("short"))
	assert.Error(t, rule.Validate("changeme"))
	assert.Error(t, rule.Validate("   "))
	assert.Error(t, rule.Validate(42))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("value"))
	assert.Error(t, NotBlank.Validate("   "))
}

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, NoWhitespace.Validate("value"))
	assert.Error(t, NoWhitespace.Validate(" value "))
}

func TestWrapValidationError(t *testing.T) {
	err := WrapValidationError(NotBlank.Validate(""))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Nil(t, WrapValidationError(nil))
}
