package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	err := Wrap(ErrInvalidInput, "empty dataset")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "empty dataset: invalid input", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}

func TestIsThroughChain(t *testing.T) {
	err := Wrap(Wrap(ErrDerivation, "scrypt"), "derive key")
	assert.True(t, Is(err, ErrDerivation))
	assert.False(t, Is(err, ErrKeyGeneration))
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &customError{code: 42})

	var target *customError
	assert.True(t, As(wrapped, &target))
	assert.Equal(t, 42, target.code)
}

type customError struct {
	code int
}

func (c *customError) Error() string {
	return fmt.Sprintf("custom error %d", c.code)
}
