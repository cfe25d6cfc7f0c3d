package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureSourceFloat64Range(t *testing.T) {
	source := NewSecureSource()

	for i := 0; i < 1000; i++ {
		v, err := source.Float64()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSecureSourceBytes(t *testing.T) {
	source := NewSecureSource()

	a, err := source.Bytes(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := source.Bytes(32)
	require.NoError(t, err)

	// 32 random bytes colliding would indicate a broken source.
	assert.NotEqual(t, a, b)
}

func TestLegacySourceIsDeterministic(t *testing.T) {
	a := NewLegacySource(1, 2)
	b := NewLegacySource(1, 2)

	for i := 0; i < 100; i++ {
		va, err := a.Float64()
		require.NoError(t, err)
		vb, err := b.Float64()
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}

func TestLegacySourceFloat64Range(t *testing.T) {
	source := NewLegacySource(7, 11)

	for i := 0; i < 1000; i++ {
		v, err := source.Float64()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
