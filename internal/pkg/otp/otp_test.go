package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.True(t, Valid(code), code)
	}
}

func TestHashCompare(t *testing.T) {
	h, err := Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", h)
	assert.True(t, Compare(h, "123456"))
	assert.False(t, Compare(h, "654321"))
	assert.False(t, Compare("not-a-hash", "123456"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("000000"))
	assert.False(t, Valid("12345"))
	assert.False(t, Valid("1234567"))
	assert.False(t, Valid("12a456"))
	assert.False(t, Valid(""))
}
