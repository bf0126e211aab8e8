package password_test

import (
	"strings"
	"testing"

	"github.com/remi/auth-api/internal/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("correcthorsebattery")
	require.NoError(t, err)

	assert.True(t, password.Verify("correcthorsebattery", hash))
	assert.False(t, password.Verify("wrongpassword", hash))
	assert.False(t, password.Verify("", hash))
}

func TestHashUsesFreshSalt(t *testing.T) {
	first, err := password.Hash("password123")
	require.NoError(t, err)
	second, err := password.Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.True(t, password.Verify("password123", first))
	assert.True(t, password.Verify("password123", second))
}

func TestHashFormat(t *testing.T) {
	hash, err := password.Hash("password123")
	require.NoError(t, err)

	parts := strings.Split(hash, "::")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32, "16-byte salt, hex encoded")
	assert.Len(t, parts[1], 128, "64-byte key, hex encoded")
}

func TestVerifyFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{name: "empty", stored: ""},
		{name: "missing separator", stored: "abcdef0123456789"},
		{name: "missing key", stored: "abcdef0123456789::"},
		{name: "missing salt", stored: "::abcdef0123456789"},
		{name: "salt not hex", stored: "zzzz::abcdef0123456789"},
		{name: "key not hex", stored: "abcdef0123456789::zzzz"},
		{name: "single colon separator", stored: "abcdef:abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, password.Verify("password123", tt.stored))
		})
	}
}
