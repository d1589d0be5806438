package secrets

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripWithRawKey(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.Encrypt("abcd efgh ijkl mnop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "abcd")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh ijkl mnop", plain)
}

func TestRoundTripWithPassphrase(t *testing.T) {
	c, err := NewCipher("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := c.Encrypt("s3cret")
	require.NoError(t, err)

	again, err := NewCipher("correct horse battery staple")
	require.NoError(t, err)
	plain, err := again.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c, err := NewCipher("k")
	require.NoError(t, err)
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	a, _ := NewCipher("key one")
	b, _ := NewCipher("key two")
	sealed, err := a.Encrypt("pw")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptTamperedOrShort(t *testing.T) {
	c, _ := NewCipher("k")
	_, err := c.Decrypt("v1:" + base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	_, err = c.Decrypt("v1:not base64!")
	assert.Error(t, err)
}

func TestDecryptLegacyBase64(t *testing.T) {
	c, _ := NewCipher("k")
	plain, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("legacy-pass")))
	require.NoError(t, err)
	assert.Equal(t, "legacy-pass", plain)
}

func TestNewCipherRequiresKey(t *testing.T) {
	_, err := NewCipher("  ")
	assert.ErrorIs(t, err, ErrNoKey)
}
