// Package secrets encrypts stored WordPress application passwords.
//
// Ciphertexts are written as "v1:" followed by base64(nonce || sealed) using
// XChaCha20-Poly1305. Values without the prefix are legacy rows that were
// only base64-encoded and are decoded as such.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const versionPrefix = "v1:"

// ErrNoKey is returned when no key material is configured.
var ErrNoKey = errors.New("no secret key configured")

// kdfSalt is fixed so the same passphrase always derives the same key.
var kdfSalt = []byte("bloggen/site-passwords/v1")

// Cipher seals and opens site passwords.
type Cipher struct {
	key []byte
}

// NewCipher builds a cipher from key material. A value that decodes from
// base64 to exactly 32 bytes is used directly; anything else is treated as
// a passphrase and stretched with Argon2id.
func NewCipher(material string) (*Cipher, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, ErrNoKey
	}
	if raw, err := base64.StdEncoding.DecodeString(material); err == nil && len(raw) == chacha20poly1305.KeySize {
		return &Cipher{key: raw}, nil
	}
	key := argon2.IDKey([]byte(material), kdfSalt, 1, 64*1024, 4, chacha20poly1305.KeySize)
	return &Cipher{key: key}, nil
}

// Encrypt seals a plaintext password.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored password.
func (c *Cipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, versionPrefix) {
		return DecodeLegacy(stored)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	return string(plain), nil
}

// DecodeLegacy decodes a password stored as plain base64.
func DecodeLegacy(stored string) (string, error) {
	plain, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decoding legacy password: %w", err)
	}
	return string(plain), nil
}
