// Package crypto encrypts sensitive donor fields before they reach storage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	keyLength   = 32
	nonceLength = 16
	tagLength   = 16
)

// ErrDecryption is returned when a blob is malformed, tampered with,
// or was sealed under a different key.
var ErrDecryption = errors.New("crypto: decryption failed")

// Cipher seals and opens short strings with AES-256-GCM.
// The sealed blob is base64(nonce || tag || ciphertext) so a single opaque
// string round-trips through storage.
type Cipher struct {
	key []byte
}

// NewCipher derives the encryption key from the configured secret.
// The secret must be at least 32 bytes long.
func NewCipher(secret string) (*Cipher, error) {
	if len(secret) < keyLength {
		return nil, fmt.Errorf("encryption secret must be at least %d characters", keyLength)
	}
	key := make([]byte, keyLength)
	copy(key, secret[:keyLength])
	return &Cipher{key: key}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (c *Cipher) Seal(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// gcm.Seal appends the tag after the ciphertext; the stored layout is
	// nonce || tag || ciphertext
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, nonceLength+tagLength+len(ct))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decrypts a blob produced by Seal. Any verification failure is
// reported as ErrDecryption; callers should degrade to a masked placeholder.
func (c *Cipher) Open(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrDecryption
	}
	if len(raw) < nonceLength+tagLength {
		return "", ErrDecryption
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := raw[:nonceLength]
	tag := raw[nonceLength : nonceLength+tagLength]
	ct := raw[nonceLength+tagLength:]

	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceLength)
}
