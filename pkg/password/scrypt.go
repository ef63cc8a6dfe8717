package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// ScryptHasher implements Hasher using scrypt.
//
// The stored form is "<salt_hex>:<key_hex>". The hex-encoded salt string is
// itself the scrypt salt input, which keeps stored hashes interchangeable
// with records written by the original storefront implementation.
type ScryptHasher struct {
	// scrypt parameters
	n          int
	r          int
	p          int
	saltLength int
	keyLength  int
}

// NewScryptHasher creates a new ScryptHasher with default parameters
func NewScryptHasher() *ScryptHasher {
	return &ScryptHasher{
		n:          16384,
		r:          8,
		p:          1,
		saltLength: 16,
		keyLength:  64,
	}
}

// Hash implements Hasher.Hash
func (h *ScryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hexSalt := hex.EncodeToString(salt)

	key, err := scrypt.Key([]byte(password), []byte(hexSalt), h.n, h.r, h.p, h.keyLength)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return hexSalt + ":" + hex.EncodeToString(key), nil
}

// Verify implements Hasher.Verify
func (h *ScryptHasher) Verify(password, hashedPassword string) (bool, error) {
	if password == "" || hashedPassword == "" {
		return false, errors.New("password and hash cannot be empty")
	}

	parts := strings.Split(hashedPassword, ":")
	if len(parts) != 2 {
		return false, errors.New("invalid hash format")
	}

	storedKey, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, errors.New("invalid key encoding")
	}
	if len(storedKey) == 0 {
		return false, errors.New("invalid hash format")
	}

	derivedKey, err := scrypt.Key([]byte(password), []byte(parts[0]), h.n, h.r, h.p, len(storedKey))
	if err != nil {
		return false, fmt.Errorf("failed to derive key: %w", err)
	}

	return subtle.ConstantTimeCompare(storedKey, derivedKey) == 1, nil
}
