// Package password derives and verifies salted password hashes using scrypt.
// Hashes are stored as hex(salt)::hex(key), so the salt travels with the hash
// and no parameters need to be persisted separately.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16
	keyLength  = 64
	separator  = "::"

	// scrypt cost parameters. N is the CPU/memory cost; changing it
	// invalidates every stored hash, since the parameters are not encoded
	// into the stored value.
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// Hash derives a key from the password under a fresh random salt. Two calls
// with the same password never return the same string.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(salt) + separator + hex.EncodeToString(key), nil
}

// Verify re-derives the key using the salt embedded in stored and compares it
// to the stored key in constant time. Malformed stored values fail closed:
// the result is false, never an error.
func Verify(password, stored string) bool {
	saltHex, keyHex, found := strings.Cut(stored, separator)
	if !found || saltHex == "" || keyHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) == 0 {
		return false
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(expected))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, expected) == 1
}
