package directory

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordSaltLength = 16
	passwordKeyLength  = 32
	passwordIterations = 100_000
)

// HashPassword derives a salted PBKDF2-SHA256 hash for storage inside an
// Identity record. Hash and salt are hex-encoded.
func HashPassword(password string) (hash, salt string, err error) {
	saltBytes := make([]byte, passwordSaltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), saltBytes, passwordIterations, passwordKeyLength, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(saltBytes), nil
}

// VerifyPassword reports whether password matches the stored hash and salt.
// Comparison is constant-time.
func VerifyPassword(password, hash, salt string) bool {
	if hash == "" || salt == "" {
		return false
	}
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), saltBytes, passwordIterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
