package share

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Share passwords are stored as hex SHA-256 digests, never as plaintext.
// Verification compares digests in constant time.

// HashPassword returns the hex SHA-256 digest of the plaintext password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether the plaintext password matches the
// stored digest.
func VerifyPassword(password, storedHash string) bool {
	digest := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}
