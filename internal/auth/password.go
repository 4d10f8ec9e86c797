package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashRefresh returns the stored form of a refresh token. bcrypt only reads
// 72 bytes, so the token is reduced to its SHA-256 hex digest first.
func HashRefresh(token string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(refreshDigest(token)), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash refresh token: %w", err)
	}
	return string(hash), nil
}

// CheckRefresh compares a presented refresh token with the stored hash. A
// nil or empty stored hash never matches.
func CheckRefresh(stored *string, token string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*stored), []byte(refreshDigest(token))) == nil
}

func refreshDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
