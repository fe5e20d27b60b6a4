package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinKeyLength = 16
	MaxKeyLength = 128
	KeyPrefix    = "idempotency"
)

var (
	ErrKeyTooShort = errors.New("idempotency key must be at least 16 characters")
	ErrKeyTooLong  = errors.New("idempotency key must not exceed 128 characters")
	ErrKeyInvalid  = errors.New("idempotency key contains invalid characters")

	validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
)

// Validate checks if the idempotency key is valid.
func Validate(key string) error {
	switch {
	case len(key) < MinKeyLength:
		return ErrKeyTooShort
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case !validKeyPattern.MatchString(key):
		return ErrKeyInvalid
	}

	return nil
}

// BuildCacheKey derives the storage key for a request. The method is
// normalized so "post" and "POST" share an entry.
func BuildCacheKey(method, path, idempotencyKey string) string {
	combined := fmt.Sprintf("%s:%s:%s", strings.ToUpper(method), path, idempotencyKey)
	hash := sha256.Sum256([]byte(combined))

	return fmt.Sprintf("%s:%s", KeyPrefix, hex.EncodeToString(hash[:]))
}

// LockKey returns the key guarding the in-flight request for cacheKey.
func LockKey(cacheKey string) string {
	return cacheKey + ":lock"
}

// Fingerprint hashes a request body so a key reused with a different payload can be detected.
func Fingerprint(body []byte) string {
	hash := sha256.Sum256(body)

	return hex.EncodeToString(hash[:])
}
