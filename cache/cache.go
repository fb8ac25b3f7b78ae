package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 128

// Sentinel errors for cache key derivation.
var (
	ErrInvalidKey       = errors.New("cache: key is invalid")
	ErrKeyTooLong       = errors.New("cache: key exceeds max length")
	ErrInvalidTransform = errors.New("cache: transform is invalid")
)

// Key is the digest of a TransformSpec.
type Key string

// String returns the key text.
func (k Key) String() string {
	return string(k)
}

// ValidateKey checks that a key can be used as a path segment.
func ValidateKey(key Key) error {
	s := string(key)
	if s == "" || strings.TrimSpace(s) == "" {
		return ErrInvalidKey
	}
	if len(s) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(s, "/\\\n\r") || s == "." || s == ".." {
		return ErrInvalidKey
	}
	return nil
}
