package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes the parameter string into a key.
//
// Contract:
// - Determinism: the same input yields the same output on every platform.
// - Output is lowercase hex of a fixed length.
type Digest interface {
	Name() string
	Sum(params string) string
}

// MD5Digest produces 32 hex characters. Existing cache trees were written
// with it.
type MD5Digest struct{}

// Name returns "md5".
func (MD5Digest) Name() string { return "md5" }

// Sum returns the hex MD5 of params.
func (MD5Digest) Sum(params string) string {
	sum := md5.Sum([]byte(params))
	return hex.EncodeToString(sum[:])
}

// XXHashDigest produces 16 hex characters using xxHash64.
type XXHashDigest struct{}

// Name returns "xxhash".
func (XXHashDigest) Name() string { return "xxhash" }

// Sum returns the zero-padded hex xxHash64 of params.
func (XXHashDigest) Sum(params string) string {
	s := strconv.FormatUint(xxhash.Sum64String(params), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// DigestByName returns the digest registered under name.
// The empty name selects MD5Digest.
func DigestByName(name string) (Digest, bool) {
	switch name {
	case "", "md5":
		return MD5Digest{}, true
	case "xxhash":
		return XXHashDigest{}, true
	default:
		return nil, false
	}
}

var (
	_ Digest = MD5Digest{}
	_ Digest = XXHashDigest{}
)
