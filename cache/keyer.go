package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// keySeparator joins the parameter fields before hashing.
const keySeparator = "_"

// Keyer derives a cache key from transform parameters.
//
// Contract:
// - Determinism: equal specs produce equal keys, on any platform and run.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Derive(spec TransformSpec) (Key, error)
}

// KeyDeriver hashes the parameter string of a TransformSpec.
type KeyDeriver struct {
	digest Digest
}

// KeyOption configures a KeyDeriver.
type KeyOption func(*KeyDeriver)

// WithDigest selects the digest. Default: MD5Digest.
func WithDigest(d Digest) KeyOption {
	return func(k *KeyDeriver) {
		if d != nil {
			k.digest = d
		}
	}
}

// NewKeyDeriver creates a key deriver.
func NewKeyDeriver(opts ...KeyOption) *KeyDeriver {
	k := &KeyDeriver{digest: MD5Digest{}}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Digest returns the digest in use.
func (k *KeyDeriver) Digest() Digest {
	return k.digest
}

// Params returns the string that is hashed for spec, e.g.
//
//	proportional_frame_transparency_notconstrainonly_ffffff_angle_quality90
//
// Watermark fields are appended in the order file, opacity, position,
// width, height when a watermark is present. Fields are joined with "_"
// unescaped. Only the file may contain "_"; Validate rejects a position
// that does.
func (k *KeyDeriver) Params(spec TransformSpec) string {
	params := []string{
		flag(spec.KeepAspectRatio, "", "non") + "proportional",
		flag(spec.KeepFrame, "", "no") + "frame",
		flag(spec.KeepTransparency, "", "no") + "transparency",
		flag(spec.ConstrainOnly, "do", "not") + "constrainonly",
		spec.Background.String(),
		"angle" + optional(spec.Angle),
		"quality" + strconv.Itoa(spec.Quality),
	}

	if w := spec.Watermark; w != nil {
		params = append(params,
			w.File,
			strconv.Itoa(w.Opacity),
			w.Position,
			optional(w.Width),
			optional(w.Height),
		)
	}

	return strings.Join(params, keySeparator)
}

// Derive validates spec and returns its key.
func (k *KeyDeriver) Derive(spec TransformSpec) (Key, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	key := Key(k.digest.Sum(k.Params(spec)))
	if err := ValidateKey(key); err != nil {
		return "", fmt.Errorf("cache: digest %s produced unusable key: %w", k.digest.Name(), err)
	}
	return key, nil
}

func flag(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

var _ Keyer = (*KeyDeriver)(nil)
