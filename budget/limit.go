package budget

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Byte multipliers for limit suffixes.
const (
	KiB uint64 = 1024
	MiB        = 1024 * KiB
	GiB        = 1024 * MiB
)

// DefaultLimit is used when the configured limit is empty or unparseable.
const DefaultLimit uint64 = 128 * MiB

// UnlimitedSentinel disables admission checks when used as the limit string.
const UnlimitedSentinel = "-1"

// Limit is a memory ceiling in bytes, or the unlimited marker.
type Limit struct {
	Bytes     uint64
	Unlimited bool
}

// Unlimited returns the unlimited marker.
func Unlimited() Limit {
	return Limit{Unlimited: true}
}

// Bytes returns a finite limit of n bytes.
func Bytes(n uint64) Limit {
	return Limit{Bytes: n}
}

// Allows reports whether total is strictly below the limit.
// An unlimited limit allows everything.
func (l Limit) Allows(total uint64) bool {
	if l.Unlimited {
		return true
	}
	return total < l.Bytes
}

// String returns the limit in the form accepted by ParseLimit.
func (l Limit) String() string {
	if l.Unlimited {
		return UnlimitedSentinel
	}
	switch {
	case l.Bytes != 0 && l.Bytes%GiB == 0:
		return strconv.FormatUint(l.Bytes/GiB, 10) + "G"
	case l.Bytes != 0 && l.Bytes%MiB == 0:
		return strconv.FormatUint(l.Bytes/MiB, 10) + "M"
	case l.Bytes != 0 && l.Bytes%KiB == 0:
		return strconv.FormatUint(l.Bytes/KiB, 10) + "K"
	default:
		return strconv.FormatUint(l.Bytes, 10)
	}
}

// limitPattern matches an integer followed by an optional K/M/G suffix,
// optionally followed by B ("256M", "256MB", "1024").
var limitPattern = regexp.MustCompile(`^(\d+)\s*([KMG]?)B?$`)

var unitMultipliers = map[string]uint64{
	"":  1,
	"K": KiB,
	"M": MiB,
	"G": GiB,
}

// ParseLimit parses a configured memory limit.
//
// "-1" returns Unlimited. A number without a suffix is raw bytes. Suffixes
// are case-insensitive.
func ParseLimit(s string) (Limit, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Limit{}, ErrEmptyLimit
	}
	if s == UnlimitedSentinel {
		return Unlimited(), nil
	}

	matches := limitPattern.FindStringSubmatch(s)
	if matches == nil {
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}

	n, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}

	multiplier := unitMultipliers[matches[2]]
	if n > math.MaxUint64/multiplier {
		return Limit{}, fmt.Errorf("%w: %q overflows", ErrInvalidLimit, s)
	}

	return Bytes(n * multiplier), nil
}

// LimitFromString parses s and falls back to DefaultLimit on any error.
func LimitFromString(s string) Limit {
	limit, err := ParseLimit(s)
	if err != nil {
		return Bytes(DefaultLimit)
	}
	return limit
}
