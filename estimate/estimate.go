package estimate

import (
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/imagecache/storage"
)

// Policy holds the constants of the decode cost formula.
type Policy struct {
	// Overhead models fixed decoder overhead in bytes. Default: 65536
	Overhead uint64

	// Multiplier is the safety margin over the raw pixel buffer. Default: 1.65
	Multiplier float64

	// DefaultChannels is used when the header has no channel count. Default: 4
	DefaultChannels int

	// DefaultBits is used when the header has no bit depth. Default: 8
	DefaultBits int
}

// DefaultPolicy returns the policy existing deployments admit with.
func DefaultPolicy() Policy {
	return Policy{
		Overhead:        65536,
		Multiplier:      1.65,
		DefaultChannels: 4,
		DefaultBits:     8,
	}
}

// withDefaults returns DefaultPolicy for the zero value and fills any
// non-positive multiplier, channel or bit default.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p == (Policy{}) {
		return def
	}
	if p.Multiplier <= 0 {
		p.Multiplier = def.Multiplier
	}
	if p.DefaultChannels <= 0 {
		p.DefaultChannels = def.DefaultChannels
	}
	if p.DefaultBits <= 0 {
		p.DefaultBits = def.DefaultBits
	}
	return p
}

// Cost returns the estimated decode memory for h in bytes.
// Headers without both dimensions cost nothing. The result saturates at
// math.MaxUint64.
func (p Policy) Cost(h Header) uint64 {
	if h.Width <= 0 || h.Height <= 0 {
		return 0
	}

	channels := h.Channels
	if channels <= 0 {
		channels = p.DefaultChannels
	}
	bits := h.BitsPerChannel
	if bits <= 0 {
		bits = p.DefaultBits
	}

	raw := float64(h.Width) * float64(h.Height) * float64(bits) * float64(channels) / 8
	cost := math.Ceil((raw + float64(p.Overhead)) * p.Multiplier)
	switch {
	case cost >= math.MaxUint64:
		return math.MaxUint64
	case !(cost > 0):
		return 0
	}
	return uint64(cost)
}

// CostEstimator predicts decode memory for a file.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: never fails; unknown costs are zero.
type CostEstimator interface {
	Estimate(path string) uint64
}

// Estimator estimates decode cost from image headers.
type Estimator struct {
	fs     storage.FileSystem
	reader HeaderReader
	policy Policy
	group  singleflight.Group
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithPolicy sets the cost formula constants.
func WithPolicy(p Policy) Option {
	return func(e *Estimator) {
		e.policy = p.withDefaults()
	}
}

// WithHeaderReader replaces the image header reader.
func WithHeaderReader(r HeaderReader) Option {
	return func(e *Estimator) {
		e.reader = r
	}
}

// NewEstimator creates an estimator reading headers from fsys.
func NewEstimator(fsys storage.FileSystem, opts ...Option) *Estimator {
	e := &Estimator{
		fs:     fsys,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reader == nil {
		e.reader = NewImageHeaderReader(fsys)
	}
	return e
}

// Policy returns the policy in effect.
func (e *Estimator) Policy() Policy {
	return e.policy
}

// Estimate returns the predicted decode memory for path in bytes.
// Concurrent estimates for the same path share one header read.
func (e *Estimator) Estimate(path string) uint64 {
	if path == "" || !e.fs.IsRegularFile(path) {
		return 0
	}

	v, err, _ := e.group.Do(path, func() (any, error) {
		return e.reader.ReadHeader(path)
	})
	if err != nil {
		return 0
	}

	return e.policy.Cost(v.(Header))
}

var _ CostEstimator = (*Estimator)(nil)
