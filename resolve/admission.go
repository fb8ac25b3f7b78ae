package resolve

import (
	"github.com/jonwraymond/imagecache/budget"
	"github.com/jonwraymond/imagecache/estimate"
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed   bool
	Unlimited bool
	Usage     uint64
	Estimate  uint64
	Limit     budget.Limit
}

// Admitter decides whether decoding the file at path may proceed.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Admit must not decode pixel data.
type Admitter interface {
	Admit(path string) Decision
}

// AdmitterFunc adapts a function to Admitter.
type AdmitterFunc func(path string) Decision

// Admit calls f(path).
func (f AdmitterFunc) Admit(path string) Decision {
	return f(path)
}

// AdmitAll admits every file.
var AdmitAll Admitter = AdmitterFunc(func(string) Decision {
	return Decision{Allowed: true, Unlimited: true, Limit: budget.Unlimited()}
})

// MemoryAdmission admits a file when the current usage plus its estimated
// decode cost stays strictly below the budget limit. An unlimited budget
// admits without estimating.
type MemoryAdmission struct {
	budget    budget.Budget
	estimator estimate.CostEstimator
}

// NewMemoryAdmission creates a memory admission policy.
func NewMemoryAdmission(b budget.Budget, e estimate.CostEstimator) *MemoryAdmission {
	return &MemoryAdmission{budget: b, estimator: e}
}

// Admit implements Admitter.
func (m *MemoryAdmission) Admit(path string) Decision {
	limit := m.budget.Limit()
	if limit.Unlimited {
		return Decision{Allowed: true, Unlimited: true, Limit: limit}
	}

	d := Decision{
		Usage:    m.budget.CurrentUsage(),
		Estimate: m.estimator.Estimate(path),
		Limit:    limit,
	}
	d.Allowed = limit.Allows(saturatingAdd(d.Usage, d.Estimate))
	return d
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

var (
	_ Admitter = (*MemoryAdmission)(nil)
	_ Admitter = AdmitterFunc(nil)
)
