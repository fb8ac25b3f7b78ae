package budget

import (
	"math"
	"runtime"
	"runtime/debug"
	"strconv"
)

// Budget reports the memory ceiling and the current usage.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - CurrentUsage is a shared snapshot; concurrent callers may see equal usage.
type Budget interface {
	// Limit returns the memory ceiling.
	Limit() Limit

	// CurrentUsage returns the live allocated bytes at call time.
	CurrentUsage() uint64
}

// LimitSource returns the raw, unit-suffixed limit string.
type LimitSource func() string

// UsageSource returns the live allocated bytes.
type UsageSource func() uint64

// StaticLimit returns a LimitSource that always yields s.
func StaticLimit(s string) LimitSource {
	return func() string { return s }
}

// HeapAlloc reads the live heap allocation from the Go runtime.
func HeapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// RuntimeBudget reads its limit string on every call and its usage from the
// Go runtime unless another UsageSource is given.
type RuntimeBudget struct {
	limit LimitSource
	usage UsageSource
}

// NewRuntimeBudget creates a budget. A nil usage source uses HeapAlloc; a nil
// limit source yields DefaultLimit.
func NewRuntimeBudget(limit LimitSource, usage UsageSource) *RuntimeBudget {
	if limit == nil {
		limit = StaticLimit("")
	}
	if usage == nil {
		usage = HeapAlloc
	}
	return &RuntimeBudget{limit: limit, usage: usage}
}

// Limit parses the configured limit string.
func (b *RuntimeBudget) Limit() Limit {
	return LimitFromString(b.limit())
}

// CurrentUsage returns the live allocated bytes.
func (b *RuntimeBudget) CurrentUsage() uint64 {
	return b.usage()
}

// StaticBudget is a fixed budget.
type StaticBudget struct {
	Ceiling Limit
	Usage   uint64
}

// Limit returns the fixed ceiling.
func (b StaticBudget) Limit() Limit {
	return b.Ceiling
}

// CurrentUsage returns the fixed usage.
func (b StaticBudget) CurrentUsage() uint64 {
	return b.Usage
}

var (
	_ Budget = (*RuntimeBudget)(nil)
	_ Budget = StaticBudget{}
)

// RuntimeMemoryLimit reports the Go runtime soft memory limit (GOMEMLIMIT)
// as a limit string. An unset runtime limit yields the unlimited sentinel.
func RuntimeMemoryLimit() string {
	n := debug.SetMemoryLimit(-1)
	if n == math.MaxInt64 {
		return UnlimitedSentinel
	}
	return strconv.FormatInt(n, 10)
}
