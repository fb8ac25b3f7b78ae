package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/imagecache/budget"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the usage/limit ratio reported as degraded.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the usage/limit ratio reported as unhealthy.
	// Default: 0.95
	CriticalThreshold float64
}

// MemoryChecker compares the budget's current usage with its limit.
type MemoryChecker struct {
	budget budget.Budget
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a memory checker for b.
func NewMemoryChecker(b budget.Budget, config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &MemoryChecker{budget: b, config: config}
}

// Name implements Checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check implements Checker. Headroom is the largest decode cost the budget
// would still admit.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	limit := m.budget.Limit()
	usage := m.budget.CurrentUsage()
	details := map[string]any{
		"usage_bytes": usage,
		"limit":       limit.String(),
		"goroutines":  runtime.NumGoroutine(),
	}

	if limit.Unlimited {
		return Healthy("no memory limit").WithDetails(details)
	}
	if limit.Bytes == 0 {
		return Unhealthy("memory limit is zero", ErrCheckFailed).WithDetails(details)
	}

	ratio := float64(usage) / float64(limit.Bytes)
	details["limit_bytes"] = limit.Bytes
	details["usage_percent"] = ratio * 100
	var headroom uint64
	if usage < limit.Bytes {
		headroom = limit.Bytes - usage - 1
	}
	details["headroom_bytes"] = headroom

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%% of %s", ratio*100, limit), ErrCheckFailed).WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%% of %s", ratio*100, limit)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%% of %s", ratio*100, limit)).WithDetails(details)
	}
}

var _ Checker = (*MemoryChecker)(nil)
