package budget

import (
	"math"
	"runtime/debug"
	"testing"
)

func TestRuntimeBudget_ReadsLimitEachCall(t *testing.T) {
	value := "256M"
	b := NewRuntimeBudget(func() string { return value }, func() uint64 { return 42 })

	if got := b.Limit(); got.Bytes != 256*MiB {
		t.Fatalf("Limit() = %+v, want 256MiB", got)
	}

	value = "-1"
	if got := b.Limit(); !got.Unlimited {
		t.Fatalf("Limit() after change = %+v, want unlimited", got)
	}

	if got := b.CurrentUsage(); got != 42 {
		t.Errorf("CurrentUsage() = %d, want 42", got)
	}
}

func TestRuntimeBudget_Defaults(t *testing.T) {
	b := NewRuntimeBudget(nil, nil)

	if got := b.Limit(); got.Bytes != DefaultLimit {
		t.Errorf("Limit() = %+v, want default %d", got, DefaultLimit)
	}
	if got := b.CurrentUsage(); got == 0 {
		t.Error("CurrentUsage() from the runtime should be non-zero")
	}
}

func TestStaticBudget(t *testing.T) {
	b := StaticBudget{Ceiling: Bytes(10), Usage: 3}
	if b.Limit().Bytes != 10 || b.CurrentUsage() != 3 {
		t.Errorf("StaticBudget = %+v", b)
	}
}

func TestRuntimeMemoryLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(512 * int64(MiB))
	defer debug.SetMemoryLimit(prev)

	if got := RuntimeMemoryLimit(); got != "536870912" {
		t.Errorf("RuntimeMemoryLimit() = %q, want 536870912", got)
	}
	if got := LimitFromString(RuntimeMemoryLimit()); got.Bytes != 512*MiB {
		t.Errorf("parsed runtime limit = %+v", got)
	}

	debug.SetMemoryLimit(math.MaxInt64)
	if got := RuntimeMemoryLimit(); got != UnlimitedSentinel {
		t.Errorf("RuntimeMemoryLimit() without limit = %q, want -1", got)
	}
}
