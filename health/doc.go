// Package health reports whether an image cache deployment can serve
// derivatives.
//
// Checkers report a Status (healthy, degraded, unhealthy). MemoryChecker
// compares live usage with the admission budget, so a degraded result means
// new decodes are about to fall back to placeholders. PlaceholderChecker
// verifies that every configured destination still resolves a placeholder,
// since a missing placeholder turns admission denials into errors.
//
// An Aggregator runs checkers concurrently and backs the HTTP handlers:
//
//	agg := health.NewAggregator()
//	agg.Register("memory", health.NewMemoryChecker(b, health.MemoryCheckerConfig{}))
//	agg.Register("placeholders", health.NewPlaceholderChecker(r, "1", dests))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health
package health
