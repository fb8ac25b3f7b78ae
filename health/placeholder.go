package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/resolve"
)

// PlaceholderChecker resolves a placeholder for each destination of a store.
// Some destinations failing is degraded; all failing is unhealthy.
type PlaceholderChecker struct {
	resolver     resolve.SourceResolver
	store        string
	destinations []string
}

// NewPlaceholderChecker creates a checker for the given destinations.
func NewPlaceholderChecker(r resolve.SourceResolver, store string, destinations []string) *PlaceholderChecker {
	dests := append([]string(nil), destinations...)
	sort.Strings(dests)
	return &PlaceholderChecker{resolver: r, store: store, destinations: dests}
}

// Name implements Checker.
func (p *PlaceholderChecker) Name() string {
	return "placeholders"
}

// Check implements Checker.
func (p *PlaceholderChecker) Check(ctx context.Context) Result {
	if len(p.destinations) == 0 {
		return Healthy("no destinations configured")
	}

	details := make(map[string]any, len(p.destinations))
	var failed []string
	var firstErr error
	for _, dest := range p.destinations {
		if err := ctx.Err(); err != nil {
			return Unhealthy("context cancelled", err)
		}

		res, err := p.resolver.Resolve(ctx, resolve.Request{
			StoreID:     p.store,
			Destination: dest,
			Transform:   cache.DefaultTransform(),
		})
		if err != nil {
			failed = append(failed, dest)
			if firstErr == nil {
				firstErr = err
			}
			details[dest] = err.Error()
			continue
		}
		details[dest] = res.Tier.String() + " " + res.Source.AbsolutePath
	}

	switch {
	case len(failed) == 0:
		return Healthy(fmt.Sprintf("%d placeholders resolved", len(p.destinations))).WithDetails(details)
	case len(failed) < len(p.destinations):
		r := Degraded("placeholders missing: " + strings.Join(failed, ", ")).WithDetails(details)
		r.Error = firstErr
		return r
	default:
		return Unhealthy("no placeholder resolves", firstErr).WithDetails(details)
	}
}

var _ Checker = (*PlaceholderChecker)(nil)
