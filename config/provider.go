package config

import (
	"fmt"
	"sort"
)

// DefaultStoreID is the store scope used when none is configured.
const DefaultStoreID = "1"

// Well-known store configuration keys.
const (
	KeyDesignPackage = "design/package/name"
	KeyDesignTheme   = "design/theme/skin"
)

// PlaceholderKey returns the store configuration key naming the placeholder
// file for a destination, e.g. "catalog/placeholder/thumbnail_placeholder".
func PlaceholderKey(destination string) string {
	return fmt.Sprintf("catalog/placeholder/%s_placeholder", destination)
}

// Provider is a read-only store configuration lookup.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Lookup returns ("", false) for absent keys and never errors.
type Provider interface {
	Lookup(key string) (string, bool)
}

// MapProvider is a static Provider.
type MapProvider map[string]string

// Lookup returns the value for key. Empty values count as absent.
func (m MapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Keys returns the configured keys in sorted order.
func (m MapProvider) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Chain looks keys up in each provider in turn.
type Chain []Provider

// Lookup returns the first value found.
func (c Chain) Lookup(key string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, ok := p.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

var (
	_ Provider = MapProvider(nil)
	_ Provider = Chain(nil)
)
