package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/imagecache/budget"
	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/observe"
)

// EnvPrefix prefixes environment overrides, e.g. IMAGECACHE_MEMORY_LIMIT.
const EnvPrefix = "IMAGECACHE"

// Settings configures a resolver deployment.
type Settings struct {
	// MediaDir is the media base directory holding sources, placeholders
	// and the cache tree.
	MediaDir string `mapstructure:"media_dir" yaml:"media_dir"`

	// SkinRoot is the root of the skin tree ({SkinRoot}/{area}/{package}/{theme}).
	SkinRoot string `mapstructure:"skin_root" yaml:"skin_root"`

	// StoreID scopes the cache tree and selects store overrides.
	StoreID string `mapstructure:"store_id" yaml:"store_id"`

	Design       DesignSettings            `mapstructure:"design" yaml:"design"`
	Memory       MemorySettings            `mapstructure:"memory" yaml:"memory"`
	Estimate     EstimateSettings          `mapstructure:"estimate" yaml:"estimate"`
	Cache        CacheSettings             `mapstructure:"cache" yaml:"cache"`
	Observe      ObserveSettings           `mapstructure:"observe" yaml:"observe"`
	Placeholders map[string]string         `mapstructure:"placeholders" yaml:"placeholders,omitempty"`
	Presets      map[string]PresetSettings `mapstructure:"presets" yaml:"presets,omitempty"`
	Stores       map[string]StoreSettings  `mapstructure:"stores" yaml:"stores,omitempty"`
}

// DesignSettings selects the skin package and theme.
type DesignSettings struct {
	Area    string `mapstructure:"area" yaml:"area"`
	Package string `mapstructure:"package" yaml:"package"`
	Theme   string `mapstructure:"theme" yaml:"theme"`
}

// MemorySettings configures the admission ceiling.
type MemorySettings struct {
	// Limit is "-1", a byte count, a K/M/G suffixed size, or "runtime" to
	// use the Go runtime soft memory limit. Anything else yields
	// budget.DefaultLimit.
	Limit string `mapstructure:"limit" yaml:"limit"`
}

// EstimateSettings overrides the decode cost formula.
type EstimateSettings struct {
	Overhead        uint64  `mapstructure:"overhead" yaml:"overhead"`
	Multiplier      float64 `mapstructure:"multiplier" yaml:"multiplier"`
	DefaultChannels int     `mapstructure:"default_channels" yaml:"default_channels"`
	DefaultBits     int     `mapstructure:"default_bits" yaml:"default_bits"`
}

// CacheSettings selects the key digest.
type CacheSettings struct {
	Digest string `mapstructure:"digest" yaml:"digest"`
}

// ObserveSettings mirrors observe.Config.
type ObserveSettings struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Version     string `mapstructure:"version" yaml:"version"`
	Tracing     struct {
		Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
		Exporter  string  `mapstructure:"exporter" yaml:"exporter"`
		SamplePct float64 `mapstructure:"sample_pct" yaml:"sample_pct"`
	} `mapstructure:"tracing" yaml:"tracing"`
	Metrics struct {
		Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
		Exporter string `mapstructure:"exporter" yaml:"exporter"`
	} `mapstructure:"metrics" yaml:"metrics"`
	Logging struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		Level   string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"logging" yaml:"logging"`
}

// StoreSettings overrides settings for one store.
type StoreSettings struct {
	Design       DesignSettings    `mapstructure:"design" yaml:"design"`
	Placeholders map[string]string `mapstructure:"placeholders" yaml:"placeholders,omitempty"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Settings {
	s := &Settings{
		StoreID: DefaultStoreID,
		Design: DesignSettings{
			Area:    "frontend",
			Package: "base",
			Theme:   "default",
		},
		Memory: MemorySettings{Limit: "128M"},
		Estimate: EstimateSettings{
			Overhead:        65536,
			Multiplier:      1.65,
			DefaultChannels: 4,
			DefaultBits:     8,
		},
		Cache: CacheSettings{Digest: "md5"},
	}
	s.Observe.ServiceName = "imagecache"
	s.Observe.Logging.Enabled = true
	s.Observe.Logging.Level = "info"
	return s
}

// setDefaults registers every key with viper so environment overrides apply
// even without a file.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("media_dir", d.MediaDir)
	v.SetDefault("skin_root", d.SkinRoot)
	v.SetDefault("store_id", d.StoreID)
	v.SetDefault("design.area", d.Design.Area)
	v.SetDefault("design.package", d.Design.Package)
	v.SetDefault("design.theme", d.Design.Theme)
	v.SetDefault("memory.limit", d.Memory.Limit)
	v.SetDefault("estimate.overhead", d.Estimate.Overhead)
	v.SetDefault("estimate.multiplier", d.Estimate.Multiplier)
	v.SetDefault("estimate.default_channels", d.Estimate.DefaultChannels)
	v.SetDefault("estimate.default_bits", d.Estimate.DefaultBits)
	v.SetDefault("cache.digest", d.Cache.Digest)
	v.SetDefault("observe.service_name", d.Observe.ServiceName)
	v.SetDefault("observe.version", d.Observe.Version)
	v.SetDefault("observe.tracing.enabled", d.Observe.Tracing.Enabled)
	v.SetDefault("observe.tracing.exporter", d.Observe.Tracing.Exporter)
	v.SetDefault("observe.tracing.sample_pct", d.Observe.Tracing.SamplePct)
	v.SetDefault("observe.metrics.enabled", d.Observe.Metrics.Enabled)
	v.SetDefault("observe.metrics.exporter", d.Observe.Metrics.Exporter)
	v.SetDefault("observe.logging.enabled", d.Observe.Logging.Enabled)
	v.SetDefault("observe.logging.level", d.Observe.Logging.Level)
}

// Load reads settings from path (optional), the environment and defaults,
// expands directory settings and validates the result.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	var err error
	if s.MediaDir, err = expandDir("media_dir", s.MediaDir); err != nil {
		return nil, err
	}
	if s.SkinRoot, err = expandDir("skin_root", s.SkinRoot); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes s to path as YAML, creating parent directories.
func Save(s *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks required directories and value ranges. The memory limit
// is not checked: an empty or unparseable limit falls back to
// budget.DefaultLimit when the budget reads it.
func (s *Settings) Validate() error {
	var problems []string

	if s.MediaDir == "" {
		problems = append(problems, "media_dir is required")
	}
	if s.SkinRoot == "" {
		problems = append(problems, "skin_root is required")
	}
	if s.StoreID == "" || strings.ContainsAny(s.StoreID, `/\`) {
		problems = append(problems, fmt.Sprintf("store_id %q is invalid", s.StoreID))
	}
	if s.Estimate.Multiplier < 0 {
		problems = append(problems, "estimate.multiplier must not be negative")
	}
	if _, ok := cache.DigestByName(s.Cache.Digest); !ok {
		problems = append(problems, fmt.Sprintf("cache.digest %q is unknown", s.Cache.Digest))
	}
	obs := s.ObserveConfig()
	if err := obs.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("observe: %v", err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// LimitSource returns the memory limit source for these settings.
func (s *Settings) LimitSource() budget.LimitSource {
	if s.Memory.Limit == "runtime" {
		return budget.RuntimeMemoryLimit
	}
	return budget.StaticLimit(s.Memory.Limit)
}

// Digest returns the configured key digest.
func (s *Settings) Digest() cache.Digest {
	d, ok := cache.DigestByName(s.Cache.Digest)
	if !ok {
		return cache.MD5Digest{}
	}
	return d
}

// ObserveConfig converts the observe settings.
func (s *Settings) ObserveConfig() observe.Config {
	o := s.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
		},
		Attributes: map[string]string{
			observe.AttrDefaultStore: s.StoreID,
		},
	}
}

// Destinations returns every destination with a configured placeholder,
// across the default scope and storeID's overrides.
func (s *Settings) Destinations(storeID string) []string {
	set := make(map[string]bool)
	for dest := range s.Placeholders {
		set[dest] = true
	}
	for dest := range s.Stores[storeID].Placeholders {
		set[dest] = true
	}
	dests := make([]string, 0, len(set))
	for dest := range set {
		dests = append(dests, dest)
	}
	sort.Strings(dests)
	return dests
}

// StoreConfig returns the store configuration Provider for storeID: store
// overrides first, then the default scope.
func (s *Settings) StoreConfig(storeID string) Provider {
	defaults := MapProvider{
		KeyDesignPackage: s.Design.Package,
		KeyDesignTheme:   s.Design.Theme,
	}
	for dest, file := range s.Placeholders {
		defaults[PlaceholderKey(dest)] = file
	}

	store, ok := s.Stores[storeID]
	if !ok {
		return defaults
	}

	overrides := MapProvider{
		KeyDesignPackage: store.Design.Package,
		KeyDesignTheme:   store.Design.Theme,
	}
	for dest, file := range store.Placeholders {
		overrides[PlaceholderKey(dest)] = file
	}
	return Chain{overrides, defaults}
}
