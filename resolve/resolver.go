package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/imagecache/budget"
	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/config"
	"github.com/jonwraymond/imagecache/estimate"
	"github.com/jonwraymond/imagecache/observe"
	"github.com/jonwraymond/imagecache/storage"
)

// NoSelection is the requested path meaning "no file provided".
const NoSelection = "/no_selection"

const (
	configPlaceholderDir = "/placeholder/"
	skinPlaceholderDir   = "/images/catalog/product/placeholder/"
	skinPlaceholderExt   = ".jpg"
)

// Tier identifies where the resolved source came from.
type Tier int

const (
	TierSource           Tier = iota // the requested file
	TierConfig                       // store configured placeholder
	TierSkinTheme                    // current theme skin placeholder
	TierSkinDefaultTheme             // default theme skin placeholder
	TierSkinBase                     // base package skin placeholder
)

func (t Tier) String() string {
	switch t {
	case TierConfig:
		return "placeholder_config"
	case TierSkinTheme:
		return "placeholder_skin"
	case TierSkinDefaultTheme:
		return "placeholder_default_theme"
	case TierSkinBase:
		return "placeholder_base"
	default:
		return "source"
	}
}

// AdmissionOutcome records how the requested source passed or failed
// admission.
type AdmissionOutcome int

const (
	AdmissionSkipped  AdmissionOutcome = iota // no file, or the file is missing
	AdmissionCacheHit                         // derivative already cached
	AdmissionGranted
	AdmissionDenied
)

func (a AdmissionOutcome) String() string {
	switch a {
	case AdmissionCacheHit:
		return "cache_hit"
	case AdmissionGranted:
		return "granted"
	case AdmissionDenied:
		return "denied"
	default:
		return "skipped"
	}
}

// Request asks for the source of one derivative.
type Request struct {
	// Path is relative to the media directory. A missing leading slash is
	// added; NoSelection and "" mean no file.
	Path string

	// StoreID selects the store scope. Empty uses the resolver's store.
	StoreID string

	// Destination is the image category, e.g. "thumbnail".
	Destination string

	Transform cache.TransformSpec
}

// SourceImage is the file a derivative is rendered from.
type SourceImage struct {
	AbsolutePath  string
	RelativePath  string
	IsPlaceholder bool
}

// Resolution is the result of a successful Resolve.
type Resolution struct {
	Source SourceImage

	// CachePath is where the render pipeline finds or writes the derivative.
	// Skin placeholders are cached under their skin directory, everything
	// else under the media directory.
	CachePath string

	Key         cache.Key
	StoreID     string
	Destination string
	Tier        Tier
	Admission   AdmissionOutcome

	// Decision is set when the admitter was consulted.
	Decision Decision
}

// Outcome summarizes the resolution for telemetry.
func (r Resolution) Outcome() string {
	if r.Source.IsPlaceholder {
		return r.Tier.String()
	}
	if r.Admission == AdmissionCacheHit {
		return "cache_hit"
	}
	return "source"
}

// SourceResolver resolves derivative requests.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: ErrSourceNotFound when no file or placeholder exists.
// - Errors: transforms failing validation return cache.ErrInvalidTransform.
type SourceResolver interface {
	Resolve(ctx context.Context, req Request) (Resolution, error)
}

// Resolver is the filesystem backed SourceResolver.
type Resolver struct {
	mediaDir  string
	store     string
	fs        storage.FileSystem
	keyer     cache.Keyer
	paths     *cache.PathResolver
	admitter  Admitter
	skins     SkinLocator
	configFor func(storeID string) config.Provider
	logger    observe.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStore sets the default store scope.
func WithStore(id string) Option {
	return func(r *Resolver) {
		if id != "" {
			r.store = id
		}
	}
}

// WithKeyer sets the cache key deriver.
func WithKeyer(k cache.Keyer) Option {
	return func(r *Resolver) {
		if k != nil {
			r.keyer = k
		}
	}
}

// WithAdmitter replaces the memory admission policy.
func WithAdmitter(a Admitter) Option {
	return func(r *Resolver) {
		if a != nil {
			r.admitter = a
		}
	}
}

// WithSkins sets the skin locator used for skin placeholders.
func WithSkins(s SkinLocator) Option {
	return func(r *Resolver) {
		if s != nil {
			r.skins = s
		}
	}
}

// WithConfig uses p as the configuration of every store.
func WithConfig(p config.Provider) Option {
	return func(r *Resolver) {
		r.configFor = func(string) config.Provider { return p }
	}
}

// WithStoreConfig looks up store configuration per request store.
func WithStoreConfig(fn func(storeID string) config.Provider) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.configFor = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver for sources under mediaDir. Without WithAdmitter,
// admission uses the Go runtime heap against the default 128 MiB limit.
func New(mediaDir string, fsys storage.FileSystem, opts ...Option) *Resolver {
	if fsys == nil {
		fsys = storage.OSFileSystem{}
	}
	r := &Resolver{
		mediaDir:  strings.TrimRight(mediaDir, "/"),
		store:     config.DefaultStoreID,
		fs:        fsys,
		keyer:     cache.NewKeyDeriver(),
		paths:     cache.NewPathResolver(),
		skins:     Design{},
		configFor: func(string) config.Provider { return config.MapProvider{} },
		logger:    observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.admitter == nil {
		r.admitter = NewMemoryAdmission(
			budget.NewRuntimeBudget(nil, nil),
			estimate.NewEstimator(r.fs),
		)
	}
	return r
}

// MediaDir returns the media base directory.
func (r *Resolver) MediaDir() string { return r.mediaDir }

// StoreID returns the default store scope.
func (r *Resolver) StoreID() string { return r.store }

// NormalizePath adds a leading slash and maps NoSelection to "".
func NormalizePath(p string) string {
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p == NoSelection {
		return ""
	}
	return p
}

// Resolve implements SourceResolver.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	key, err := r.keyer.Derive(req.Transform)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		Key:         key,
		StoreID:     req.StoreID,
		Destination: req.Destination,
	}
	if res.StoreID == "" {
		res.StoreID = r.store
	}
	params := cache.PathParams{
		BaseDir:     r.mediaDir,
		StoreID:     res.StoreID,
		Destination: req.Destination,
		Width:       req.Transform.Width,
		Height:      req.Transform.Height,
		Key:         key,
	}

	if file := NormalizePath(req.Path); file != "" {
		params.RelativePath = file
		cachePath := r.paths.Resolve(params)
		abs := r.mediaDir + file

		if r.fs.Exists(abs) {
			if r.fs.Exists(cachePath) {
				res.Admission = AdmissionCacheHit
			} else {
				res.Decision = r.admitter.Admit(abs)
				res.Admission = AdmissionDenied
				if res.Decision.Allowed {
					res.Admission = AdmissionGranted
				}
			}
		}

		if res.Admission == AdmissionCacheHit || res.Admission == AdmissionGranted {
			res.Source = SourceImage{AbsolutePath: abs, RelativePath: file}
			res.CachePath = cachePath
			r.logger.Debug(ctx, "image source resolved", r.fields(res)...)
			return res, nil
		}
	}

	src, tier := r.placeholder(r.configFor(res.StoreID), req.Destination)
	if src.AbsolutePath == "" || !r.fs.Exists(src.AbsolutePath) {
		r.logger.Warn(ctx, "no placeholder available",
			observe.Field{Key: "path", Value: req.Path},
			observe.Field{Key: "store", Value: res.StoreID},
			observe.Field{Key: "destination", Value: req.Destination},
			observe.Field{Key: "placeholder", Value: src.AbsolutePath},
		)
		return Resolution{}, fmt.Errorf("%w: %q (destination %q)", ErrSourceNotFound, req.Path, req.Destination)
	}

	params.BaseDir = strings.TrimSuffix(src.AbsolutePath, src.RelativePath)
	params.RelativePath = src.RelativePath
	res.Source = src
	res.Tier = tier
	res.CachePath = r.paths.Resolve(params)

	r.logger.Info(ctx, "placeholder substituted", append(r.fields(res),
		observe.Field{Key: "requested", Value: req.Path})...)
	return res, nil
}

// placeholder walks the placeholder tiers. The last skin tier is returned
// without an existence check; Resolve validates it. AbsolutePath always ends
// in RelativePath so the remaining prefix is the tier's base directory: the
// media directory for TierConfig, the skin directory for the skin tiers.
func (r *Resolver) placeholder(p config.Provider, destination string) (SourceImage, Tier) {
	if p != nil {
		if name, ok := p.Lookup(config.PlaceholderKey(destination)); ok {
			rel := configPlaceholderDir + name
			abs := r.mediaDir + rel
			if r.fs.Exists(abs) {
				return SourceImage{AbsolutePath: abs, RelativePath: rel, IsPlaceholder: true}, TierConfig
			}
		}
	}

	rel := skinPlaceholderDir + destination + skinPlaceholderExt
	dirs := skinDirs(r.skins, p)
	tiers := [...]Tier{TierSkinTheme, TierSkinDefaultTheme, TierSkinBase}
	for i, dir := range dirs {
		abs := strings.TrimRight(dir, "/") + rel
		if i == len(dirs)-1 || r.fs.Exists(abs) {
			return SourceImage{AbsolutePath: abs, RelativePath: rel, IsPlaceholder: true}, tiers[i]
		}
	}
	return SourceImage{}, TierSource
}

func (r *Resolver) fields(res Resolution) []observe.Field {
	fields := []observe.Field{
		{Key: "source", Value: res.Source.AbsolutePath},
		{Key: "cache_path", Value: res.CachePath},
		{Key: "store", Value: res.StoreID},
		{Key: "destination", Value: res.Destination},
		{Key: "tier", Value: res.Tier.String()},
		{Key: "admission", Value: res.Admission.String()},
	}
	if res.Admission == AdmissionGranted || res.Admission == AdmissionDenied {
		fields = append(fields,
			observe.Field{Key: "limit", Value: res.Decision.Limit.String()},
			observe.Field{Key: "usage_bytes", Value: res.Decision.Usage},
			observe.Field{Key: "estimate_bytes", Value: res.Decision.Estimate},
		)
	}
	return fields
}

var _ SourceResolver = (*Resolver)(nil)
