package resolve

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/config"
	"github.com/jonwraymond/imagecache/observe"
	"github.com/jonwraymond/imagecache/storage"
)

const (
	mediaDir   = "/srv/media/catalog/product"
	skinRoot   = "/srv/skin"
	defaultKey = "9df78eab33525d08d6e5fb8d27136e95"
)

var file = &fstest.MapFile{Data: []byte("x")}

// tree returns a filesystem holding the given absolute paths.
func tree(paths ...string) storage.FileSystem {
	m := fstest.MapFS{}
	for _, p := range paths {
		m[strings.TrimPrefix(p, "/")] = file
	}
	return storage.NewFSAdapter(m)
}

type recordingAdmitter struct {
	allow bool
	paths []string
}

func (a *recordingAdmitter) Admit(path string) Decision {
	a.paths = append(a.paths, path)
	return Decision{Allowed: a.allow}
}

func newResolver(fsys storage.FileSystem, admitter Admitter, cfg config.Provider, opts ...Option) *Resolver {
	opts = append([]Option{
		WithAdmitter(admitter),
		WithSkins(Design{SkinRoot: skinRoot, Area: "frontend"}),
		WithConfig(cfg),
	}, opts...)
	return New(mediaDir, fsys, opts...)
}

func request(path, destination string) Request {
	return Request{Path: path, Destination: destination, Transform: cache.DefaultTransform()}
}

func TestResolve_SourceAdmitted(t *testing.T) {
	fsys := tree(mediaDir + "/a/b/ab.jpg")
	admitter := &recordingAdmitter{allow: true}
	r := newResolver(fsys, admitter, config.MapProvider{})

	res, err := r.Resolve(context.Background(), request("/a/b/ab.jpg", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := SourceImage{AbsolutePath: mediaDir + "/a/b/ab.jpg", RelativePath: "/a/b/ab.jpg"}
	if res.Source != want {
		t.Errorf("Source = %+v, want %+v", res.Source, want)
	}
	if got, wantPath := res.CachePath, mediaDir+"/cache/1/image/"+defaultKey+"/a/b/ab.jpg"; got != wantPath {
		t.Errorf("CachePath = %q, want %q", got, wantPath)
	}
	if res.Admission != AdmissionGranted || res.Tier != TierSource {
		t.Errorf("Admission = %v, Tier = %v", res.Admission, res.Tier)
	}
	if len(admitter.paths) != 1 || admitter.paths[0] != want.AbsolutePath {
		t.Errorf("admitter called with %v", admitter.paths)
	}
	if res.Outcome() != "source" {
		t.Errorf("Outcome() = %q", res.Outcome())
	}
}

func TestResolve_NormalizesLeadingSlash(t *testing.T) {
	fsys := tree(mediaDir + "/a/b/ab.jpg")
	r := newResolver(fsys, AdmitAll, nil)

	with, err := r.Resolve(context.Background(), request("/a/b/ab.jpg", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	without, err := r.Resolve(context.Background(), request("a/b/ab.jpg", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if with != without {
		t.Errorf("resolutions differ:\n  %+v\n  %+v", with, without)
	}
}

func TestResolve_CacheHitSkipsAdmission(t *testing.T) {
	spec := cache.DefaultTransform()
	spec.Width, spec.Height = 135, 135
	cachePath := mediaDir + "/cache/1/small_image/135x135/" + defaultKey + "/a/b/ab.jpg"

	fsys := tree(mediaDir+"/a/b/ab.jpg", cachePath)
	admitter := &recordingAdmitter{allow: false}
	r := newResolver(fsys, admitter, nil)

	res, err := r.Resolve(context.Background(), Request{Path: "/a/b/ab.jpg", Destination: "small_image", Transform: spec})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.CachePath != cachePath {
		t.Errorf("CachePath = %q, want %q", res.CachePath, cachePath)
	}
	if res.Admission != AdmissionCacheHit || res.Source.IsPlaceholder {
		t.Errorf("Admission = %v, placeholder = %v", res.Admission, res.Source.IsPlaceholder)
	}
	if len(admitter.paths) != 0 {
		t.Errorf("admitter should not be consulted on a cache hit, got %v", admitter.paths)
	}
	if res.Outcome() != "cache_hit" {
		t.Errorf("Outcome() = %q", res.Outcome())
	}
}

func TestResolve_DeniedUsesConfiguredPlaceholder(t *testing.T) {
	fsys := tree(
		mediaDir+"/a/b/ab.jpg",
		mediaDir+"/placeholder/default/thumb.jpg",
	)
	cfg := config.MapProvider{config.PlaceholderKey("thumbnail"): "default/thumb.jpg"}
	r := newResolver(fsys, &recordingAdmitter{allow: false}, cfg)

	spec := cache.DefaultTransform()
	spec.Width = 75
	res, err := r.Resolve(context.Background(), Request{Path: "/a/b/ab.jpg", Destination: "thumbnail", Transform: spec})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := SourceImage{
		AbsolutePath:  mediaDir + "/placeholder/default/thumb.jpg",
		RelativePath:  "/placeholder/default/thumb.jpg",
		IsPlaceholder: true,
	}
	if res.Source != want {
		t.Errorf("Source = %+v, want %+v", res.Source, want)
	}
	if res.Tier != TierConfig || res.Admission != AdmissionDenied {
		t.Errorf("Tier = %v, Admission = %v", res.Tier, res.Admission)
	}
	wantCache := mediaDir + "/cache/1/thumbnail/75x/" + defaultKey + "/placeholder/default/thumb.jpg"
	if res.CachePath != wantCache {
		t.Errorf("CachePath = %q, want %q", res.CachePath, wantCache)
	}
}

func TestResolve_NoSelectionBypassesAdmission(t *testing.T) {
	fsys := tree(mediaDir + "/placeholder/stores/1/image.jpg")
	cfg := config.MapProvider{config.PlaceholderKey("image"): "stores/1/image.jpg"}
	admitter := &recordingAdmitter{allow: true}
	r := newResolver(fsys, admitter, cfg)

	for _, path := range []string{"/no_selection", "no_selection", ""} {
		res, err := r.Resolve(context.Background(), request(path, "image"))
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", path, err)
		}
		if !res.Source.IsPlaceholder || res.Admission != AdmissionSkipped {
			t.Errorf("Resolve(%q) = %+v, want skipped placeholder", path, res)
		}
	}
	if len(admitter.paths) != 0 {
		t.Errorf("admitter consulted for %v", admitter.paths)
	}
}

func TestResolve_SkinTiers(t *testing.T) {
	const rel = "/images/catalog/product/placeholder/small_image.jpg"
	current := skinRoot + "/frontend/rwd/shop"
	defaultTheme := skinRoot + "/frontend/rwd/default"
	base := skinRoot + "/frontend/base/default"
	cfg := config.MapProvider{
		config.KeyDesignPackage:              "rwd",
		config.KeyDesignTheme:                "shop",
		config.PlaceholderKey("small_image"): "missing.jpg",
	}

	tests := []struct {
		name     string
		files    []string
		wantTier Tier
		wantDir  string
		wantErr  bool
	}{
		{"current theme", []string{current + rel, defaultTheme + rel, base + rel}, TierSkinTheme, current, false},
		{"default theme", []string{defaultTheme + rel, base + rel}, TierSkinDefaultTheme, defaultTheme, false},
		{"base package", []string{base + rel}, TierSkinBase, base, false},
		{"nothing", nil, 0, "", true},
		{"other destination only", []string{current + "/images/catalog/product/placeholder/image.jpg"}, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(tree(tt.files...), AdmitAll, cfg)

			res, err := r.Resolve(context.Background(), request("/missing/file.jpg", "small_image"))
			if tt.wantErr {
				if !errors.Is(err, ErrSourceNotFound) {
					t.Fatalf("Resolve() error = %v, want ErrSourceNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.Tier != tt.wantTier {
				t.Errorf("Tier = %v, want %v", res.Tier, tt.wantTier)
			}
			if res.Source.AbsolutePath != tt.wantDir+rel || res.Source.RelativePath != rel {
				t.Errorf("Source = %+v", res.Source)
			}
			wantCache := tt.wantDir + "/cache/1/small_image/" + defaultKey + rel
			if res.CachePath != wantCache {
				t.Errorf("CachePath = %q, want %q", res.CachePath, wantCache)
			}
		})
	}
}

func TestResolve_DefaultDesign(t *testing.T) {
	const placeholder = skinRoot + "/frontend/base/default/images/catalog/product/placeholder/image.jpg"
	r := newResolver(tree(placeholder), AdmitAll, nil)

	res, err := r.Resolve(context.Background(), request("/gone.jpg", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Source.AbsolutePath != placeholder || res.Tier != TierSkinTheme {
		t.Errorf("Source = %+v, Tier = %v", res.Source, res.Tier)
	}
	const wantCache = "/srv/skin/frontend/base/default/cache/1/image/" + defaultKey + "/images/catalog/product/placeholder/image.jpg"
	if res.CachePath != wantCache {
		t.Errorf("CachePath = %q, want %q", res.CachePath, wantCache)
	}
}

func TestResolve_FallbackCompleteness(t *testing.T) {
	placeholders := [][]string{
		nil,
		{mediaDir + "/placeholder/p.jpg"},
		{skinRoot + "/frontend/base/default/images/catalog/product/placeholder/image.jpg"},
	}
	configs := []config.Provider{nil, config.MapProvider{}, config.MapProvider{config.PlaceholderKey("image"): "p.jpg"}}
	paths := []string{"", "/no_selection", "/missing.jpg", "missing.jpg"}

	for _, files := range placeholders {
		for _, cfg := range configs {
			for _, path := range paths {
				r := newResolver(tree(files...), AdmitAll, cfg)
				res, err := r.Resolve(context.Background(), request(path, "image"))
				switch {
				case err != nil:
					if !errors.Is(err, ErrSourceNotFound) {
						t.Fatalf("Resolve(%q) error = %v, want ErrSourceNotFound", path, err)
					}
				case !res.Source.IsPlaceholder:
					t.Fatalf("Resolve(%q) returned a non-placeholder for a missing file", path)
				case res.CachePath == "":
					t.Fatalf("Resolve(%q) returned no cache path", path)
				}
			}
		}
	}
}

func TestResolve_PathStability(t *testing.T) {
	fsys := tree(mediaDir + "/a/b/ab.jpg")
	r := newResolver(fsys, AdmitAll, nil)

	spec := cache.DefaultTransform()
	spec.Width, spec.Height = 265, 265
	spec.Watermark = &cache.WatermarkSpec{File: "stores/1/wm.png", Opacity: 30, Position: "stretch"}
	req := Request{Path: "/a/b/ab.jpg", Destination: "image", Transform: spec}

	first, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), req)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if again.CachePath != first.CachePath {
			t.Fatalf("CachePath changed: %q != %q", again.CachePath, first.CachePath)
		}
	}
}

func TestResolve_StoreScope(t *testing.T) {
	fsys := tree(
		mediaDir+"/placeholder/default.jpg",
		mediaDir+"/placeholder/store3.jpg",
	)
	configs := map[string]config.Provider{
		"1": config.MapProvider{config.PlaceholderKey("image"): "default.jpg"},
		"3": config.MapProvider{config.PlaceholderKey("image"): "store3.jpg"},
	}
	r := New(mediaDir, fsys,
		WithAdmitter(AdmitAll),
		WithStoreConfig(func(id string) config.Provider { return configs[id] }),
	)

	res, err := r.Resolve(context.Background(), Request{StoreID: "3", Destination: "image", Transform: cache.DefaultTransform()})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Source.RelativePath != "/placeholder/store3.jpg" || res.StoreID != "3" {
		t.Errorf("store 3 resolution = %+v", res)
	}
	if !strings.HasPrefix(res.CachePath, mediaDir+"/cache/3/image/") {
		t.Errorf("CachePath = %q, want store 3 scope", res.CachePath)
	}

	res, err = r.Resolve(context.Background(), request("", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Source.RelativePath != "/placeholder/default.jpg" || res.StoreID != "1" {
		t.Errorf("default store resolution = %+v", res)
	}
}

func TestResolve_InvalidTransform(t *testing.T) {
	r := newResolver(tree(), AdmitAll, nil)
	spec := cache.DefaultTransform()
	spec.Quality = 101

	_, err := r.Resolve(context.Background(), Request{Path: "/a.jpg", Destination: "image", Transform: spec})
	if !errors.Is(err, cache.ErrInvalidTransform) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidTransform", err)
	}
}

func TestResolve_XXHashKeys(t *testing.T) {
	fsys := tree(mediaDir + "/a.jpg")
	r := newResolver(fsys, AdmitAll, nil, WithKeyer(cache.NewKeyDeriver(cache.WithDigest(cache.XXHashDigest{}))))

	res, err := r.Resolve(context.Background(), request("/a.jpg", "image"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Key) != 16 || !strings.Contains(res.CachePath, "/"+string(res.Key)+"/a.jpg") {
		t.Errorf("Key = %q, CachePath = %q", res.Key, res.CachePath)
	}
}

func TestResolve_Logging(t *testing.T) {
	var buf bytes.Buffer
	fsys := tree(mediaDir + "/placeholder/p.jpg")
	cfg := config.MapProvider{config.PlaceholderKey("image"): "p.jpg"}
	r := newResolver(fsys, AdmitAll, cfg, WithLogger(observe.NewLoggerWithWriter("debug", &buf)))

	if _, err := r.Resolve(context.Background(), request("/missing.jpg", "image")); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"placeholder substituted"`) || !strings.Contains(out, `"tier":"placeholder_config"`) {
		t.Errorf("log output = %s", out)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"/no_selection":   "",
		"no_selection":    "",
		"a/b/ab.jpg":      "/a/b/ab.jpg",
		"/a/b/ab.jpg":     "/a/b/ab.jpg",
		"/no_selection/x": "/no_selection/x",
	}
	for in, want := range tests {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
