package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jonwraymond/imagecache/budget"
	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/config"
	"github.com/jonwraymond/imagecache/estimate"
	"github.com/jonwraymond/imagecache/observe"
	"github.com/jonwraymond/imagecache/resolve"
	"github.com/jonwraymond/imagecache/storage"
)

// app is the resolver stack assembled from Settings.
type app struct {
	settings  *config.Settings
	observer  observe.Observer
	budget    budget.Budget
	estimator *estimate.Estimator
	resolver  *resolve.Resolver

	// source is resolver wrapped with telemetry.
	source resolve.SourceResolver
}

// estimatePolicy converts the estimate settings.
func estimatePolicy(s *config.Settings) estimate.Policy {
	return estimate.Policy{
		Overhead:        s.Estimate.Overhead,
		Multiplier:      s.Estimate.Multiplier,
		DefaultChannels: s.Estimate.DefaultChannels,
		DefaultBits:     s.Estimate.DefaultBits,
	}
}

// newApp wires the resolver stack. Logs and stdout exporters write to logs.
func newApp(ctx context.Context, s *config.Settings, logs io.Writer) (*app, error) {
	obsCfg := s.ObserveConfig()
	obsCfg.Output = logs
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating observer: %w", err)
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("creating middleware: %w", err)
	}

	fsys := storage.OSFileSystem{}
	est := estimate.NewEstimator(fsys, estimate.WithPolicy(estimatePolicy(s)))
	b := budget.NewRuntimeBudget(s.LimitSource(), nil)

	r := resolve.New(s.MediaDir, fsys,
		resolve.WithStore(s.StoreID),
		resolve.WithKeyer(cache.NewKeyDeriver(cache.WithDigest(s.Digest()))),
		resolve.WithAdmitter(resolve.NewMemoryAdmission(b, est)),
		resolve.WithSkins(resolve.Design{SkinRoot: s.SkinRoot, Area: s.Design.Area}),
		resolve.WithStoreConfig(s.StoreConfig),
		resolve.WithLogger(obs.Logger()),
	)

	return &app{
		settings:  s,
		observer:  obs,
		budget:    b,
		estimator: est,
		resolver:  r,
		source:    resolve.Instrument(r, mw),
	}, nil
}

// close flushes telemetry.
func (a *app) close(ctx context.Context) error {
	return a.observer.Shutdown(ctx)
}
