package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/health"
)

// errUnhealthy is returned when a one-shot check reports unhealthy.
var errUnhealthy = errors.New("health check failed")

// newAggregator registers the memory and placeholder checks for a.
func newAggregator(a *app, cfg health.MemoryCheckerConfig) *health.Aggregator {
	agg := health.NewAggregator()
	mem := health.NewMemoryChecker(a.budget, cfg)
	agg.Register(mem.Name(), mem)

	store := a.settings.StoreID
	if dests := a.settings.Destinations(store); len(dests) > 0 {
		ph := health.NewPlaceholderChecker(a.resolver, store, dests)
		agg.Register(ph.Name(), ph)
	}
	return agg
}

func newHealthCommand(opts *options) *cobra.Command {
	var (
		listen string
		memCfg health.MemoryCheckerConfig
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check memory headroom and placeholder availability",
		Long: `Run the health checks once and print them as JSON, or serve them over
HTTP with --listen.

Endpoints: /healthz, /readyz, /health and /health/{name}.

Examples:
  imagecache health
  imagecache health --listen :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadSettings()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, s, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.close(context.Background()) }()

			agg := newAggregator(a, memCfg)
			if listen != "" {
				return serveHealth(ctx, cmd, agg, listen)
			}
			return printHealth(ctx, cmd, agg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "serve health endpoints on this address")
	cmd.Flags().Float64Var(&memCfg.WarningThreshold, "warn", 0.8, "usage/limit ratio reported as degraded")
	cmd.Flags().Float64Var(&memCfg.CriticalThreshold, "critical", 0.95, "usage/limit ratio reported as unhealthy")
	return cmd
}

func printHealth(ctx context.Context, cmd *cobra.Command, agg *health.Aggregator) error {
	ctx, cancel := context.WithTimeout(ctx, health.DetailedTimeout)
	defer cancel()

	results := agg.CheckAll(ctx)
	status := agg.OverallStatus(results)

	type check struct {
		Status  string         `json:"status"`
		Message string         `json:"message,omitempty"`
		Details map[string]any `json:"details,omitempty"`
		Error   string         `json:"error,omitempty"`
	}
	report := struct {
		Status string           `json:"status"`
		Checks map[string]check `json:"checks"`
	}{Status: status.String(), Checks: make(map[string]check, len(results))}

	for name, r := range results {
		c := check{Status: r.Status.String(), Message: r.Message, Details: r.Details}
		if r.Error != nil {
			c.Error = r.Error.Error()
		}
		report.Checks[name] = c
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if status == health.StatusUnhealthy {
		return errUnhealthy
	}
	return nil
}

func serveHealth(ctx context.Context, cmd *cobra.Command, agg *health.Aggregator, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "serving health checks on %s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
