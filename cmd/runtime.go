package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/config"
	"github.com/detax-ai/detax/internal/history"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// setupCLILogging sends log lines of one-shot commands to stderr with
// --debug. Without it the commands print their own errors.
func setupCLILogging(cmd *cobra.Command) {
	log.InitWriter(cmd.ErrOrStderr(), log.LevelDebug)
	log.SetEnabled(debugEnabled())
}

type runtimeOptions struct {
	// MetricsServer starts the Prometheus endpoint when metrics are enabled.
	// One-shot commands leave it off.
	MetricsServer bool
	// NoHistory skips opening the history store.
	NoHistory bool
}

// runtime holds the long-lived dependencies shared by the TUI and the
// one-shot commands.
type runtime struct {
	client  *api.Client
	history *history.Store // nil when history is disabled
	tracing *tracing.Provider
	metrics *metrics.Metrics
	server  *metrics.Server
}

func newRuntime(c config.Config, opts runtimeOptions) (_ *runtime, err error) {
	rt := &runtime{metrics: metrics.New(nil)}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.tracing, err = tracing.NewProvider(tracing.Config{
		Enabled:      c.Tracing.Enabled,
		Exporter:     c.Tracing.Exporter,
		FilePath:     c.Tracing.FilePath,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		SampleRate:   c.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tracing provider: %w", err)
	}

	rt.client, err = api.New(
		api.Config{BaseURL: c.API.BaseURL, Prefix: c.API.Prefix},
		api.WithTracer(rt.tracing.Tracer()),
		api.WithObserver(rt.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	if c.History.Enabled && !opts.NoHistory {
		rt.history, err = history.Open(history.Config{Path: c.History.Path, Limit: c.History.Limit})
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
	}

	if opts.MetricsServer && c.Metrics.Enabled {
		rt.server = metrics.NewServer(metrics.ServerConfig{Addr: c.Metrics.Address}, rt.metrics)
		if err := rt.server.Start(); err != nil {
			// The TUI still works without the endpoint.
			log.ErrorErr(log.CatMetrics, "Metrics server not started", err)
			rt.server = nil
		}
	}
	return rt, nil
}

// Close releases everything newRuntime opened. Safe on a partly built
// runtime.
func (rt *runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if rt.server != nil {
		errs = append(errs, rt.server.Stop(ctx))
	}
	if rt.history != nil {
		errs = append(errs, rt.history.Close())
	}
	if rt.tracing != nil {
		errs = append(errs, rt.tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
