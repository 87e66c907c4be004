package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/domain"
)

const healthTimeout = 5 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Status API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		setupCLILogging(cmd)
		rt, err := newRuntime(cfg, runtimeOptions{NoHistory: true})
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()
		return checkHealth(cmd.Context(), cmd.OutOrStdout(), rt.client, cfg.API.BaseURL)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func checkHealth(ctx context.Context, out io.Writer, client *api.Client, baseURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	h, err := client.Health(ctx)
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			_, _ = fmt.Fprintf(out, "⚠️ Status: %d\n", se.StatusCode)
		} else {
			_, _ = fmt.Fprintf(out, "❌ Nie można połączyć z %s\n", baseURL)
			_, _ = fmt.Fprintf(out, "   Błąd: %v\n", err)
		}
		return fmt.Errorf("health check: %w", err)
	}

	switch {
	case h.ModelLoading():
		_, _ = fmt.Fprintln(out, "⏳ Detax.pl API: online, ładowanie modelu...")
	case h.Status == domain.HealthHealthy:
		_, _ = fmt.Fprintln(out, "✅ Detax.pl API: online")
	default:
		_, _ = fmt.Fprintf(out, "⚠️ Detax.pl API: częściowo dostępny (%s)\n", h.Status)
	}
	_, _ = fmt.Fprintf(out, "   URL: %s\n", baseURL)
	for _, name := range slices.Sorted(maps.Keys(h.Services)) {
		_, _ = fmt.Fprintf(out, "   %s: %s\n", name, h.Services[name])
	}
	return nil
}
