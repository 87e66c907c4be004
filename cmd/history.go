package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/history"
)

const (
	defaultHistoryLimit = 10
	previewLength       = 60
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Historia rozmów",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(cmd, func(ctx context.Context, store *history.Store) error {
			return printHistory(ctx, cmd.OutOrStdout(), store, historyLimit)
		})
	},
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Wyczyść historię",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(cmd, func(ctx context.Context, store *history.Store) error {
			return clearHistory(ctx, cmd.OutOrStdout(), store)
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", defaultHistoryLimit, "liczba wpisów")
	rootCmd.AddCommand(historyCmd, clearHistoryCmd)
}

// withHistory opens only the history store; these commands never touch the
// network.
func withHistory(cmd *cobra.Command, fn func(context.Context, *history.Store) error) error {
	if cfgErr != nil {
		return cfgErr
	}
	setupCLILogging(cmd)
	if !cfg.History.Enabled {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "📭 Historia jest wyłączona (history.enabled: false)")
		return nil
	}
	store, err := history.Open(history.Config{Path: cfg.History.Path, Limit: cfg.History.Limit})
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, store)
}

func printHistory(ctx context.Context, out io.Writer, store *history.Store, limit int) error {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "📭 Brak historii")
		return nil
	}

	_, _ = fmt.Fprintf(out, "\n📜 Historia (%d ostatnich):\n\n", len(entries))
	for i, e := range entries {
		_, _ = fmt.Fprintf(out, "%d. [%s] %s\n", i+1, e.Module, e.CreatedAt.Format("2006-01-02"))
		_, _ = fmt.Fprintf(out, "   Q: %s\n", preview(e.Question, previewLength))
		_, _ = fmt.Fprintf(out, "   A: %s\n\n", preview(e.Answer, previewLength))
	}
	return nil
}

func clearHistory(ctx context.Context, out io.Writer, store *history.Store) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "✅ Historia wyczyszczona")
	return nil
}

// preview flattens s to one line and cuts it after n grapheme clusters.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String() + "..."
}
