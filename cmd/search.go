package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/domain"
)

const searchTimeout = 15 * time.Second

var (
	searchCategory string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <fraza>",
	Short: "Szukaj w bazie wiedzy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		setupCLILogging(cmd)
		rt, err := newRuntime(cfg, runtimeOptions{NoHistory: true})
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()
		return search(cmd.Context(), cmd.OutOrStdout(), rt.client, args[0], searchCategory, searchLimit)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "k", "", "kategoria (ksef, b2b, zus, vat)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maksymalna liczba wyników")
	rootCmd.AddCommand(searchCmd)
}

func search(ctx context.Context, out io.Writer, client *api.Client, query, category string, limit int) error {
	if category != "" && !slices.Contains(domain.DocumentCategories(), category) {
		return fmt.Errorf("nieznana kategoria %q", category)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	res, err := client.Search(ctx, query, category, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(res.Results) == 0 {
		_, _ = fmt.Fprintf(out, "🔍 Brak wyników dla %q\n", query)
		return nil
	}
	_, _ = fmt.Fprintf(out, "\n🔍 Wyniki dla %q (%d):\n\n", query, len(res.Results))
	for i, hit := range res.Results {
		_, _ = fmt.Fprintf(out, "%d. [%s] %s\n", i+1, hit.Category, hit.Title)
		if hit.Source != "" {
			_, _ = fmt.Fprintf(out, "   Źródło: %s\n", hit.Source)
		}
		_, _ = fmt.Fprintf(out, "   %s\n\n", preview(hit.Snippet, 2*previewLength))
	}
	return nil
}
