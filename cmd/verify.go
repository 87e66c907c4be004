package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/domain"
)

const verifyTimeout = 30 * time.Second

var verifyCmd = &cobra.Command{
	Use:   "verify <nip|krs|vat_eu> <identyfikator>",
	Short: "Zweryfikuj kontrahenta w rejestrze",
	Args:  cobra.ExactArgs(2),
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
		return verify(cmd.Context(), cmd.OutOrStdout(), rt.client, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verify(ctx context.Context, out io.Writer, client *api.Client, kindArg, identifier string) error {
	kind, err := domain.ParseVerifyKind(kindArg)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	res, err := client.Verify(ctx, identifier, kind)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !res.Valid {
		reason := res.Error
		if reason == "" {
			reason = "Nie znaleziono"
		}
		_, _ = fmt.Fprintf(out, "❌ %s %s: %s\n", kind.Label(), identifier, reason)
		return nil
	}
	_, _ = fmt.Fprintf(out, "✅ %s %s zweryfikowany\n", kind.Label(), identifier)
	if name := res.Name(); name != "" {
		_, _ = fmt.Fprintf(out, "   Nazwa: %s\n", name)
	}
	if addr := res.Address(); addr != "" {
		_, _ = fmt.Fprintf(out, "   Adres: %s\n", addr)
	}
	return nil
}
