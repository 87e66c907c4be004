package cmd

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/domain"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Lista modułów",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printModules(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func printModules(out io.Writer) {
	_, _ = fmt.Fprint(out, "\n📚 Dostępne moduły Detax.pl:\n\n")
	for _, ch := range domain.Channels() {
		_, _ = fmt.Fprintf(out, "  %s %s - %s\n", ch.Icon, runewidth.FillRight(ch.ID, 10), ch.Name)
		_, _ = fmt.Fprintf(out, "     %s\n\n", ch.Hint)
	}
	_, _ = fmt.Fprintln(out, `Użycie: detax ask --module <moduł> "pytanie"`)
	_, _ = fmt.Fprintln(out, `   lub: detax ksef "pytanie"`)
}
