package cmd

import (
	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/domain"
)

var interactiveModule string

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Tryb interaktywny (interfejs terminalowy)",
	Long:    "Uruchamia interfejs terminalowy z czatem ustawionym na wybrany moduł.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runApp(cmd, interactiveModule)
	},
}

func init() {
	interactiveCmd.Flags().StringVarP(&interactiveModule, "module", "m", domain.GeneralChannel, "moduł startowy")
	rootCmd.AddCommand(interactiveCmd)
}
