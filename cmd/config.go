package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/detax-ai/detax/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Pokaż aktywną konfigurację",
	Long:  "Wypisuje konfigurację po połączeniu pliku, zmiennych środowiskowych i flag.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgErr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "uwaga: %v\n", cfgErr)
		}
		return printConfig(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed())
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [ścieżka]",
	Short: "Zapisz domyślny plik konfiguracji",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := userConfigPath()
		if len(args) > 0 {
			path = args[0]
		}
		return initConfigFile(cmd.OutOrStdout(), path, configInitForce)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "nadpisz istniejący plik")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func printConfig(out io.Writer, c config.Config, path string) error {
	if path != "" {
		_, _ = fmt.Fprintf(out, "# %s\n", path)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func initConfigFile(out io.Writer, path string, force bool) error {
	if path == "" {
		return fmt.Errorf("no config path: home directory unavailable")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✅ Zapisano %s\n", path)
	return nil
}
