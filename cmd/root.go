package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/detax-ai/detax/internal/app"
	"github.com/detax-ai/detax/internal/config"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
)

func init() {
	// Query the terminal background before any program starts so the OSC 11
	// reply does not race the input loop.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".detax/config.yaml"

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
	// cfgErr is reported by commands that need a valid config.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "detax",
	Short: "Terminalowy asystent AI dla przedsiębiorców",
	Long: `detax łączy się z API Detax.pl (Bielik) i pozwala zadawać pytania o KSeF,
B2B, ZUS i VAT oraz zarządzać dokumentami i projektami.

Bez komendy uruchamia interfejs terminalowy.`,
	Example: `  detax ask "Kiedy KSeF będzie obowiązkowy?"
  detax ksef "Jakie są wymagania KSeF?"
  detax b2b "Czy moja umowa B2B jest bezpieczna?"
  detax interactive --module ksef`,
	Version:      version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runApp(cmd, "")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/detax/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "",
		"detax API base URL (env: DETAX_API_URL)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write debug.log and enable the log overlay (env: DETAX_DEBUG)")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindEnv("api.base_url", "DETAX_API_URL")
	_ = viper.BindEnv("debug", "DETAX_DEBUG")
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .detax/config.yaml (current directory)
		// 2. ~/.config/detax/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if dir := config.ConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// First run: write the commented default next to the user config.
			if path := userConfigPath(); path != "" {
				if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
					viper.SetConfigFile(path)
					_ = viper.ReadInConfig()
				}
			}
		} else {
			cfgErr = fmt.Errorf("reading config: %w", err)
		}
	}

	loaded, err := decodeConfig(viper.GetViper())
	if err != nil && cfgErr == nil {
		cfgErr = err
	}
	cfg = loaded
}

func userConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// setDefaults registers every key so Unmarshal sees env and flag bindings
// for keys missing from the file.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.prefix", d.API.Prefix)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.show_sources", d.UI.ShowSources)
	v.SetDefault("ui.health_interval", d.UI.HealthInterval)
	v.SetDefault("ui.mouse", d.UI.Mouse)
	v.SetDefault("chat.default_channel", d.Chat.DefaultChannel)
	v.SetDefault("chat.max_length", d.Chat.MaxLength)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("theme.mode", d.Theme.Mode)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
}

// decodeConfig unmarshals v and fills paths derived from the config dir.
// The returned config is usable even when validation fails.
func decodeConfig(v *viper.Viper) (config.Config, error) {
	c := config.Defaults()
	if err := v.Unmarshal(&c); err != nil {
		return config.Defaults(), fmt.Errorf("decoding config: %w", err)
	}
	if c.History.Path == "" {
		c.History.Path = config.DefaultHistoryPath()
	}
	if c.Tracing.FilePath == "" {
		c.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	if err := config.Validate(c); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// reloadConfig re-reads the file viper loaded at startup.
func reloadConfig() (config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	return decodeConfig(viper.GetViper())
}

func debugEnabled() bool { return viper.GetBool("debug") }

// runApp starts the TUI. channel overrides chat.default_channel when set.
func runApp(_ *cobra.Command, channel string) error {
	if cfgErr != nil {
		return cfgErr
	}
	c := cfg
	if channel != "" {
		info, ok := domain.LookupChannel(channel)
		if !ok {
			return unknownModuleError(channel)
		}
		c.Chat.DefaultChannel = info.ID
	}

	debug := debugEnabled()
	if debug {
		cleanup, err := log.InitWithTeaLog("debug.log", "detax")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "Starting TUI", "version", version, "config", viper.ConfigFileUsed())
	}

	rt, err := newRuntime(c, runtimeOptions{MetricsServer: true})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	zone.NewGlobal()

	opts := app.Options{
		Config:     c,
		Client:     rt.client,
		Metrics:    rt.metrics,
		ConfigPath: viper.ConfigFileUsed(),
		Reload:     reloadConfig,
		Debug:      debug,
	}
	if rt.history != nil {
		opts.Recorder = rt.history
	}
	model, err := app.New(opts)
	if err != nil {
		return err
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if c.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	final, err := tea.NewProgram(model, programOpts...).Run()

	if fm, ok := final.(app.Model); ok {
		model = fm
	}
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
