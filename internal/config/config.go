// Package config provides configuration types and defaults for detax.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
)

// Config holds all configuration options for detax.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Theme   ThemeConfig   `mapstructure:"theme" yaml:"theme"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// APIConfig locates the detax API.
type APIConfig struct {
	// BaseURL is the server root. /health lives directly under it.
	// Env: DETAX_API_URL
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Prefix is the versioned API path appended to BaseURL for every
	// other endpoint.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// Endpoint returns the versioned API root, e.g. http://localhost:8005/api/v1.
func (a APIConfig) Endpoint() string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.Trim(a.Prefix, "/")
}

// UIConfig holds user interface options.
type UIConfig struct {
	MarkdownStyle  string        `mapstructure:"markdown_style" yaml:"markdown_style"`   // "dark" (default), "light" or "notty"
	ShowSources    bool          `mapstructure:"show_sources" yaml:"show_sources"`       // Open the sources list after each answer
	HealthInterval time.Duration `mapstructure:"health_interval" yaml:"health_interval"` // Health poll period
	Mouse          bool          `mapstructure:"mouse" yaml:"mouse"`                     // Clickable items
}

// ChatConfig holds chat panel options.
type ChatConfig struct {
	DefaultChannel string `mapstructure:"default_channel" yaml:"default_channel"`
	MaxLength      int    `mapstructure:"max_length" yaml:"max_length"`
}

// HistoryConfig controls the local chat history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`   // sqlite file
	Limit   int    `mapstructure:"limit" yaml:"limit"` // entries kept
}

// ThemeConfig holds colour overrides.
type ThemeConfig struct {
	// Mode forces light or dark mode. If empty, uses terminal detection.
	Mode      string `mapstructure:"mode" yaml:"mode"`
	Highlight string `mapstructure:"highlight" yaml:"highlight"`
	Subtle    string `mapstructure:"subtle" yaml:"subtle"`
	Error     string `mapstructure:"error" yaml:"error"`
	Success   string `mapstructure:"success" yaml:"success"`
}

// TracingConfig holds OpenTelemetry tracing configuration for API calls.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// FilePath is the output file for "file" exporter.
	FilePath string `mapstructure:"file_path" yaml:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// ConfigDir returns ~/.config/detax or "" if the home dir is unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "detax")
}

// DefaultHistoryPath returns the default sqlite history location.
func DefaultHistoryPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8005",
			Prefix:  "/api/v1",
		},
		UI: UIConfig{
			MarkdownStyle:  "dark",
			ShowSources:    false,
			HealthInterval: 30 * time.Second,
			Mouse:          true,
		},
		Chat: ChatConfig{
			DefaultChannel: domain.GeneralChannel,
			MaxLength:      2000,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
			Limit:   100,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateAPI(cfg.API); err != nil {
		return err
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	if err := ValidateChat(cfg.Chat); err != nil {
		return err
	}
	if err := ValidateHistory(cfg.History); err != nil {
		return err
	}
	if err := ValidateTheme(cfg.Theme); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return ValidateMetrics(cfg.Metrics)
}

// ValidateAPI checks that the base URL is an absolute http(s) URL.
func ValidateAPI(api APIConfig) error {
	if api.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", api.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", api.BaseURL)
	}
	return nil
}

// ValidateUI checks user interface options.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\", \"light\" or \"notty\", got %q", ui.MarkdownStyle)
	}
	if ui.HealthInterval != 0 && ui.HealthInterval < time.Second {
		return fmt.Errorf("ui.health_interval must be at least 1s, got %s", ui.HealthInterval)
	}
	return nil
}

// ValidateChat checks chat options.
func ValidateChat(chat ChatConfig) error {
	if chat.DefaultChannel != "" {
		if _, ok := domain.LookupChannel(chat.DefaultChannel); !ok {
			return fmt.Errorf("chat.default_channel: unknown channel %q", chat.DefaultChannel)
		}
	}
	if chat.MaxLength < 0 {
		return fmt.Errorf("chat.max_length must not be negative, got %d", chat.MaxLength)
	}
	return nil
}

// ValidateHistory checks history store options.
func ValidateHistory(h HistoryConfig) error {
	if h.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", h.Limit)
	}
	if h.Enabled && h.Path != "" && !filepath.IsAbs(h.Path) && h.Path != ":memory:" {
		return fmt.Errorf("history.path must be an absolute path, got %q", h.Path)
	}
	return nil
}

// ValidateTheme checks theme overrides.
func ValidateTheme(theme ThemeConfig) error {
	switch theme.Mode {
	case "", "light", "dark":
	default:
		return fmt.Errorf("theme.mode must be \"light\" or \"dark\", got %q", theme.Mode)
	}
	for name, value := range map[string]string{
		"highlight": theme.Highlight,
		"subtle":    theme.Subtle,
		"error":     theme.Error,
		"success":   theme.Success,
	} {
		if value != "" && !isHexColor(value) {
			return fmt.Errorf("theme.%s must be a hex color like #54A0FF, got %q", name, value)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Endpoint requirements only matter when tracing is on
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// ValidateMetrics checks the metrics endpoint options.
func ValidateMetrics(m MetricsConfig) error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# detax configuration

# detax API location. DETAX_API_URL overrides base_url.
api:
  base_url: http://localhost:8005
  prefix: /api/v1

# UI settings
ui:
  markdown_style: dark    # "dark" (default), "light" or "notty"
  show_sources: false     # Open the sources list after every answer
  health_interval: 30s    # How often the header polls /health
  mouse: true             # Click channels, contacts and rows

# Chat settings
chat:
  default_channel: default  # default, ksef, b2b, zus or vat
  max_length: 2000

# Local chat history (sqlite). Used by "detax history".
history:
  enabled: true
  # path: ~/.config/detax/history.db
  limit: 100

# Theme overrides (hex colors)
# theme:
#   mode: dark
#   highlight: "#54A0FF"
#   subtle: "#696969"
#   error: "#FF8787"
#   success: "#73F59F"

# Tracing of API calls (OpenTelemetry)
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ~/.config/detax/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Prometheus metrics endpoint
metrics:
  enabled: false
  address: 127.0.0.1:9464
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
