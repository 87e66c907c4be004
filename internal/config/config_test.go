package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "http://localhost:8005", cfg.API.BaseURL)
	require.Equal(t, "http://localhost:8005/api/v1", cfg.API.Endpoint())
	require.Equal(t, 30*time.Second, cfg.UI.HealthInterval)
	require.Equal(t, "default", cfg.Chat.DefaultChannel)
	require.Equal(t, 2000, cfg.Chat.MaxLength)
	require.Equal(t, 100, cfg.History.Limit)
	require.False(t, cfg.Tracing.Enabled)
	require.False(t, cfg.Metrics.Enabled)

	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestAPIConfig_EndpointNormalisesSlashes(t *testing.T) {
	api := APIConfig{BaseURL: "https://detax.example/", Prefix: "api/v1/"}
	require.Equal(t, "https://detax.example/api/v1", api.Endpoint())
}

func TestValidateAPI(t *testing.T) {
	require.NoError(t, ValidateAPI(APIConfig{BaseURL: "https://detax.example"}))

	err := ValidateAPI(APIConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api.base_url is required")

	err = ValidateAPI(APIConfig{BaseURL: "ftp://detax.example"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http or https")

	err = ValidateAPI(APIConfig{BaseURL: "http://"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "host")
}

func TestValidateUI(t *testing.T) {
	require.NoError(t, ValidateUI(UIConfig{MarkdownStyle: "light", HealthInterval: 5 * time.Second}))

	err := ValidateUI(UIConfig{MarkdownStyle: "neon"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ui.markdown_style")

	err = ValidateUI(UIConfig{HealthInterval: 100 * time.Millisecond})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ui.health_interval")
}

func TestValidateChat(t *testing.T) {
	require.NoError(t, ValidateChat(ChatConfig{DefaultChannel: "vat"}))
	require.NoError(t, ValidateChat(ChatConfig{DefaultChannel: "general"}))

	err := ValidateChat(ChatConfig{DefaultChannel: "crypto"})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown channel "crypto"`)

	require.Error(t, ValidateChat(ChatConfig{MaxLength: -1}))
}

func TestValidateHistory(t *testing.T) {
	require.NoError(t, ValidateHistory(HistoryConfig{Enabled: true, Path: "/tmp/h.db"}))
	require.NoError(t, ValidateHistory(HistoryConfig{Enabled: true, Path: ":memory:"}))
	require.NoError(t, ValidateHistory(HistoryConfig{Enabled: false, Path: "relative.db"}))

	err := ValidateHistory(HistoryConfig{Enabled: true, Path: "relative.db"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "absolute")

	require.Error(t, ValidateHistory(HistoryConfig{Limit: -5}))
}

func TestValidateTheme(t *testing.T) {
	require.NoError(t, ValidateTheme(ThemeConfig{Mode: "dark", Highlight: "#54A0FF", Subtle: "#abc"}))

	err := ValidateTheme(ThemeConfig{Mode: "sepia"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "theme.mode")

	err = ValidateTheme(ThemeConfig{Error: "red"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "theme.error")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr string
	}{
		{name: "defaults", cfg: Defaults().Tracing},
		{name: "negative rate", cfg: TracingConfig{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "rate above one", cfg: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "bad exporter", cfg: TracingConfig{Exporter: "jaeger"}, wantErr: "tracing.exporter"},
		{
			name:    "otlp without endpoint",
			cfg:     TracingConfig{Enabled: true, Exporter: "otlp"},
			wantErr: "otlp_endpoint is required",
		},
		{name: "otlp disabled without endpoint", cfg: TracingConfig{Exporter: "otlp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateMetrics(t *testing.T) {
	require.NoError(t, ValidateMetrics(MetricsConfig{}))
	require.Error(t, ValidateMetrics(MetricsConfig{Enabled: true}))
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	var parsed struct {
		API struct {
			BaseURL string `yaml:"base_url"`
			Prefix  string `yaml:"prefix"`
		} `yaml:"api"`
		UI struct {
			MarkdownStyle  string `yaml:"markdown_style"`
			HealthInterval string `yaml:"health_interval"`
		} `yaml:"ui"`
		Chat struct {
			DefaultChannel string `yaml:"default_channel"`
			MaxLength      int    `yaml:"max_length"`
		} `yaml:"chat"`
		History struct {
			Limit int `yaml:"limit"`
		} `yaml:"history"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &parsed))

	d := Defaults()
	require.Equal(t, d.API.BaseURL, parsed.API.BaseURL)
	require.Equal(t, d.API.Prefix, parsed.API.Prefix)
	require.Equal(t, d.UI.MarkdownStyle, parsed.UI.MarkdownStyle)
	require.Equal(t, d.UI.HealthInterval.String(), parsed.UI.HealthInterval)
	require.Equal(t, d.Chat.DefaultChannel, parsed.Chat.DefaultChannel)
	require.Equal(t, d.Chat.MaxLength, parsed.Chat.MaxLength)
	require.Equal(t, d.History.Limit, parsed.History.Limit)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
