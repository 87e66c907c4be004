package cmd

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rivo/uniseg"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/config"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/history"
	"github.com/detax-ai/detax/internal/testutil"
)

func newClient(t *testing.T, srv *testutil.Server) *api.Client {
	t.Helper()
	client, err := api.New(api.Config{BaseURL: srv.URL(), Prefix: testutil.Prefix})
	require.NoError(t, err)
	return client
}

func memoryStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(history.Config{Path: ":memory:", Limit: history.DefaultLimit})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAsk_PrintsAnswerAndRecords(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	store := memoryStore(t)
	var out bytes.Buffer

	err := ask(context.Background(), &out, newClient(t, srv), store, "Czym jest KSeF?", "ksef")
	require.NoError(t, err)

	require.Contains(t, out.String(), "🤖 Detax AI (ksef)")
	require.Contains(t, out.String(), "❓ Czym jest KSeF?")
	require.Contains(t, out.String(), "Odpowiedź (ksef): Czym jest KSeF?")
	require.Contains(t, out.String(), "Ustawa o VAT (ustawa.pdf, 82%)")

	entries, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ksef", entries[0].Module)
	require.Equal(t, "Czym jest KSeF?", entries[0].Question)
}

func TestAsk_GeneralAliasSendsDefault(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	var out bytes.Buffer

	require.NoError(t, ask(context.Background(), &out, newClient(t, srv), nil, "Pytanie", "general"))

	reqs := srv.Requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	require.Equal(t, testutil.Prefix+"/chat", last.Path)
	require.Contains(t, last.Body, `"module":"default"`)
}

func TestAsk_UnknownModule(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	var out bytes.Buffer

	err := ask(context.Background(), &out, newClient(t, srv), nil, "Pytanie", "crypto")
	require.ErrorContains(t, err, "crypto")
	require.Zero(t, srv.RequestCount(http.MethodPost, testutil.Prefix+"/chat"))
}

func TestAsk_FailureIsNotRecorded(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	srv.Fail(http.MethodPost, testutil.Prefix+"/chat", http.StatusInternalServerError)
	store := memoryStore(t)
	var out bytes.Buffer

	err := ask(context.Background(), &out, newClient(t, srv), store, "Pytanie", "vat")
	require.Error(t, err)
	require.True(t, api.IsStatus(err, http.StatusInternalServerError))
	require.Contains(t, out.String(), "❌ Błąd")

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAsk_Unreachable(t *testing.T) {
	client, err := api.New(api.Config{BaseURL: "http://127.0.0.1:1", Prefix: "/api/v1"})
	require.NoError(t, err)
	var out bytes.Buffer

	require.Error(t, ask(context.Background(), &out, client, nil, "Pytanie", "zus"))
	require.Contains(t, out.String(), "❌ Błąd połączenia")
}

func TestPromptQuestion(t *testing.T) {
	var out bytes.Buffer
	q, err := promptQuestion(strings.NewReader("  Ile wynosi VAT?\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "Ile wynosi VAT?", q)
	require.Equal(t, "Pytanie: ", out.String())

	_, err = promptQuestion(strings.NewReader("\n"), &out)
	require.Error(t, err)

	q, err = promptQuestion(strings.NewReader("bez nowej linii"), &out)
	require.NoError(t, err)
	require.Equal(t, "bez nowej linii", q)
}

func TestModuleCommands_Registered(t *testing.T) {
	for _, name := range []string{"ask", "ksef", "b2b", "zus", "vat", "modules", "history", "clear-history", "health", "config", "search", "verify", "interactive"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, c.Name())
	}
	c, _, err := rootCmd.Find([]string{"i"})
	require.NoError(t, err)
	require.Equal(t, "interactive", c.Name())
}

func TestPrintModules(t *testing.T) {
	var out bytes.Buffer
	printModules(&out)

	for _, ch := range domain.Channels() {
		require.Contains(t, out.String(), ch.ID)
		require.Contains(t, out.String(), ch.Hint)
	}
	require.Contains(t, out.String(), `detax ksef "pytanie"`)
}

func TestPrintHistory(t *testing.T) {
	store := memoryStore(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, printHistory(ctx, &out, store, 10))
	require.Contains(t, out.String(), "📭 Brak historii")

	long := strings.Repeat("ą", 80)
	require.NoError(t, store.Record(ctx, history.Entry{Module: "ksef", Question: "pierwsze", Answer: "a"}))
	require.NoError(t, store.Record(ctx, history.Entry{Module: "vat", Question: "drugie", Answer: "b"}))
	require.NoError(t, store.Record(ctx, history.Entry{Module: "zus", Question: long, Answer: "linia 1\nlinia 2"}))

	out.Reset()
	require.NoError(t, printHistory(ctx, &out, store, 2))
	got := out.String()
	require.Contains(t, got, "📜 Historia (2 ostatnich)")
	require.NotContains(t, got, "pierwsze")
	require.Contains(t, got, "1. [vat]")
	require.Contains(t, got, "2. [zus]")
	require.Contains(t, got, strings.Repeat("ą", 60)+"...")
	require.Contains(t, got, "A: linia 1 linia 2")
}

func TestClearHistory(t *testing.T) {
	store := memoryStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, history.Entry{Module: "ksef", Question: "q", Answer: "a"}))
	var out bytes.Buffer

	require.NoError(t, clearHistory(ctx, &out, store))

	require.Contains(t, out.String(), "✅ Historia wyczyszczona")
	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestPreview_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		n := rapid.IntRange(1, 80).Draw(t, "n")

		got := preview(s, n)

		require.NotContains(t, got, "\n")
		require.LessOrEqual(t, uniseg.GraphemeClusterCount(got), n+3)
		flat := strings.Join(strings.Fields(s), " ")
		if uniseg.GraphemeClusterCount(flat) <= n {
			require.Equal(t, flat, got)
		}
	})
}

func TestCheckHealth(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	client := newClient(t, srv)
	var out bytes.Buffer

	require.NoError(t, checkHealth(context.Background(), &out, client, srv.URL()))
	require.Contains(t, out.String(), "✅ Detax.pl API: online")
	require.Contains(t, out.String(), "URL: "+srv.URL())
	require.Contains(t, out.String(), "database: ok")

	srv.SetHealth(domain.Health{Status: domain.HealthDegraded, Services: map[string]string{"model": "not_loaded"}})
	out.Reset()
	require.NoError(t, checkHealth(context.Background(), &out, client, srv.URL()))
	require.Contains(t, out.String(), "ładowanie modelu")

	srv.Fail(http.MethodGet, "/health", http.StatusServiceUnavailable)
	out.Reset()
	require.Error(t, checkHealth(context.Background(), &out, client, srv.URL()))
	require.Contains(t, out.String(), "⚠️ Status: 503")
}

func TestCheckHealth_Unreachable(t *testing.T) {
	client, err := api.New(api.Config{BaseURL: "http://127.0.0.1:1", Prefix: "/api/v1"})
	require.NoError(t, err)
	var out bytes.Buffer

	require.Error(t, checkHealth(context.Background(), &out, client, "http://127.0.0.1:1"))
	require.Contains(t, out.String(), "❌ Nie można połączyć z http://127.0.0.1:1")
}

func TestSearch(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	client := newClient(t, srv)
	var out bytes.Buffer

	require.NoError(t, search(context.Background(), &out, client, "KSeF", "", 10))
	require.Contains(t, out.String(), "[ksef] KSeF 2026")
	require.Contains(t, out.String(), "Źródło: mf.gov.pl")

	out.Reset()
	require.NoError(t, search(context.Background(), &out, client, "KSeF", "vat", 10))
	require.Contains(t, out.String(), "Brak wyników")

	require.Error(t, search(context.Background(), &out, client, "KSeF", "crypto", 10))
}

func TestVerify(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	client := newClient(t, srv)
	var out bytes.Buffer

	require.NoError(t, verify(context.Background(), &out, client, "NIP", testutil.KnownNIP))
	require.Contains(t, out.String(), "✅ NIP (CEIDG) "+testutil.KnownNIP+" zweryfikowany")
	require.Contains(t, out.String(), "Nazwa: Acme Sp. z o.o.")

	out.Reset()
	require.NoError(t, verify(context.Background(), &out, client, "krs", "0000000001"))
	require.Contains(t, out.String(), "❌ KRS 0000000001: KRS nie znaleziony")

	require.Error(t, verify(context.Background(), &out, client, "pesel", "1"))
	require.Equal(t, 2, srv.RequestCount(http.MethodPost, testutil.Prefix+"/verify"), "an unknown type never reaches the server")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func loadConfig(t *testing.T, path string) (config.Config, error) {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	require.NoError(t, v.BindEnv("api.base_url", "DETAX_API_URL"))
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return decodeConfig(v)
}

func TestDecodeConfig(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://detax.example.com
ui:
  health_interval: 10s
chat:
  default_channel: ksef
history:
  limit: 50
`)
	c, err := loadConfig(t, path)
	require.NoError(t, err)

	require.Equal(t, "https://detax.example.com", c.API.BaseURL)
	require.Equal(t, "/api/v1", c.API.Prefix)
	require.Equal(t, "10s", c.UI.HealthInterval.String())
	require.Equal(t, "ksef", c.Chat.DefaultChannel)
	require.Equal(t, 50, c.History.Limit)
	require.Equal(t, 2000, c.Chat.MaxLength)
	require.NotEmpty(t, c.History.Path)
}

func TestDecodeConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("DETAX_API_URL", "http://10.0.0.5:8005")
	path := writeConfig(t, "api:\n  base_url: https://detax.example.com\n")

	c, err := loadConfig(t, path)
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8005", c.API.BaseURL)
}

func TestDecodeConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "chat:\n  default_channel: crypto\n")

	c, err := loadConfig(t, path)
	require.ErrorContains(t, err, "invalid configuration")
	require.Equal(t, "crypto", c.Chat.DefaultChannel)
}

func TestPrintConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printConfig(&out, config.Defaults(), "/tmp/detax.yaml"))

	got := out.String()
	require.True(t, strings.HasPrefix(got, "# /tmp/detax.yaml\n"))
	require.Contains(t, got, "base_url: http://localhost:8005")
	require.Contains(t, got, "health_interval: 30s")
	require.Contains(t, got, "default_channel: default")
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	var out bytes.Buffer

	require.NoError(t, initConfigFile(&out, path, false))
	require.Contains(t, out.String(), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))

	require.ErrorContains(t, initConfigFile(&out, path, false), "already exists")
	require.NoError(t, initConfigFile(&out, path, true))
}

func TestRuntime_OpensAndClosesDependencies(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := config.Defaults()
	c.API.BaseURL = srv.URL()
	c.History.Path = filepath.Join(t.TempDir(), "history.db")
	c.Tracing.Enabled = true
	c.Tracing.Exporter = "file"
	c.Tracing.FilePath = filepath.Join(t.TempDir(), "traces.jsonl")

	rt, err := newRuntime(c, runtimeOptions{})
	require.NoError(t, err)
	require.NotNil(t, rt.history)
	require.True(t, rt.tracing.Enabled())
	require.Nil(t, rt.server)

	var out bytes.Buffer
	require.NoError(t, ask(context.Background(), &out, rt.client, rt.history, "Pytanie", "b2b"))
	require.NoError(t, rt.Close())

	_, err = os.Stat(c.Tracing.FilePath)
	require.NoError(t, err)

	families, err := rt.metrics.Registry().Gather()
	require.NoError(t, err)
	var requests bool
	for _, f := range families {
		if f.GetName() == "detax_api_requests_total" {
			requests = true
		}
	}
	require.True(t, requests)
}

func TestRuntime_NoHistory(t *testing.T) {
	c := config.Defaults()
	c.History.Path = filepath.Join(t.TempDir(), "history.db")

	rt, err := newRuntime(c, runtimeOptions{NoHistory: true})
	require.NoError(t, err)
	require.Nil(t, rt.history)
	require.NoError(t, rt.Close())

	_, err = os.Stat(c.History.Path)
	require.True(t, os.IsNotExist(err))
}
