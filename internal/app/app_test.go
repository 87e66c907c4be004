package app

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/config"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/panel/contextpanel"
	"github.com/detax-ai/detax/internal/panel/sources"
	"github.com/detax-ai/detax/internal/panel/workspace"
	"github.com/detax-ai/detax/internal/testutil"
	"github.com/detax-ai/detax/internal/ui/toaster"
	"github.com/detax-ai/detax/internal/watcher"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type harness struct {
	t   *testing.T
	srv *testutil.Server
	m   Model
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.UI.HealthInterval = 0
	cfg.History.Enabled = false
	return cfg
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	srv := testutil.NewStandardServer(t)
	client, err := api.New(api.Config{BaseURL: srv.URL(), Prefix: testutil.Prefix})
	require.NoError(t, err)

	opts := Options{Config: testConfig(), Client: client}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	h := &harness{t: t, srv: srv, m: m}
	h.pump(h.m.Init())
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) pump(cmd tea.Cmd) []tea.Msg {
	return testutil.Pump(h.update, cmd)
}

func (h *harness) key(k tea.KeyMsg) {
	h.pump(h.update(k))
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestNew_Validates(t *testing.T) {
	_, err := New(Options{Config: testConfig()})
	require.Error(t, err)

	client, err := api.New(api.Config{BaseURL: "http://localhost:8005", Prefix: "/api/v1"})
	require.NoError(t, err)
	bad := testConfig()
	bad.Chat.DefaultChannel = "crypto"
	_, err = New(Options{Config: bad, Client: client})
	require.Error(t, err)
}

func TestInit_MountsEveryPanel(t *testing.T) {
	h := newHarness(t, nil)

	require.True(t, h.m.header.Mounted())
	require.True(t, h.m.context.Mounted())
	require.True(t, h.m.chat.Mounted())
	require.True(t, h.m.documents.Mounted())
	require.True(t, h.m.projects.Mounted())
	require.True(t, h.m.sources.Mounted())

	require.Len(t, h.m.context.Contacts(), 3)
	require.Len(t, h.m.documents.Items(), 3)
	require.Len(t, h.m.projects.Items(), 4)
	require.Len(t, h.m.sources.Sources(), 5)
	require.Equal(t, 1, h.srv.RequestCount(http.MethodGet, "/health"))
}

func TestFocus_CyclesAndSwitchesWorkspace(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, FocusChat, h.m.Focus())

	h.key(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusWorkspace, h.m.Focus())
	h.key(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusContext, h.m.Focus())
	h.key(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, FocusWorkspace, h.m.Focus())

	require.Equal(t, WorkspaceDocuments, h.m.ActiveWorkspace())
	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Equal(t, WorkspaceProjects, h.m.ActiveWorkspace())
	require.Contains(t, h.m.View(), "Projekty")
	require.Contains(t, h.m.View(), "Faktury KSeF")

	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Equal(t, WorkspaceSources, h.m.ActiveWorkspace())
	require.Contains(t, h.m.View(), "Źródła (ctrl+w)")
	h.key(runes("t"))
	require.Equal(t, sources.TabDocuments, h.m.sources.Tab())

	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})
	require.Equal(t, WorkspaceDocuments, h.m.ActiveWorkspace())
}

func TestVerify_DialogOverlayAndToast(t *testing.T) {
	h := newHarness(t, nil)
	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})
	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})

	h.key(runes("v"))
	require.True(t, h.m.sources.DialogOpen())
	require.Contains(t, h.m.View(), "Weryfikacja podmiotu: NIP (CEIDG)")

	h.key(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusWorkspace, h.m.Focus(), "the dialog keeps the keys")

	h.key(tea.KeyMsg{Type: tea.KeyShiftTab})
	h.key(runes(testutil.KnownNIP))
	h.key(tea.KeyMsg{Type: tea.KeyEnter})
	h.key(tea.KeyMsg{Type: tea.KeyEnter})
	h.key(tea.KeyMsg{Type: tea.KeyEnter})

	require.False(t, h.m.sources.DialogOpen())
	toast, ok := h.m.Toast()
	require.True(t, ok)
	require.Equal(t, domain.AlertInfo, toast.Level)
	require.Equal(t, "✅ Zweryfikowano: "+testutil.KnownNIP+" (Acme Sp. z o.o.)", toast.Text)
}

func TestKeys_GoToFocusedPanel(t *testing.T) {
	h := newHarness(t, nil)

	h.key(runes("n"))
	require.Equal(t, "n", h.m.chat.InputValue())
	require.Equal(t, workspace.ModeList, h.m.documents.Mode())

	h.key(tea.KeyMsg{Type: tea.KeyTab})
	h.key(runes("n"))
	require.Equal(t, workspace.ModeEdit, h.m.documents.Mode())
	require.Equal(t, "n", h.m.chat.InputValue())
}

func TestKeys_ListNavigationActivatesItem(t *testing.T) {
	h := newHarness(t, nil)
	h.key(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, FocusContext, h.m.Focus())

	h.key(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "Acme", h.m.context.State().Contact)
}

func TestRecommendedChannel_SwitchesChat(t *testing.T) {
	h := newHarness(t, nil)
	h.pump(h.m.context.SelectContact("Acme"))
	h.pump(h.m.context.SelectProject(testutil.AcmeInvoicesID))

	mp := h.m.surface.Lookup(MountContext)
	cmd, ok := mp.Dispatch(contextpanel.SectionChannels, "select", "ksef")
	require.True(t, ok)
	h.pump(cmd)

	require.Equal(t, "ksef", h.m.chat.Channel())
	require.Equal(t, "Acme", h.m.context.State().Contact)
}

func TestDialog_TakesKeysBeforeFocusRing(t *testing.T) {
	h := newHarness(t, nil)
	h.key(tea.KeyMsg{Type: tea.KeyCtrlW})
	h.pump(h.m.projects.Open(testutil.OrphanProjectID))
	h.pump(h.m.projects.RequestDelete())
	require.True(t, h.m.projects.DialogOpen())
	require.Contains(t, h.m.View(), "Czy na pewno chcesz usunąć ten projekt?")

	h.key(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusWorkspace, h.m.Focus())
	require.True(t, h.m.projects.DialogOpen())

	h.key(runes("n"))
	require.False(t, h.m.projects.DialogOpen())
	require.Zero(t, h.srv.RequestCount(http.MethodPost, testutil.Prefix+"/commands/projects/delete"))
}

func TestAlert_ShowsToastUntilDismissed(t *testing.T) {
	h := newHarness(t, nil)

	msgs := testutil.Drain(h.m.bus.Emit(domain.TopicAlert, domain.Alert{Level: domain.AlertWarn, Text: "Uwaga"}))
	require.Len(t, msgs, 1)
	cmd := h.update(msgs[0])
	require.NotNil(t, cmd)

	alert, visible := h.m.Toast()
	require.True(t, visible)
	require.Equal(t, "Uwaga", alert.Text)
	require.Contains(t, h.m.View(), "Uwaga")

	h.update(toaster.DismissMsg{Seq: 1})
	_, visible = h.m.Toast()
	require.False(t, visible)
}

func TestSaveFailure_ReachesToaster(t *testing.T) {
	h := newHarness(t, nil)
	h.srv.Fail(http.MethodPost, testutil.Prefix+"/commands/documents/update", http.StatusInternalServerError)

	h.pump(h.m.documents.Open(testutil.DocVATID))
	h.m.documents.SetField("content", "nowa treść")
	h.pump(h.m.documents.Save())

	alert, visible := h.m.Toast()
	require.True(t, visible)
	require.Equal(t, domain.AlertError, alert.Level)
	require.Equal(t, workspace.ModeEdit, h.m.documents.Mode())
}

func TestLogOverlay_OnlyInDebugMode(t *testing.T) {
	h := newHarness(t, nil)
	h.key(tea.KeyMsg{Type: tea.KeyCtrlX})
	require.False(t, h.m.LogsVisible())

	h = newHarness(t, func(o *Options) { o.Debug = true })
	h.key(tea.KeyMsg{Type: tea.KeyCtrlX})
	require.True(t, h.m.LogsVisible())
	require.Contains(t, h.m.View(), "Logi")

	// keys go to the overlay while it is open
	h.key(runes("n"))
	require.Empty(t, h.m.chat.InputValue())

	h.key(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, h.m.LogsVisible())
}

func TestConfigChange_Reloads(t *testing.T) {
	next := testConfig()
	next.UI.MarkdownStyle = "light"
	var reloadErr error
	h := newHarness(t, func(o *Options) {
		o.Reload = func() (config.Config, error) { return next, reloadErr }
	})

	h.pump(h.update(watcher.ChangedMsg{Path: "config.yaml"}))

	require.Equal(t, "light", h.m.Config().UI.MarkdownStyle)
	alert, visible := h.m.Toast()
	require.True(t, visible)
	require.Equal(t, "Konfiguracja przeładowana", alert.Text)

	reloadErr = errors.New("yaml: line 3")
	h.pump(h.update(watcher.ChangedMsg{Path: "config.yaml"}))
	alert, _ = h.m.Toast()
	require.Equal(t, domain.AlertError, alert.Level)
	require.Contains(t, alert.Text, "yaml: line 3")
	require.Equal(t, "light", h.m.Config().UI.MarkdownStyle)
}

func TestBusEmits_Counted(t *testing.T) {
	m := metrics.New(nil)
	h := newHarness(t, func(o *Options) { o.Metrics = m })

	h.pump(h.m.context.ClearContext())

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "detax_bus_emits_total" {
			found = true
		}
	}
	require.True(t, found)
}

func TestClose_DestroysPanels(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.m.Close())

	require.False(t, h.m.chat.Mounted())
	require.Zero(t, h.m.bus.HandlerCount(domain.TopicChannelSelected))
	require.Equal(t, 1, h.m.bus.HandlerCount(domain.TopicAlert))
}

func TestApp_EndToEnd(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	client, err := api.New(api.Config{BaseURL: srv.URL(), Prefix: testutil.Prefix})
	require.NoError(t, err)
	m, err := New(Options{Config: testConfig(), Client: client})
	require.NoError(t, err)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(140, 40))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Połączono z Bielikiem")) &&
			bytes.Contains(out, []byte("KSeF 2026")) &&
			bytes.Contains(out, []byte("Acme"))
	}, teatest.WithDuration(5*time.Second))

	tm.Type("Czym jest KSeF?")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// the source list renders only after the answer replaces the placeholder
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Ustawa o VAT"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Equal(t, 1, srv.RequestCount(http.MethodPost, testutil.Prefix+"/chat"))
	require.False(t, final.chat.Loading())
}
