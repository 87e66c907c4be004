package logoverlay

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/pubsub"
)

func entry(level log.Level, msg string) string {
	return log.Format(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), level, log.CatAPI, msg)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func shown(t *testing.T) Model {
	t.Helper()
	m := New()
	m.SetSize(100, 40)
	m.Toggle()
	require.True(t, m.Visible())
	return m
}

func TestNew(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, log.LevelDebug, m.MinLevel())
}

func TestToggle(t *testing.T) {
	m := New()
	m.Toggle()
	require.True(t, m.Visible())
	m.Toggle()
	require.False(t, m.Visible())
}

func TestLogEvents_CollectedWhileHidden(t *testing.T) {
	m := New()
	m, _ = m.Update(log.LogEvent{Type: pubsub.CreatedEvent, Payload: entry(log.LevelInfo, "GET /documents") + "\n"})

	require.Len(t, m.Entries(), 1)
	require.False(t, strings.HasSuffix(m.Entries()[0], "\n"))

	m.SetSize(100, 40)
	m.Toggle()
	require.Contains(t, m.View(), "GET /documents")
}

func TestAppend_DropsOldest(t *testing.T) {
	m := New()
	for i := 0; i < MaxEntries+10; i++ {
		m.Append(fmt.Sprintf("entry %d", i))
	}
	require.Len(t, m.Entries(), MaxEntries)
	require.Equal(t, "entry 10", m.Entries()[0])
}

func TestKeys_IgnoredWhenHidden(t *testing.T) {
	m := New()
	m, cmd := m.Update(key("e"))
	require.Nil(t, cmd)
	require.Equal(t, log.LevelDebug, m.MinLevel())
}

func TestFilterKeys(t *testing.T) {
	m := shown(t)
	m.Append(entry(log.LevelDebug, "debug line"))
	m.Append(entry(log.LevelWarn, "warn line"))
	m.Append(entry(log.LevelError, "error line"))

	for _, tc := range []struct {
		key   string
		level log.Level
		shows []string
		hides []string
	}{
		{"w", log.LevelWarn, []string{"warn line", "error line"}, []string{"debug line"}},
		{"e", log.LevelError, []string{"error line"}, []string{"warn line", "debug line"}},
		{"i", log.LevelInfo, []string{"warn line"}, []string{"debug line"}},
		{"d", log.LevelDebug, []string{"debug line", "warn line"}, nil},
	} {
		m, _ = m.Update(key(tc.key))
		require.Equal(t, tc.level, m.MinLevel(), tc.key)
		view := m.View()
		for _, s := range tc.shows {
			require.Contains(t, view, s, tc.key)
		}
		for _, s := range tc.hides {
			require.NotContains(t, view, s, tc.key)
		}
	}
}

func TestClear(t *testing.T) {
	m := shown(t)
	m.Append(entry(log.LevelInfo, "something"))

	m, _ = m.Update(key("c"))

	require.Empty(t, m.Entries())
	require.Contains(t, m.View(), "Brak wpisów")
}

func TestClose(t *testing.T) {
	for _, k := range []string{"esc", "ctrl+x"} {
		m := shown(t)
		m, cmd := m.Update(key(k))
		require.False(t, m.Visible(), k)
		require.NotNil(t, cmd, k)
		require.Equal(t, CloseMsg{}, cmd())
	}
}

func TestView_TruncatesLongEntries(t *testing.T) {
	m := shown(t)
	m.Append(entry(log.LevelInfo, strings.Repeat("x", 400)))
	for _, line := range strings.Split(m.View(), "\n") {
		require.LessOrEqual(t, len([]rune(line)), 200)
	}
	require.Contains(t, m.View(), "...")
}

func TestColorize_ByLevel(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	errLine := colorize(entry(log.LevelError, "boom"), log.LevelError, 200)
	dbgLine := colorize(entry(log.LevelDebug, "boom"), log.LevelDebug, 200)

	require.Contains(t, errLine, "\x1b[")
	require.NotEqual(t, strings.SplitN(errLine, "m", 2)[0], strings.SplitN(dbgLine, "m", 2)[0])
}

func TestOverlay(t *testing.T) {
	m := New()
	bg := strings.Repeat(strings.Repeat(".", 100)+"\n", 39) + strings.Repeat(".", 100)
	require.Equal(t, bg, m.Overlay(bg))

	m.SetSize(100, 40)
	m.Toggle()
	out := m.Overlay(bg)
	require.NotEqual(t, bg, out)
	require.Contains(t, out, "Logi")
	require.Contains(t, out, "[c] Wyczyść")
}
