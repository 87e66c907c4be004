package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/detax-ai/detax/internal/domain"
)

func TestNew_Hidden(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestShow_Levels(t *testing.T) {
	cases := map[domain.AlertLevel]string{
		domain.AlertError:   "❌",
		domain.AlertWarn:    "⚠️",
		domain.AlertSuccess: "✅",
		domain.AlertInfo:    "ℹ️",
	}
	for level, icon := range cases {
		m, cmd := New().Show(domain.Alert{Level: level, Text: "Zapisano"}, time.Second)
		require.NotNil(t, cmd)
		require.True(t, m.Visible())
		require.Contains(t, m.View(), icon)
		require.Contains(t, m.View(), "Zapisano")
	}
}

func TestShow_EmptyTextStaysHidden(t *testing.T) {
	m, _ := New().Show(domain.Alert{}, time.Second)
	require.False(t, m.Visible())
}

func TestDismiss_IgnoresStaleSeq(t *testing.T) {
	m, _ := New().Show(domain.Alert{Text: "pierwszy"}, time.Second)
	m, _ = m.Show(domain.Alert{Text: "drugi"}, time.Second)

	m = m.Update(DismissMsg{Seq: 1})
	require.True(t, m.Visible())
	require.Equal(t, "drugi", m.Alert().Text)

	m = m.Update(DismissMsg{Seq: 2})
	require.False(t, m.Visible())
}

func TestDismissCommandCarriesSeq(t *testing.T) {
	_, cmd := New().Show(domain.Alert{Text: "x"}, time.Millisecond)
	require.Equal(t, DismissMsg{Seq: 1}, cmd())
}

func TestOverlay(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 40)+"\n", 9) + strings.Repeat(".", 40)
	m, _ := New().Show(domain.Alert{Level: domain.AlertError, Text: "Błąd"}, time.Second)

	out := m.Overlay(bg, 40, 10)
	require.Contains(t, out, "Błąd")
	require.Equal(t, bg, New().Overlay(bg, 40, 10))
}
