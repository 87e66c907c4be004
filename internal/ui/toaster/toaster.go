// Package toaster shows non-blocking alerts over the layout.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/ui/overlay"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// DefaultDuration is how long an alert stays up.
const DefaultDuration = 4 * time.Second

// Model holds the current toast. Showing a new alert replaces the old one.
type Model struct {
	alert   domain.Alert
	visible bool
	seq     int
}

// New creates a hidden toaster.
func New() Model {
	return Model{}
}

// DismissMsg hides the toast it was scheduled for. Dismissals for an
// already replaced toast are ignored.
type DismissMsg struct {
	Seq int
}

// Show displays alert and returns the command that dismisses it after d.
func (m Model) Show(alert domain.Alert, d time.Duration) (Model, tea.Cmd) {
	m.alert = alert
	m.visible = alert.Text != ""
	m.seq++
	seq := m.seq
	return m, tea.Tick(d, func(time.Time) tea.Msg { return DismissMsg{Seq: seq} })
}

// Update handles DismissMsg.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.Seq == m.seq {
		m.visible = false
	}
	return m
}

// Visible reports whether a toast is showing.
func (m Model) Visible() bool { return m.visible }

// Alert returns the current alert.
func (m Model) Alert() domain.Alert { return m.alert }

// View renders the toast box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).MaxWidth(60)

	var icon string
	switch m.alert.Level {
	case domain.AlertError:
		style = style.BorderForeground(styles.StatusErrorColor)
		icon = "❌ "
	case domain.AlertWarn:
		style = style.BorderForeground(styles.StatusWarningColor)
		icon = "⚠️ "
	case domain.AlertSuccess:
		style = style.BorderForeground(styles.StatusSuccessColor)
		icon = "✅ "
	default:
		style = style.BorderForeground(styles.StatusInfoColor)
		icon = "ℹ️ "
	}
	return style.Render(icon + m.alert.Text)
}

// Overlay draws the toast in the top-right corner of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.TopRight,
		PadX:     1,
		PadY:     1,
	}, m.View(), bg)
}
