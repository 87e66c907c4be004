package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > maxWidth-3 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "..."
}

// FormatTime renders a timestamp the way the panels show it, in local time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Badge renders a short bracketed label, e.g. a channel name.
func Badge(label string, active bool) string {
	if active {
		return ActiveItemStyle.Render("[" + label + "]")
	}
	return MutedStyle.Render("[" + label + "]")
}

// Button renders an action button.
func Button(label string, focused, danger bool) string {
	switch {
	case danger && focused:
		return DangerFocusedStyle.Render(label)
	case danger:
		return DangerButtonStyle.Render(label)
	case focused:
		return FocusedButtonStyle.Render(label)
	default:
		return PrimaryButtonStyle.Render(label)
	}
}
