// Package modal provides confirmation and short input dialogs.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/detax-ai/detax/internal/ui/overlay"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Input is one text field of an input dialog.
type Input struct {
	Key         string // key in SubmitMsg.Values
	Label       string
	Placeholder string
	Value       string
	Required    bool
	MaxLength   int
}

// Config describes a dialog. Without inputs it is a plain confirmation.
type Config struct {
	// ID is echoed in SubmitMsg and CancelMsg so the owner can tell its
	// dialogs apart.
	ID      string
	Title   string
	Message string
	Inputs  []Input
	Danger  bool
	Width   int // 0 means 44
}

// SubmitMsg is sent when the dialog is confirmed.
type SubmitMsg struct {
	ID     string
	Values map[string]string
}

// CancelMsg is sent on Esc or the cancel button.
type CancelMsg struct {
	ID string
}

const (
	onConfirm = -1
	onCancel  = -2
)

// Model is the dialog state. focus indexes inputs, or is onConfirm/onCancel.
type Model struct {
	cfg    Config
	inputs []textinput.Model
	focus  int
	width  int
	height int
}

// New builds a dialog. Input dialogs start on the first field, confirmations
// on the confirm button.
func New(cfg Config) Model {
	if cfg.Width == 0 {
		cfg.Width = 44
	}
	m := Model{cfg: cfg, focus: onConfirm}
	for i, in := range cfg.Inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = in.Placeholder
		ti.Width = cfg.Width - 6
		ti.CharLimit = in.MaxLength
		ti.SetValue(in.Value)
		if i == 0 {
			ti.Focus()
			m.focus = 0
		}
		m.inputs = append(m.inputs, ti)
	}
	return m
}

// ID returns the dialog id.
func (m Model) ID() string { return m.cfg.ID }

// Init starts the cursor blink in input dialogs.
func (m Model) Init() tea.Cmd {
	if len(m.inputs) > 0 {
		return textinput.Blink
	}
	return nil
}

// Update handles keys and window sizes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, m.cancel()
		case "tab", "down", "ctrl+n":
			return m.move(1), nil
		case "shift+tab", "up", "ctrl+p":
			return m.move(-1), nil
		case "left", "right":
			if m.focus < 0 {
				if m.focus == onConfirm {
					m.focus = onCancel
				} else {
					m.focus = onConfirm
				}
				return m, nil
			}
		case "enter":
			switch {
			case m.focus >= 0:
				return m.move(1), nil
			case m.focus == onCancel:
				return m, m.cancel()
			default:
				return m, m.submit()
			}
		case "y":
			if len(m.inputs) == 0 {
				return m, m.submit()
			}
		case "n":
			if len(m.inputs) == 0 {
				return m, m.cancel()
			}
		}
	}

	if m.focus >= 0 {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) cancel() tea.Cmd {
	id := m.cfg.ID
	return func() tea.Msg { return CancelMsg{ID: id} }
}

// submit refuses while a required field is blank.
func (m Model) submit() tea.Cmd {
	values := make(map[string]string, len(m.inputs))
	for i, in := range m.cfg.Inputs {
		v := strings.TrimSpace(m.inputs[i].Value())
		if in.Required && v == "" {
			return nil
		}
		values[in.Key] = v
	}
	id := m.cfg.ID
	return func() tea.Msg { return SubmitMsg{ID: id, Values: values} }
}

// move cycles focus through inputs, confirm and cancel.
func (m Model) move(delta int) Model {
	order := make([]int, 0, len(m.inputs)+2)
	for i := range m.inputs {
		order = append(order, i)
	}
	order = append(order, onConfirm, onCancel)

	pos := 0
	for i, f := range order {
		if f == m.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(order)) % len(order)

	if m.focus >= 0 {
		m.inputs[m.focus].Blur()
	}
	m.focus = order[pos]
	if m.focus >= 0 {
		m.inputs[m.focus].Focus()
	}
	return m
}

// View renders the dialog box.
func (m Model) View() string {
	width := max(m.cfg.Width, lipgloss.Width(m.cfg.Title)+2)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.PaddingLeft(1).Render(m.cfg.Title))
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	var body strings.Builder
	if m.cfg.Message != "" {
		body.WriteString(lipgloss.NewStyle().Width(width - 2).Render(m.cfg.Message))
		body.WriteString("\n\n")
	}
	for i, in := range m.cfg.Inputs {
		frame := styles.Frame{Title: in.Label, Width: width - 2, Height: 3, Focused: m.focus == i}
		body.WriteString(frame.Render(m.inputs[i].View()))
		body.WriteString("\n")
	}

	confirm := "Potwierdź"
	if len(m.inputs) > 0 {
		confirm = "Zapisz"
	}
	body.WriteString(styles.Button(confirm, m.focus == onConfirm, m.cfg.Danger))
	body.WriteString("  ")
	body.WriteString(styles.Button("Anuluj", m.focus == onCancel, false))

	b.WriteString(lipgloss.NewStyle().Padding(1, 1).Render(body.String()))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Width(width).
		Render(b.String())
}

// SetSize records the viewport for centering.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Overlay renders the dialog centered over bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{Width: m.width, Height: m.height}, m.View(), bg)
}
