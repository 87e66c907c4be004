package workspace

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// input is one editor field. Exactly one of text, area or options is in
// use.
type input struct {
	field  Field
	text   textinput.Model
	area   textarea.Model
	choice int
}

func (in *input) value() string {
	switch {
	case len(in.field.Options) > 0:
		return in.field.Options[in.choice]
	case in.field.Multiline:
		return in.area.Value()
	default:
		return in.text.Value()
	}
}

// form is the editor: a column of inputs with one focused.
type form struct {
	inputs []*input
	focus  int
	width  int
}

func newForm(fields []Field, values map[string]string, width int) *form {
	f := &form{width: width}
	for _, fd := range fields {
		in := &input{field: fd}
		v := values[fd.Key]
		switch {
		case len(fd.Options) > 0:
			for i, o := range fd.Options {
				if o == v {
					in.choice = i
				}
			}
		case fd.Multiline:
			ta := textarea.New()
			ta.Placeholder = fd.Placeholder
			ta.ShowLineNumbers = false
			ta.CharLimit = fd.MaxLength
			ta.SetHeight(6)
			ta.SetValue(v)
			in.area = ta
		default:
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = fd.Placeholder
			ti.CharLimit = fd.MaxLength
			ti.SetValue(v)
			in.text = ti
		}
		f.inputs = append(f.inputs, in)
	}
	f.setWidth(width)
	f.focusAt(0)
	return f
}

// Values returns the current input, keyed by field.
func (f *form) Values() map[string]string {
	out := make(map[string]string, len(f.inputs))
	for _, in := range f.inputs {
		out[in.field.Key] = in.value()
	}
	return out
}

// set replaces one field's value. A value outside a choice field's
// options is ignored.
func (f *form) set(k, v string) {
	for _, in := range f.inputs {
		if in.field.Key != k {
			continue
		}
		switch {
		case len(in.field.Options) > 0:
			for i, o := range in.field.Options {
				if o == v {
					in.choice = i
				}
			}
		case in.field.Multiline:
			in.area.SetValue(v)
		default:
			in.text.SetValue(v)
		}
	}
}

func (f *form) setWidth(width int) {
	f.width = width
	for _, in := range f.inputs {
		switch {
		case len(in.field.Options) > 0:
		case in.field.Multiline:
			in.area.SetWidth(max(10, width-2))
		default:
			in.text.Width = max(10, width-2)
		}
	}
}

func (f *form) focusAt(i int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	f.focus = (i%len(f.inputs) + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for j, in := range f.inputs {
		focused := j == f.focus
		switch {
		case len(in.field.Options) > 0:
		case in.field.Multiline && focused:
			cmd = in.area.Focus()
		case in.field.Multiline:
			in.area.Blur()
		case focused:
			cmd = in.text.Focus()
		default:
			in.text.Blur()
		}
	}
	return cmd
}

// Update routes a key to the focused input. ctrl+n and ctrl+p move focus;
// ←/→ cycle a choice field.
func (f *form) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Form.NextField):
		return f.focusAt(f.focus + 1)
	case key.Matches(msg, keys.Form.PrevField):
		return f.focusAt(f.focus - 1)
	}
	if len(f.inputs) == 0 {
		return nil
	}
	in := f.inputs[f.focus]
	if n := len(in.field.Options); n > 0 {
		switch {
		case key.Matches(msg, keys.List.Left):
			in.choice = (in.choice - 1 + n) % n
		case key.Matches(msg, keys.List.Right):
			in.choice = (in.choice + 1) % n
		}
		return nil
	}
	var cmd tea.Cmd
	if in.field.Multiline {
		in.area, cmd = in.area.Update(msg)
	} else {
		in.text, cmd = in.text.Update(msg)
	}
	return cmd
}

func (f *form) View() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := in.field.Label
		if i == f.focus {
			label = styles.SelectedStyle.Render("› " + label)
		} else {
			label = styles.MutedStyle.Render("  " + label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		switch {
		case len(in.field.Options) > 0:
			b.WriteString("  " + renderChoice(in))
		case in.field.Multiline:
			b.WriteString(in.area.View())
		default:
			b.WriteString("  " + in.text.View())
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderChoice(in *input) string {
	var parts []string
	for i, o := range in.field.Options {
		label := o
		if label == "" {
			label = "Wybierz..."
		}
		if i == in.choice {
			parts = append(parts, styles.ActiveItemStyle.Render("● "+label))
		} else {
			parts = append(parts, styles.MutedStyle.Render("○ "+label))
		}
	}
	return strings.Join(parts, "  ") + styles.MutedStyle.Render("  [←/→]")
}
