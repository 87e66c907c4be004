package component

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/detax-ai/detax/internal/ui/styles"
)

// MountPoint is a named region of the screen.
type MountPoint struct {
	name     string
	sections []Section
	handlers map[handlerKey]Handler
	cursor   int
}

func newMountPoint(name string) *MountPoint {
	return &MountPoint{name: name, handlers: make(map[handlerKey]Handler)}
}

// Name returns the mount point identifier.
func (m *MountPoint) Name() string { return m.name }

// SetContent replaces all sections and drops every handler.
func (m *MountPoint) SetContent(markup Markup) {
	m.sections = append([]Section(nil), markup...)
	m.handlers = make(map[handlerKey]Handler)
	m.clampCursor()
}

// ReplaceSection swaps one section in place, appending it when absent,
// and drops the handlers bound to it.
func (m *MountPoint) ReplaceSection(s Section) {
	replaced := false
	for i := range m.sections {
		if m.sections[i].ID == s.ID {
			m.sections[i] = s
			replaced = true
			break
		}
	}
	if !replaced {
		m.sections = append(m.sections, s)
	}
	for k := range m.handlers {
		if k.section == s.ID {
			delete(m.handlers, k)
		}
	}
	m.clampCursor()
}

// Section returns the mounted section with id.
func (m *MountPoint) Section(id string) (Section, bool) {
	for _, s := range m.sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Sections returns the mounted sections in order.
func (m *MountPoint) Sections() []Section {
	return append([]Section(nil), m.sections...)
}

// Bind attaches h to (section, action). Binding the same pair again
// replaces the previous handler.
func (m *MountPoint) Bind(section, action string, h Handler) {
	m.handlers[handlerKey{section, action}] = h
}

// HandlerCount returns how many handlers are bound.
func (m *MountPoint) HandlerCount() int { return len(m.handlers) }

// Dispatch runs the handler bound to (section, action).
func (m *MountPoint) Dispatch(section, action, arg string) (tea.Cmd, bool) {
	h, ok := m.handlers[handlerKey{section, action}]
	if !ok {
		return nil, false
	}
	return h(arg), true
}

// Clear empties the mount point.
func (m *MountPoint) Clear() {
	m.sections = nil
	m.handlers = make(map[handlerKey]Handler)
	m.cursor = 0
}

// Empty reports whether nothing is mounted.
func (m *MountPoint) Empty() bool { return len(m.sections) == 0 }

// ItemRef locates a focusable item.
type ItemRef struct {
	Section string
	Item    Item
}

// Items flattens the focusable items of every section.
func (m *MountPoint) Items() []ItemRef {
	var refs []ItemRef
	for _, s := range m.sections {
		for _, it := range s.Items {
			if !it.Disabled {
				refs = append(refs, ItemRef{Section: s.ID, Item: it})
			}
		}
	}
	return refs
}

// Cursor returns the focused item, if any.
func (m *MountPoint) Cursor() (ItemRef, bool) {
	items := m.Items()
	if len(items) == 0 {
		return ItemRef{}, false
	}
	return items[m.cursor], true
}

// MoveCursor moves focus by delta, clamped to the item range.
func (m *MountPoint) MoveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

// JumpSection moves focus to the first item of the next (delta > 0) or
// previous section that has items.
func (m *MountPoint) JumpSection(delta int) {
	items := m.Items()
	if len(items) == 0 {
		return
	}
	current := items[m.cursor].Section
	i := m.cursor
	for i+delta >= 0 && i+delta < len(items) {
		i += delta
		if items[i].Section != current {
			for delta < 0 && i > 0 && items[i-1].Section == items[i].Section {
				i--
			}
			m.cursor = i
			return
		}
	}
}

// Activate dispatches the focused item.
func (m *MountPoint) Activate() (tea.Cmd, bool) {
	ref, ok := m.Cursor()
	if !ok {
		return nil, false
	}
	return m.Dispatch(ref.Section, ref.Item.Action, ref.Item.Arg)
}

// HandleMouse dispatches the item under a left click.
func (m *MountPoint) HandleMouse(msg tea.MouseMsg) (tea.Cmd, bool) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return nil, false
	}
	for i, ref := range m.Items() {
		if z := zone.Get(m.zoneID(i)); z != nil && z.InBounds(msg) {
			m.cursor = i
			return m.Dispatch(ref.Section, ref.Item.Action, ref.Item.Arg)
		}
	}
	return nil, false
}

func (m *MountPoint) zoneID(i int) string {
	return fmt.Sprintf("%s:%d", m.name, i)
}

func (m *MountPoint) clampCursor() {
	n := len(m.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the sections. focused highlights the cursor row.
func (m *MountPoint) View(width int, focused bool) string {
	var b strings.Builder
	index := 0
	for si, s := range m.sections {
		if si > 0 {
			b.WriteString("\n")
		}
		if s.Title != "" {
			b.WriteString(styles.TitleStyle.Render(s.Title))
			b.WriteString("\n")
		}
		if s.Body != "" {
			b.WriteString(s.Body)
			b.WriteString("\n")
		}
		if s.Live != nil {
			b.WriteString(s.Live())
			b.WriteString("\n")
		}
		if len(s.Items) == 0 && s.Body == "" && s.Empty != "" {
			b.WriteString(styles.MutedStyle.Render(s.Empty))
			b.WriteString("\n")
		}
		for _, it := range s.Items {
			if it.Disabled {
				b.WriteString(styles.MutedStyle.Render("  " + styles.TruncateString(it.Label, width-2)))
				b.WriteString("\n")
				continue
			}
			b.WriteString(zone.Mark(m.zoneID(index), m.renderItem(it, index, width, focused)))
			b.WriteString("\n")
			index++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *MountPoint) renderItem(it Item, index, width int, focused bool) string {
	prefix := "  "
	if focused && index == m.cursor {
		prefix = "> "
	}
	label := styles.TruncateString(it.Label, width-2)
	switch {
	case focused && index == m.cursor:
		return styles.SelectedStyle.Render(prefix + label)
	case it.Active:
		return styles.ActiveItemStyle.Render(prefix + label)
	default:
		return prefix + label
	}
}
