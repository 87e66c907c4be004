package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/detax-ai/detax/internal/ui/overlay"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Size used until the terminal reports its own.
const (
	defaultWidth  = 120
	defaultHeight = 36
)

const (
	headerHeight = 1
	footerHeight = 1
)

type columns struct {
	context, chat, workspace int
	height                   int
}

func (m Model) columns() columns {
	ctx := max(28, m.width/4)
	ws := max(36, m.width*3/10)
	chat := max(20, m.width-ctx-ws)
	return columns{
		context:   ctx,
		chat:      chat,
		workspace: ws,
		height:    max(8, m.height-headerHeight-footerHeight),
	}
}

// layout pushes the current size down to the panels that own widgets.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		m.width, m.height = defaultWidth, defaultHeight
	}
	c := m.columns()
	m.chat.SetSize(c.chat-2, c.height-2)
	m.documents.SetSize(c.workspace-2, c.height-2)
	m.projects.SetSize(c.workspace-2, c.height-2)
	m.documents.SetScreenSize(m.width, m.height)
	m.projects.SetScreenSize(m.width, m.height)
	m.sources.SetScreenSize(m.width, m.height)
	m.logOverlay.SetSize(m.width, m.height)
	m.help.Width = m.width
}

func frameZone(mount string) string { return "frame:" + mount }

func frameHit(mount string, msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return false
	}
	z := zone.Get(frameZone(mount))
	return z != nil && z.InBounds(msg)
}

func (m Model) frame(mount, title string, width, height int, focus Focus) string {
	mp := m.surface.Lookup(mount)
	if mp == nil {
		return ""
	}
	focused := m.focus == focus
	f := styles.Frame{Title: title, Width: width, Height: height, Focused: focused}
	return zone.Mark(frameZone(mount), f.Render(mp.View(width-2, focused)))
}

// View implements tea.Model.
func (m Model) View() string {
	c := m.columns()

	var headerLine string
	if mp := m.surface.Lookup(MountHeader); mp != nil {
		headerLine = mp.View(m.width, false)
	}

	wsTitle := "Dokumenty"
	switch m.workspace {
	case WorkspaceProjects:
		wsTitle = "Projekty"
	case WorkspaceSources:
		wsTitle = "Źródła"
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.frame(MountContext, "Kontekst", c.context, c.height, FocusContext),
		m.frame(MountChat, "Czat", c.chat, c.height, FocusChat),
		m.frame(m.workspaceMount(), wsTitle+" (ctrl+w)", c.workspace, c.height, FocusWorkspace),
	)

	footer := m.help.ShortHelpView(helpKeys{}.ShortHelp())
	view := lipgloss.JoinVertical(lipgloss.Left, headerLine, body, footer)

	if m.fullHelp {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderFocusColor).
			Padding(0, 1).
			Render(m.help.FullHelpView(helpKeys{}.FullHelp()))
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height}, box, view)
	}

	switch m.workspace {
	case WorkspaceProjects:
		view = m.projects.Overlay(view)
	case WorkspaceSources:
		view = m.sources.Overlay(view)
	default:
		view = m.documents.Overlay(view)
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	if m.debugMode && m.logOverlay.Visible() {
		view = m.logOverlay.Overlay(view)
	}

	return zone.Scan(view)
}
