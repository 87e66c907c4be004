package workspace

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Section ids shared by every kind.
const (
	SectionSummary     = "summary"
	SectionFilter      = "filter"
	SectionToolbar     = "toolbar"
	SectionList        = "list"
	SectionForm        = "form"
	SectionActions     = "actions"
	SectionRecent      = "recent"
	SectionEvents      = "events"
	SectionFiles       = "files"
	SectionFileActions = "file-actions"
)

// Render draws the summary and the current view.
func (p *Panel[E, S]) Render() component.Markup {
	m := component.Markup{p.summarySection()}
	switch p.mode {
	case ModeList:
		m = append(m, p.filterSection(), p.toolbarSection())
		m = append(m, p.listSections()...)
	case ModeEdit:
		m = append(m, p.formSection(), p.actionsSection())
		if p.existing() {
			m = append(m, p.recentSection())
		}
	case ModeEvents:
		m = append(m, p.eventsSection())
	case ModeFiles:
		m = append(m, p.filesSection(), p.fileActionsSection())
	}
	return m
}

func (p *Panel[E, S]) summarySection() component.Section {
	s := p.kind.SummarySection(p.summary, p.loaded)
	s.ID = SectionSummary
	if s.Title == "" {
		s.Title = p.kind.Texts().Title
	}
	return s
}

func (p *Panel[E, S]) filterSection() component.Section {
	s := component.Section{ID: SectionFilter}
	for _, f := range p.filters() {
		s.Items = append(s.Items, component.Item{
			Action: "filter",
			Arg:    f.Value,
			Label:  "⏷ " + f.Label,
			Active: f.Value == p.filter,
		})
	}
	return s
}

func (p *Panel[E, S]) toolbarSection() component.Section {
	return component.Section{
		ID: SectionToolbar,
		Items: []component.Item{
			{Action: "refresh", Label: "🔄 Odśwież"},
			{Action: "new", Label: "➕ Nowy"},
		},
	}
}

func (p *Panel[E, S]) listSections() []component.Section {
	texts := p.kind.Texts()
	if !p.loaded {
		return []component.Section{{ID: SectionList, Empty: texts.Loading}}
	}
	var selected int64
	if p.editing {
		selected = p.kind.ID(p.current)
	}
	sections := p.kind.ListSections(p.items, p.filter, selected)
	if len(sections) == 0 {
		return []component.Section{{ID: SectionList, Empty: texts.Empty}}
	}
	return sections
}

func (p *Panel[E, S]) formSection() component.Section {
	title := "Nowy"
	if p.existing() {
		title = p.kind.Label(p.current)
	}
	return component.Section{
		ID:    SectionForm,
		Title: "✏️ " + title,
		Live: func() string {
			if p.form == nil {
				return ""
			}
			return p.form.View()
		},
	}
}

func (p *Panel[E, S]) actionsSection() component.Section {
	save := "Utwórz"
	if p.existing() {
		save = "Zapisz"
	}
	items := []component.Item{
		{Action: "save", Label: "💾 " + save, Disabled: p.busy},
		{Action: "cancel", Label: "Anuluj"},
	}
	if p.existing() {
		if p.files != nil {
			items = append(items, component.Item{Action: "files", Label: "📄 Pliki"})
		}
		items = append(items,
			component.Item{Action: "events", Label: "📜 Zobacz wszystkie zdarzenia →"},
			component.Item{Action: "delete", Label: "🗑️ Usuń"},
		)
	}
	return component.Section{ID: SectionActions, Items: items}
}

// recentSection previews the three newest events.
func (p *Panel[E, S]) recentSection() component.Section {
	s := component.Section{ID: SectionRecent, Title: "📜 Ostatnie zdarzenia", Empty: p.kind.Texts().NoEvents}
	recent := p.events
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var lines []string
	for i := len(recent) - 1; i >= 0; i-- {
		lines = append(lines, eventHeader(recent[i]))
	}
	s.Body = strings.Join(lines, "\n")
	return s
}

func (p *Panel[E, S]) eventsSection() component.Section {
	s := component.Section{
		ID:    SectionEvents,
		Title: "📜 Historia zdarzeń: " + p.kind.Label(p.current),
		Items: []component.Item{{Action: "back", Label: "← Wróć"}},
	}
	if len(p.events) == 0 {
		s.Body = styles.MutedStyle.Render(p.kind.Texts().NoEvents)
		return s
	}
	s.Body = renderEvents(p.events)
	return s
}

func (p *Panel[E, S]) filesSection() component.Section {
	s := component.Section{
		ID:    SectionFiles,
		Title: "📄 Pliki: " + p.kind.Label(p.current),
		Empty: "Brak plików",
	}
	for _, f := range p.fileList {
		label := domain.FileIcon(f.Filename) + " " + f.Filename
		if f.Path != "" {
			label += "  " + styles.MutedStyle.Render(f.Path)
		}
		s.Items = append(s.Items, component.Item{
			Action: "remove",
			Arg:    strconv.FormatInt(f.ID, 10),
			Label:  label + "  🗑️",
		})
	}
	return s
}

func (p *Panel[E, S]) fileActionsSection() component.Section {
	return component.Section{
		ID: SectionFileActions,
		Items: []component.Item{
			{Action: "add", Label: "➕ Dodaj plik"},
			{Action: "back", Label: "← Wróć"},
		},
	}
}

// bindView binds the items of the sections the current mode renders.
func (p *Panel[E, S]) bindView() {
	switch p.mode {
	case ModeList:
		p.Bind(SectionFilter, "filter", func(arg string) tea.Cmd { return p.SetFilter(arg) })
		p.Bind(SectionToolbar, "refresh", func(string) tea.Cmd { return p.Refresh() })
		p.Bind(SectionToolbar, "new", func(string) tea.Cmd { return p.New() })
		for _, s := range p.listSections() {
			p.Bind(s.ID, "open", func(arg string) tea.Cmd {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return nil
				}
				return p.Open(id)
			})
		}
	case ModeEdit:
		p.Bind(SectionActions, "save", func(string) tea.Cmd { return p.Save() })
		p.Bind(SectionActions, "cancel", func(string) tea.Cmd { return p.Back() })
		p.Bind(SectionActions, "events", func(string) tea.Cmd { return p.ShowEvents() })
		p.Bind(SectionActions, "files", func(string) tea.Cmd { return p.ShowFiles() })
		p.Bind(SectionActions, "delete", func(string) tea.Cmd { return p.RequestDelete() })
	case ModeEvents:
		p.Bind(SectionEvents, "back", func(string) tea.Cmd { return p.Back() })
	case ModeFiles:
		p.Bind(SectionFiles, "remove", func(arg string) tea.Cmd {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil
			}
			return p.RequestRemoveFile(id)
		})
		p.Bind(SectionFileActions, "add", func(string) tea.Cmd { return p.RequestAddFile() })
		p.Bind(SectionFileActions, "back", func(string) tea.Cmd { return p.Back() })
	}
}

// HandleKey routes keys while the panel is focused. An open dialog takes
// every key. In Edit, keys not bound to an editor action go to the form.
func (p *Panel[E, S]) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if p.dialog != nil {
		var cmd tea.Cmd
		*p.dialog, cmd = p.dialog.Update(msg)
		return cmd, true
	}

	switch p.mode {
	case ModeList:
		switch {
		case key.Matches(msg, keys.List.New):
			return p.New(), true
		case key.Matches(msg, keys.List.Refresh):
			return p.Refresh(), true
		case key.Matches(msg, keys.List.Filter):
			return p.CycleFilter(), true
		}
	case ModeEdit:
		switch {
		case key.Matches(msg, keys.Form.Save):
			return p.Save(), true
		case key.Matches(msg, keys.Form.Back):
			return p.Back(), true
		case key.Matches(msg, keys.Form.Delete):
			return p.RequestDelete(), true
		case key.Matches(msg, keys.Form.Events):
			return p.ShowEvents(), true
		case key.Matches(msg, keys.Form.Files):
			return p.ShowFiles(), true
		}
		if p.form != nil {
			return p.form.Update(msg), true
		}
	case ModeEvents:
		if key.Matches(msg, keys.Form.Back) {
			return p.Back(), true
		}
	case ModeFiles:
		switch {
		case key.Matches(msg, keys.Form.Back):
			return p.Back(), true
		case key.Matches(msg, keys.Form.AddFile):
			return p.RequestAddFile(), true
		}
	}
	return nil, false
}
