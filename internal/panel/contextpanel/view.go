package contextpanel

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/ui/styles"
)

func (p *Panel) contactsSection() component.Section {
	s := component.Section{ID: SectionContacts, Title: "👥 Kontakty", Empty: "Ładowanie..."}
	if p.loaded {
		s.Empty = "Brak kontaktów"
	}
	for _, c := range p.contacts {
		s.Items = append(s.Items, component.Item{
			Action: "select",
			Arg:    c.Name,
			Label:  fmt.Sprintf("👤 %s (%d)", c.Name, len(c.Projects)),
			Active: c.Name == p.state.Contact,
		})
	}
	return s
}

func (p *Panel) projectsSection() component.Section {
	s := component.Section{ID: SectionProjects, Title: "📁 Projekty"}
	if p.state.Contact == "" {
		s.Empty = "Wybierz kontakt"
		return s
	}
	c, _ := p.contact(p.state.Contact)
	s.Empty = "Brak projektów"
	for _, project := range c.Projects {
		label := "📋 " + project.Name
		if project.Description != "" {
			label += " · " + project.Description
		}
		label += fmt.Sprintf(" (%d plików)", len(project.Files))
		s.Items = append(s.Items, component.Item{
			Action: "select",
			Arg:    strconv.FormatInt(project.ID, 10),
			Label:  label,
			Active: p.state.Project != nil && p.state.Project.ID == project.ID,
		})
	}
	return s
}

func (p *Panel) filesSection() component.Section {
	s := component.Section{ID: SectionFiles, Title: "📄 Pliki"}
	if p.state.Project == nil {
		s.Empty = "Wybierz projekt"
		return s
	}
	s.Empty = "Brak plików"
	for _, f := range p.state.Project.Files {
		s.Items = append(s.Items, component.Item{
			Action: "select",
			Arg:    strconv.FormatInt(f.ID, 10),
			Label:  domain.FileIcon(f.Filename) + " " + f.Filename,
			Active: p.state.File != nil && p.state.File.ID == f.ID,
		})
	}
	return s
}

func (p *Panel) channelsSection() component.Section {
	s := component.Section{
		ID:    SectionChannels,
		Title: "📢 Rekomendowane kanały",
		Empty: "Wybierz kontekst, aby zobaczyć kanały",
	}
	for _, ch := range p.state.Channels {
		s.Items = append(s.Items, component.Item{
			Action: "select",
			Arg:    ch.ID,
			Label:  "# " + ch.Name,
		})
	}
	return s
}

func (p *Panel) summarySection() component.Section {
	s := component.Section{ID: SectionSummary}
	if p.state.Empty() {
		s.Body = styles.MutedStyle.Render("Wybierz kontekst do rozmowy z Bielikiem")
		return s
	}
	s.Body = p.state.Path()
	s.Items = []component.Item{{Action: "clear", Label: "Wyczyść"}}
	return s
}

// HandleKey handles the panel's own shortcuts.
func (p *Panel) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.List.Clear):
		return p.ClearContext(), true
	case key.Matches(msg, keys.List.Refresh):
		return p.loadHierarchy(), true
	}
	return nil, false
}
