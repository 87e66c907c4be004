package sources

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Render draws the tabs, the filter, the active list and the verify box.
func (p *Panel) Render() component.Markup {
	return component.Markup{
		p.tabsSection(),
		p.filterSection(),
		p.contentSection(),
		p.verifySection(),
	}
}

func (p *Panel) tabsSection() component.Section {
	return component.Section{
		ID: SectionTabs,
		Items: []component.Item{
			{Action: "tab", Arg: string(TabSources), Label: "🔗 Źródła danych", Active: p.tab == TabSources},
			{Action: "tab", Arg: string(TabDocuments), Label: "📜 Akty prawne", Active: p.tab == TabDocuments},
		},
	}
}

func (p *Panel) filterSection() component.Section {
	s := component.Section{ID: SectionFilter}
	if p.tab != TabSources {
		return s
	}
	for _, f := range []struct{ value, label string }{
		{FilterAll, "Wszystkie"},
		{string(domain.SourceOfficial), "Urzędowe"},
		{string(domain.SourceCommercial), "Komercyjne"},
	} {
		s.Items = append(s.Items, component.Item{
			Action: "filter", Arg: f.value, Label: f.label, Active: p.filter == f.value,
		})
	}
	return s
}

func (p *Panel) contentSection() component.Section {
	if p.tab == TabDocuments {
		return p.documentsContent()
	}
	s := component.Section{ID: SectionContent, Empty: "Ładowanie źródeł..."}
	if p.loaded {
		s.Empty = "Brak źródeł tego typu"
	}
	var b strings.Builder
	for _, src := range p.Visible() {
		status := "✅"
		if !src.Active {
			status = "🔑"
		}
		fmt.Fprintf(&b, "%s %s %s\n", src.Type.Icon(), src.Name, status)
		if src.Description != "" {
			b.WriteString(styles.MutedStyle.Render("   "+src.Description) + "\n")
		}
		b.WriteString(styles.MutedStyle.Render("   "+src.BaseURL) + "\n")
	}
	s.Body = strings.TrimRight(b.String(), "\n")
	return s
}

// documentsContent groups legal acts by category in first-seen order.
func (p *Panel) documentsContent() component.Section {
	s := component.Section{ID: SectionContent, Empty: "Ładowanie dokumentów..."}
	if p.loaded {
		s.Empty = "Brak dokumentów"
	}
	var order []string
	grouped := make(map[string][]domain.LegalDocument)
	for _, d := range p.docs {
		if _, ok := grouped[d.Category]; !ok {
			order = append(order, d.Category)
		}
		grouped[d.Category] = append(grouped[d.Category], d)
	}
	var b strings.Builder
	for _, cat := range order {
		b.WriteString(styles.TitleStyle.Render(domain.CategoryLabel(cat)) + "\n")
		for _, d := range grouped[cat] {
			fmt.Fprintf(&b, "  • %s %s\n", d.Title, styles.MutedStyle.Render(d.ID))
		}
	}
	s.Body = strings.TrimRight(b.String(), "\n")
	return s
}

func (p *Panel) verifySection() component.Section {
	s := component.Section{ID: SectionVerify, Title: "🔍 Weryfikacja podmiotu"}
	for _, k := range domain.VerifyKinds() {
		s.Items = append(s.Items, component.Item{
			Action: "verify", Arg: string(k), Label: k.Label(), Active: k == p.kind,
		})
	}
	switch p.verify {
	case verifyRunning:
		s.Body = styles.MutedStyle.Render("Weryfikuję...")
	case verifyFailed:
		s.Body = styles.ErrorStyle.Render("Błąd weryfikacji")
	case verifyDone:
		s.Body = resultText(p.result)
	}
	return s
}

func resultText(v domain.Verification) string {
	if !v.Valid {
		reason := v.Error
		if reason == "" {
			reason = "Nie znaleziono"
		}
		return styles.ErrorStyle.Render("❌ " + reason)
	}
	lines := []string{styles.SuccessStyle.Render("✅ Zweryfikowano: ") + v.Identifier}
	if name := v.Name(); name != "" {
		lines = append(lines, "Nazwa: "+name)
	}
	if addr := v.Address(); addr != "" {
		lines = append(lines, "Adres: "+addr)
	}
	return strings.Join(lines, "\n")
}

// HandleKey routes keys while the panel is focused. An open dialog takes
// every key.
func (p *Panel) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if p.dialog != nil {
		var cmd tea.Cmd
		*p.dialog, cmd = p.dialog.Update(msg)
		return cmd, true
	}
	switch {
	case key.Matches(msg, keys.Sources.Tab):
		return p.ToggleTab(), true
	case key.Matches(msg, keys.Sources.Verify):
		return p.RequestVerify(p.kind), true
	case key.Matches(msg, keys.List.Filter):
		return p.CycleFilter(), true
	case key.Matches(msg, keys.List.Refresh):
		return p.Refresh(), true
	}
	return nil, false
}
