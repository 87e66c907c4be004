package chatpanel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/ui/styles"
)

const welcome = `Cześć! Jestem **Bielikiem** - polskim asystentem AI dla przedsiębiorców.

Mogę pomóc Ci z:

- **KSeF** - terminy, wymagania, procedury e-faktur
- **B2B** - ryzyko przekwalifikowania umowy na etat
- **ZUS** - składki, ubezpieczenia, obliczenia
- **VAT** - JPK, VAT OSS, rozliczenia

Wybierz kanał i zadaj pytanie!`

func (p *Panel) channelsSection() component.Section {
	s := component.Section{ID: SectionChannels, Title: "📢 Kanały"}
	for _, c := range domain.Channels() {
		s.Items = append(s.Items, component.Item{
			Action: "select",
			Arg:    c.ID,
			Label:  c.Icon + " # " + strings.ToLower(c.Name),
			Active: c.ID == p.channel,
		})
	}
	return s
}

func (p *Panel) transcriptSection() component.Section {
	return component.Section{
		ID:   SectionTranscript,
		Live: func() string { return p.viewport.View() },
	}
}

func (p *Panel) quickSection() component.Section {
	s := component.Section{ID: SectionQuick}
	if !p.showQuick {
		return s
	}
	s.Body = styles.MutedStyle.Render("Szybkie pytania:")
	for i, q := range domain.QuickQuestions() {
		s.Items = append(s.Items, component.Item{
			Action: "ask",
			Arg:    strconv.Itoa(i),
			Label:  q.Label,
		})
	}
	return s
}

func (p *Panel) inputSection() component.Section {
	return component.Section{
		ID: SectionInput,
		Live: func() string {
			info, _ := domain.LookupChannel(p.channel)
			hints := fmt.Sprintf("Moduł: %s  %d/%d",
				info.Name, len([]rune(p.input.Value())), p.cfg.MaxLength)
			return p.input.View() + "\n" + styles.MutedStyle.Render(hints)
		},
	}
}

func (p *Panel) sourcesSection() component.Section {
	s := component.Section{ID: SectionSources}
	if len(p.lastSources) == 0 {
		return s
	}
	if !p.showSources {
		s.Items = []component.Item{{
			Action: "toggle",
			Label:  fmt.Sprintf("📚 Zobacz źródła (%d)", len(p.lastSources)),
		}}
		return s
	}
	s.Title = "📚 Źródła"
	var b strings.Builder
	for _, src := range p.lastSources {
		b.WriteString(formatSource(src))
		b.WriteString("\n")
	}
	s.Body = strings.TrimRight(b.String(), "\n")
	s.Items = []component.Item{{Action: "toggle", Label: "× Zamknij"}}
	return s
}

func formatSource(src domain.ChatSource) string {
	origin := "Brak źródła"
	if src.Source != nil && *src.Source != "" {
		origin = *src.Source
	}
	pct := int(math.Round(src.Similarity * 100))
	return fmt.Sprintf("%s\n  %s %s",
		src.Title, styles.MutedStyle.Render(origin), styles.SuccessStyle.Render(fmt.Sprintf("%d%%", pct)))
}

// refreshTranscript re-renders the transcript into the viewport and
// scrolls to the bottom.
func (p *Panel) refreshTranscript() {
	width := max(10, p.width-2)
	var b strings.Builder
	for i, m := range p.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderMessage(m, width))
		b.WriteString("\n")
	}
	p.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	p.viewport.GotoBottom()
}

func (p *Panel) renderMessage(m Message, width int) string {
	if m.Role == RoleUser {
		return styles.UserLabelStyle.Render("👤 Ty") + "\n" + wordwrap.String(m.Text, width)
	}
	label := styles.AssistantLabelStyle.Render("🦅 Bielik")
	if m.Pending {
		return label + "\n" + p.spinner.View() + " " + styles.MutedStyle.Render("Bielik pisze...")
	}
	body := p.renderer.Render(m.Text)
	if m.Hint {
		body = styles.MutedStyle.Render(wordwrap.String(m.Text, width))
	}
	if len(m.Sources) > 0 {
		body += "\n" + styles.MutedStyle.Render(fmt.Sprintf("📚 Źródła: %d (ctrl+o)", len(m.Sources)))
	}
	return label + "\n" + body
}

// HandleKey routes keys while the panel is focused. Keys not bound to a
// chat action go to the input.
func (p *Panel) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Chat.Send):
		return p.SendMessage(p.input.Value()), true
	case key.Matches(msg, keys.Chat.NextChannel):
		return p.CycleChannel(1), true
	case key.Matches(msg, keys.Chat.PrevChannel):
		return p.CycleChannel(-1), true
	case key.Matches(msg, keys.Chat.Sources):
		p.ToggleSources()
		return nil, true
	case key.Matches(msg, keys.Chat.ScrollUp):
		p.viewport.HalfPageUp()
		return nil, true
	case key.Matches(msg, keys.Chat.ScrollDown):
		p.viewport.HalfPageDown()
		return nil, true
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd, true
}

// InputValue returns the text being typed.
func (p *Panel) InputValue() string { return p.input.Value() }

// SetInput replaces the text being typed.
func (p *Panel) SetInput(s string) { p.input.SetValue(s) }
