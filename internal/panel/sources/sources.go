// Package sources implements the legal data sources panel: the catalogue
// of official and commercial sources, the key legal acts, and entity
// verification against the NIP, KRS and VIES registries.
package sources

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/ui/modal"
)

// Section ids.
const (
	SectionTabs    = "tabs"
	SectionFilter  = "filter"
	SectionContent = "content"
	SectionVerify  = "verify"
)

// Tab selects what the content section lists.
type Tab string

const (
	TabSources   Tab = "sources"
	TabDocuments Tab = "documents"
)

// Filter values. FilterAll keeps every source type.
const FilterAll = "all"

const (
	dialogVerify = "sources:verify"
	aggregate    = "sources"
)

// Client is the part of the API the panel uses.
type Client interface {
	Sources(ctx context.Context, sourceType domain.SourceType) ([]domain.DataSource, error)
	LegalDocuments(ctx context.Context) ([]domain.LegalDocument, error)
	Verify(ctx context.Context, identifier string, kind domain.VerifyKind) (domain.Verification, error)
}

// Config configures the panel.
type Config struct {
	MountID string
	Metrics *metrics.Metrics
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("sources: mount id is required")
	}
	return nil
}

type loadMsg struct {
	gen     int
	sources []domain.DataSource
	docs    []domain.LegalDocument
	err     error
}

type verifyMsg struct {
	gen    int
	result domain.Verification
	err    error
}

// verifyState is what the verify section shows.
type verifyState int

const (
	verifyIdle verifyState = iota
	verifyRunning
	verifyDone
	verifyFailed
)

// Panel is the data sources component.
type Panel struct {
	component.Base

	cfg    Config
	client Client

	sources []domain.DataSource
	docs    []domain.LegalDocument
	loaded  bool
	loadGen int

	tab    Tab
	filter string

	kind      domain.VerifyKind
	verify    verifyState
	result    domain.Verification
	verifyGen int

	dialog           *modal.Model
	screenW, screenH int
}

// New builds the panel.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("sources: client is required")
	}
	return &Panel{
		Base:   component.NewBase("sources", cfg.MountID, surface, bus),
		cfg:    cfg,
		client: client,
		tab:    TabSources,
		filter: FilterAll,
		kind:   domain.VerifyNIP,
	}, nil
}

// Sources returns the loaded catalogue.
func (p *Panel) Sources() []domain.DataSource { return p.sources }

// LegalDocuments returns the loaded legal acts.
func (p *Panel) LegalDocuments() []domain.LegalDocument { return p.docs }

// Tab returns the active tab.
func (p *Panel) Tab() Tab { return p.tab }

// Filter returns the source type filter.
func (p *Panel) Filter() string { return p.filter }

// LastVerification returns the last completed verification.
func (p *Panel) LastVerification() (domain.Verification, bool) {
	return p.result, p.verify == verifyDone
}

// Verifying reports whether a verification is in flight.
func (p *Panel) Verifying() bool { return p.verify == verifyRunning }

// AfterMount loads the catalogue and the legal acts together.
func (p *Panel) AfterMount() tea.Cmd {
	p.dialog = nil
	p.verify = verifyIdle
	return p.Refresh()
}

// BindEvents attaches item handlers.
func (p *Panel) BindEvents() {
	p.Bind(SectionTabs, "tab", func(arg string) tea.Cmd { return p.SetTab(Tab(arg)) })
	p.Bind(SectionFilter, "filter", func(arg string) tea.Cmd { return p.SetFilter(arg) })
	p.bindVerify()
}

func (p *Panel) redraw() {
	if p.MountPoint() == nil || !p.Mounted() {
		return
	}
	p.MountPoint().SetContent(p.Render())
	p.BindEvents()
}

// Refresh reloads both lists. Either both are applied or neither.
func (p *Panel) Refresh() tea.Cmd {
	p.loadGen++
	gen := p.loadGen
	return p.Async(func(ctx context.Context) tea.Msg {
		msg := loadMsg{gen: gen}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			msg.sources, err = p.client.Sources(gctx, "")
			return err
		})
		g.Go(func() error {
			var err error
			msg.docs, err = p.client.LegalDocuments(gctx)
			return err
		})
		msg.err = g.Wait()
		return msg
	})
}

// SetTab switches between the source catalogue and the legal acts.
func (p *Panel) SetTab(tab Tab) tea.Cmd {
	if tab != TabSources && tab != TabDocuments {
		return nil
	}
	p.tab = tab
	p.redraw()
	return nil
}

// ToggleTab switches to the other tab.
func (p *Panel) ToggleTab() tea.Cmd {
	if p.tab == TabSources {
		return p.SetTab(TabDocuments)
	}
	return p.SetTab(TabSources)
}

// SetFilter narrows the catalogue to one source type. Filtering is local;
// the catalogue is loaded once.
func (p *Panel) SetFilter(filter string) tea.Cmd {
	switch filter {
	case FilterAll, string(domain.SourceOfficial), string(domain.SourceCommercial):
	default:
		return nil
	}
	p.filter = filter
	p.redraw()
	return nil
}

// CycleFilter moves to the next filter.
func (p *Panel) CycleFilter() tea.Cmd {
	order := []string{FilterAll, string(domain.SourceOfficial), string(domain.SourceCommercial)}
	for i, f := range order {
		if f == p.filter {
			return p.SetFilter(order[(i+1)%len(order)])
		}
	}
	return p.SetFilter(FilterAll)
}

// Visible returns the sources that pass the filter.
func (p *Panel) Visible() []domain.DataSource {
	var out []domain.DataSource
	for _, s := range p.sources {
		if p.filter == FilterAll || string(s.Type) == p.filter {
			out = append(out, s)
		}
	}
	return out
}

// RequestVerify opens the identifier dialog for kind.
func (p *Panel) RequestVerify(kind domain.VerifyKind) tea.Cmd {
	p.kind = kind
	m := modal.New(modal.Config{
		ID:    dialogVerify,
		Title: "🔍 Weryfikacja podmiotu: " + kind.Label(),
		Inputs: []modal.Input{
			{Key: "identifier", Label: "Identyfikator", Placeholder: "NIP, KRS lub VAT UE (np. PL1234567890)", Required: true, MaxLength: 20},
			{Key: "type", Label: "Typ (nip, krs, vat_eu)", Value: string(kind), Required: true},
		},
	})
	if p.screenW > 0 {
		m.SetSize(p.screenW, p.screenH)
	}
	p.dialog = &m
	return m.Init()
}

// Verify checks identifier in the kind's registry. A newer request
// supersedes one still in flight.
func (p *Panel) Verify(identifier string, kind domain.VerifyKind) tea.Cmd {
	if identifier == "" {
		return p.Alert(domain.AlertWarn, "Wprowadź identyfikator")
	}
	p.kind = kind
	p.verify = verifyRunning
	p.verifyGen++
	gen := p.verifyGen
	p.Replace(p.verifySection())
	p.bindVerify()
	log.Debug(log.CatSources, "Verifying entity", "type", kind, "identifier", identifier)
	return p.Async(func(ctx context.Context) tea.Msg {
		res, err := p.client.Verify(ctx, identifier, kind)
		return verifyMsg{gen: gen, result: res, err: err}
	})
}

func (p *Panel) bindVerify() {
	p.Bind(SectionVerify, "verify", func(arg string) tea.Cmd {
		kind, err := domain.ParseVerifyKind(arg)
		if err != nil {
			return nil
		}
		return p.RequestVerify(kind)
	})
}

// Update applies responses and dialog results.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case modal.SubmitMsg:
		if p.dialog == nil || msg.ID != dialogVerify {
			return nil
		}
		p.dialog = nil
		kind, err := domain.ParseVerifyKind(msg.Values["type"])
		if err != nil {
			return p.Alert(domain.AlertWarn, err.Error())
		}
		return p.Verify(msg.Values["identifier"], kind)
	case modal.CancelMsg:
		if p.dialog != nil && msg.ID == dialogVerify {
			p.dialog = nil
		}
		return nil
	}

	if !p.Alive() {
		return nil
	}
	switch msg := msg.(type) {
	case loadMsg:
		if msg.gen != p.loadGen {
			p.cfg.Metrics.StaleDropped("sources")
			return nil
		}
		if msg.err != nil {
			log.ErrorErr(log.CatSources, "Loading data sources failed", msg.err)
			return p.Alert(domain.AlertError, "Nie udało się pobrać źródeł danych")
		}
		p.sources, p.docs, p.loaded = msg.sources, msg.docs, true
		p.redraw()
		return nil
	case verifyMsg:
		return p.applyVerify(msg)
	}
	return nil
}

func (p *Panel) applyVerify(msg verifyMsg) tea.Cmd {
	if msg.gen != p.verifyGen {
		p.cfg.Metrics.StaleDropped("sources")
		log.Debug(log.CatSources, "Dropped stale verification", "gen", msg.gen, "current", p.verifyGen)
		return nil
	}
	defer func() {
		p.Replace(p.verifySection())
		p.bindVerify()
	}()
	if msg.err != nil {
		log.ErrorErr(log.CatSources, "Verification failed", msg.err, "type", p.kind)
		p.cfg.Metrics.Command(aggregate, "verify", "error")
		p.verify = verifyFailed
		return nil
	}
	p.cfg.Metrics.Command(aggregate, "verify", "ok")
	p.verify, p.result = verifyDone, msg.result
	if !msg.result.Valid {
		return nil
	}
	return p.Emit(domain.TopicEntityVerified, msg.result)
}

// SetScreenSize sets the area the dialog is centered in.
func (p *Panel) SetScreenSize(width, height int) {
	p.screenW, p.screenH = width, height
	if p.dialog != nil {
		p.dialog.SetSize(width, height)
	}
}

// DialogOpen reports whether the verify dialog is showing.
func (p *Panel) DialogOpen() bool { return p.dialog != nil }

// Overlay draws the open dialog over bg.
func (p *Panel) Overlay(bg string) string {
	if p.dialog == nil {
		return bg
	}
	return p.dialog.Overlay(bg)
}
