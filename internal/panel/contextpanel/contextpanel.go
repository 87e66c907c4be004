// Package contextpanel implements the Contact → Project → File selector.
//
// The panel owns a domain.ContextState. Every selection change bumps a
// generation number and starts a recommended-channels request tagged with
// it; a response is applied only while its generation is still current, so
// answers for an abandoned selection never overwrite the newer one.
// Hierarchy reloads carry their own generation for the same reason. The
// chat channel itself is never changed here: clicking a recommendation
// emits channel:selected and the chat panel decides.
package contextpanel

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/pubsub"
)

// Section ids.
const (
	SectionContacts = "contacts"
	SectionProjects = "projects"
	SectionFiles    = "files"
	SectionChannels = "channels"
	SectionSummary  = "summary"
)

// Client is the part of the API the panel uses.
type Client interface {
	Hierarchy(ctx context.Context) ([]domain.Contact, error)
	RecommendedChannels(ctx context.Context, q api.ChannelQuery) ([]domain.Channel, error)
}

// Config configures the panel.
type Config struct {
	MountID string
	Metrics *metrics.Metrics
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("contextpanel: mount id is required")
	}
	return nil
}

type hierarchyMsg struct {
	gen      int
	contacts []domain.Contact
	err      error
}

type channelsMsg struct {
	gen      int
	channels []domain.Channel
	err      error
}

// Panel is the context coordinator.
type Panel struct {
	component.Base

	cfg    Config
	client Client

	contacts []domain.Contact
	loaded   bool
	state    domain.ContextState
	gen      int
	hierGen  int
}

// New builds the panel.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("contextpanel: client is required")
	}
	return &Panel{
		Base:   component.NewBase("context", cfg.MountID, surface, bus),
		cfg:    cfg,
		client: client,
	}, nil
}

// State returns a copy of the current selection.
func (p *Panel) State() domain.ContextState { return p.state.Clone() }

// Contacts returns the loaded hierarchy.
func (p *Panel) Contacts() []domain.Contact { return p.contacts }

// Render draws all five regions.
func (p *Panel) Render() component.Markup {
	return component.Markup{
		p.contactsSection(),
		p.projectsSection(),
		p.filesSection(),
		p.channelsSection(),
		p.summarySection(),
	}
}

// AfterMount loads the hierarchy. State left over from a previous mount
// is discarded first.
func (p *Panel) AfterMount() tea.Cmd {
	if p.loaded || !p.state.Empty() {
		p.contacts, p.loaded = nil, false
		p.state = domain.ContextState{}
		p.MountPoint().SetContent(p.Render())
	}
	p.gen++
	return p.loadHierarchy()
}

// BindEvents attaches item handlers and subscribes to changes that alter
// the hierarchy.
func (p *Panel) BindEvents() {
	p.bindSelection()
	p.bindChannels()

	reload := func(any) tea.Cmd { return p.loadHierarchy() }
	for _, topic := range []string{
		domain.TopicProjectCreated, domain.TopicProjectUpdated, domain.TopicProjectDeleted,
		domain.TopicFileAdded, domain.TopicFileRemoved,
	} {
		p.On(topic, reload)
	}
}

func (p *Panel) bindSelection() {
	p.Bind(SectionContacts, "select", func(name string) tea.Cmd {
		return p.SelectContact(name)
	})
	p.Bind(SectionProjects, "select", func(arg string) tea.Cmd {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil
		}
		return p.SelectProject(id)
	})
	p.Bind(SectionFiles, "select", func(arg string) tea.Cmd {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil
		}
		return p.SelectFile(id)
	})
	p.Bind(SectionSummary, "clear", func(string) tea.Cmd {
		return p.ClearContext()
	})
}

func (p *Panel) bindChannels() {
	p.Bind(SectionChannels, "select", func(id string) tea.Cmd {
		return p.Emit(domain.TopicChannelSelected, id)
	})
}

// updateSelection redraws the regions that depend on the selection.
func (p *Panel) updateSelection() {
	p.Replace(p.contactsSection())
	p.Replace(p.projectsSection())
	p.Replace(p.filesSection())
	p.Replace(p.summarySection())
	p.bindSelection()
}

func (p *Panel) updateChannels() {
	p.Replace(p.channelsSection())
	p.bindChannels()
}

func (p *Panel) contact(name string) (domain.Contact, bool) {
	for _, c := range p.contacts {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Contact{}, false
}

// SelectContact selects a contact and drops everything below it.
// Unknown names are ignored.
func (p *Panel) SelectContact(name string) tea.Cmd {
	if _, ok := p.contact(name); !ok {
		return nil
	}
	p.state = domain.ContextState{Contact: name}
	log.Debug(log.CatContext, "Contact selected", "contact", name)
	return p.selectionChanged()
}

// SelectProject selects a project of the selected contact and drops the
// file. Projects outside the selected contact are ignored.
func (p *Panel) SelectProject(id int64) tea.Cmd {
	c, ok := p.contact(p.state.Contact)
	if !ok {
		return nil
	}
	project, ok := c.ProjectByID(id)
	if !ok {
		return nil
	}
	p.state.Project = &project
	p.state.File = nil
	log.Debug(log.CatContext, "Project selected", "project", id)
	return p.selectionChanged()
}

// SelectFile selects a file of the selected project. Other files are
// ignored.
func (p *Panel) SelectFile(id int64) tea.Cmd {
	if p.state.Project == nil {
		return nil
	}
	file, ok := p.state.Project.FileByID(id)
	if !ok {
		return nil
	}
	p.state.File = &file
	log.Debug(log.CatContext, "File selected", "file", id)
	return p.selectionChanged()
}

// ClearContext resets the selection and emits context:cleared.
func (p *Panel) ClearContext() tea.Cmd {
	p.state = domain.ContextState{}
	p.gen++
	p.updateSelection()
	p.updateChannels()
	log.Debug(log.CatContext, "Context cleared")
	return p.Emit(domain.TopicContextCleared, nil)
}

func (p *Panel) selectionChanged() tea.Cmd {
	p.state.Channels = nil
	p.gen++
	p.updateSelection()
	p.updateChannels()
	return p.loadChannels()
}

func (p *Panel) query() api.ChannelQuery {
	q := api.ChannelQuery{Contact: p.state.Contact}
	if p.state.Project != nil {
		q.ProjectID = p.state.Project.ID
	}
	if p.state.File != nil {
		q.FileID = p.state.File.ID
	}
	return q
}

func (p *Panel) loadHierarchy() tea.Cmd {
	p.hierGen++
	gen := p.hierGen
	return p.Async(func(ctx context.Context) tea.Msg {
		contacts, err := p.client.Hierarchy(ctx)
		return hierarchyMsg{gen: gen, contacts: contacts, err: err}
	})
}

func (p *Panel) loadChannels() tea.Cmd {
	gen, q := p.gen, p.query()
	return p.Async(func(ctx context.Context) tea.Msg {
		channels, err := p.client.RecommendedChannels(ctx, q)
		return channelsMsg{gen: gen, channels: channels, err: err}
	})
}

// Update applies responses.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	if !p.Alive() {
		return nil
	}
	switch msg := msg.(type) {
	case hierarchyMsg:
		if msg.gen != p.hierGen {
			p.cfg.Metrics.StaleDropped("context")
			log.Debug(log.CatContext, "Dropped stale hierarchy response", "gen", msg.gen, "current", p.hierGen)
			return nil
		}
		if msg.err != nil {
			log.ErrorErr(log.CatContext, "Loading context hierarchy failed", msg.err)
			return nil
		}
		return p.applyHierarchy(msg.contacts)
	case channelsMsg:
		if msg.gen != p.gen {
			p.cfg.Metrics.StaleDropped("context")
			log.Debug(log.CatContext, "Dropped stale channels response", "gen", msg.gen, "current", p.gen)
			return nil
		}
		if msg.err != nil {
			log.ErrorErr(log.CatContext, "Loading recommended channels failed", msg.err)
			return nil
		}
		p.state.Channels = msg.channels
		p.updateChannels()
		return p.Emit(domain.TopicContextChanged, p.state.Clone())
	}
	return nil
}

// applyHierarchy installs a fresh hierarchy and re-resolves the selection
// against it. Selections whose target disappeared are cut back to the
// deepest surviving ancestor.
func (p *Panel) applyHierarchy(contacts []domain.Contact) tea.Cmd {
	p.contacts = contacts
	p.loaded = true

	if p.state.Empty() {
		p.updateSelection()
		return nil
	}

	before := p.query()
	c, ok := p.contact(p.state.Contact)
	if !ok {
		log.Info(log.CatContext, "Selected contact disappeared", "contact", p.state.Contact)
		return p.ClearContext()
	}
	if p.state.Project != nil {
		project, ok := c.ProjectByID(p.state.Project.ID)
		if ok {
			p.state.Project = &project
		} else {
			p.state.Project, p.state.File = nil, nil
		}
	}
	if p.state.File != nil {
		if file, ok := p.state.Project.FileByID(p.state.File.ID); ok {
			p.state.File = &file
		} else {
			p.state.File = nil
		}
	}

	if p.query() != before {
		return p.selectionChanged()
	}
	p.updateSelection()
	return nil
}
