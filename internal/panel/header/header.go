// Package header renders the title bar and keeps the API health badge
// current by polling /health.
package header

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Status texts shown next to the badge.
const (
	TextChecking     = "Sprawdzam połączenie..."
	TextHealthy      = "Połączono z Bielikiem"
	TextModelLoading = "Ładowanie modelu..."
	TextDegraded     = "Częściowo dostępny"
	TextUnhealthy    = "Błąd połączenia"
	TextOffline      = "Brak połączenia"
)

// Tagline is printed under the logo.
const Tagline = "Odetchnij od podatków"

// DefaultTimeout bounds a single health check.
const DefaultTimeout = 10 * time.Second

// Client is the part of the API the header uses.
type Client interface {
	Health(ctx context.Context) (domain.Health, error)
}

// Config configures the header.
type Config struct {
	MountID string
	// Interval between health checks. Zero disables polling after the
	// first check.
	Interval time.Duration
	// Timeout for one check; a hung request counts as offline and the
	// next check is still scheduled. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("header: mount id is required")
	}
	if c.Interval < 0 {
		return fmt.Errorf("header: negative interval %s", c.Interval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("header: negative timeout %s", c.Timeout)
	}
	return nil
}

// State is the badge state.
type State int

const (
	StateChecking State = iota
	StateHealthy
	StateDegraded
	StateUnhealthy
)

type healthMsg struct {
	poll   int
	health domain.Health
	err    error
}

type tickMsg struct{ poll int }

// Panel is the header component.
type Panel struct {
	component.Base

	cfg    Config
	client Client

	state State
	text  string
	// poll identifies the current polling loop; ticks from a previous
	// mount carry an older value and stop there.
	poll int
}

// New builds a header.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("header: client is required")
	}
	return &Panel{
		Base:   component.NewBase("header", cfg.MountID, surface, bus),
		cfg:    cfg,
		client: client,
		state:  StateChecking,
		text:   TextChecking,
	}, nil
}

// Render draws the logo, tagline and badge.
func (p *Panel) Render() component.Markup {
	return component.Markup{p.statusSection()}
}

func (p *Panel) statusSection() component.Section {
	logo := styles.TitleStyle.Render("detax")
	body := fmt.Sprintf("%s  %s  %s %s",
		logo, styles.MutedStyle.Render(Tagline), p.dot(), p.text)
	return component.Section{ID: "status", Body: body}
}

func (p *Panel) dot() string {
	switch p.state {
	case StateHealthy:
		return styles.SuccessStyle.Render("●")
	case StateDegraded:
		return styles.WarningStyle.Render("●")
	case StateUnhealthy:
		return styles.ErrorStyle.Render("●")
	default:
		return styles.MutedStyle.Render("○")
	}
}

// AfterMount starts the first health check and a fresh polling loop.
func (p *Panel) AfterMount() tea.Cmd {
	p.poll++
	return p.check(p.poll)
}

// BindEvents has nothing to bind; the header is not interactive.
func (p *Panel) BindEvents() {}

func (p *Panel) check(poll int) tea.Cmd {
	timeout := p.cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return p.Async(func(ctx context.Context) tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		h, err := p.client.Health(ctx)
		return healthMsg{poll: poll, health: h, err: err}
	})
}

// Update handles the header's own messages.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case healthMsg:
		if msg.poll != p.poll || !p.Alive() {
			return nil
		}
		p.apply(msg.health, msg.err)
		p.Replace(p.statusSection())
		return p.schedule(msg.poll)
	case tickMsg:
		if msg.poll != p.poll || !p.Alive() {
			return nil
		}
		return p.check(msg.poll)
	}
	return nil
}

func (p *Panel) schedule(poll int) tea.Cmd {
	if p.cfg.Interval == 0 {
		return nil
	}
	return tea.Tick(p.cfg.Interval, func(time.Time) tea.Msg {
		return tickMsg{poll: poll}
	})
}

func (p *Panel) apply(h domain.Health, err error) {
	if err != nil {
		log.ErrorErr(log.CatAPI, "Health check failed", err)
		p.state, p.text = StateUnhealthy, TextOffline
		return
	}
	switch h.Status {
	case domain.HealthHealthy:
		p.state, p.text = StateHealthy, TextHealthy
	case domain.HealthDegraded:
		p.state, p.text = StateDegraded, TextDegraded
		if h.ModelLoading() {
			p.text = TextModelLoading
		}
	default:
		p.state, p.text = StateUnhealthy, TextUnhealthy
	}
}

// State returns the badge state.
func (p *Panel) State() State { return p.state }

// Text returns the status text.
func (p *Panel) Text() string { return p.text }
