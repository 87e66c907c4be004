// Package chatpanel implements the channel switcher and the chat
// transcript.
//
// The panel owns the current channel and the loading flag. While an
// answer is pending further sends are dropped. Each send appends the
// question and a placeholder with a fresh id; the answer, or a fixed
// apology on failure, replaces that placeholder.
package chatpanel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/history"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/ui/markdown"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// Apology replaces the placeholder when a send fails.
const Apology = "Przepraszam, wystąpił błąd połączenia. Sprawdź czy serwisy działają i spróbuj ponownie."

// DefaultMaxLength is the input limit when Config.MaxLength is zero.
const DefaultMaxLength = 2000

// Section ids.
const (
	SectionChannels   = "channels"
	SectionTranscript = "transcript"
	SectionQuick      = "quick"
	SectionInput      = "input"
	SectionSources    = "sources"
)

// Client is the part of the API the panel uses.
type Client interface {
	Chat(ctx context.Context, message, channel string) (domain.ChatResponse, error)
}

// Recorder persists answered exchanges.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Config configures the panel.
type Config struct {
	MountID        string
	DefaultChannel string
	MaxLength      int
	// ShowSources opens the sources list after every answer that has any.
	ShowSources   bool
	MarkdownStyle string
	Metrics       *metrics.Metrics
	// Recorder is optional.
	Recorder Recorder
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("chatpanel: mount id is required")
	}
	if c.DefaultChannel != "" {
		if _, ok := domain.LookupChannel(c.DefaultChannel); !ok {
			return fmt.Errorf("chatpanel: unknown default channel %q", c.DefaultChannel)
		}
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("chatpanel: max length must not be negative, got %d", c.MaxLength)
	}
	return nil
}

// Role tells who wrote a message.
type Role int

const (
	RoleAssistant Role = iota
	RoleUser
)

// Message is one transcript entry.
type Message struct {
	ID      string
	Role    Role
	Text    string
	Pending bool
	Hint    bool
	Sources []domain.ChatSource
}

type chatMsg struct {
	placeholder string
	channel     string
	question    string
	resp        domain.ChatResponse
	err         error
}

// Panel is the chat component.
type Panel struct {
	component.Base

	cfg      Config
	client   Client
	renderer *markdown.Renderer

	channel     string
	loading     bool
	transcript  []Message
	lastSources []domain.ChatSource
	showSources bool
	showQuick   bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

// New builds the panel.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("chatpanel: client is required")
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.DefaultChannel == "" {
		cfg.DefaultChannel = domain.GeneralChannel
	}
	info, _ := domain.LookupChannel(cfg.DefaultChannel)
	cfg.DefaultChannel = info.ID

	renderer, err := markdown.New(80, cfg.MarkdownStyle)
	if err != nil {
		return nil, fmt.Errorf("chatpanel: %w", err)
	}

	in := textinput.New()
	in.Placeholder = "Zadaj pytanie..."
	in.CharLimit = cfg.MaxLength
	in.Prompt = "› "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.MutedStyle

	p := &Panel{
		Base:     component.NewBase("chat", cfg.MountID, surface, bus),
		cfg:      cfg,
		client:   client,
		renderer: renderer,
		input:    in,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80,
		height:   20,
	}
	p.reset()
	return p, nil
}

func (p *Panel) reset() {
	p.channel = p.cfg.DefaultChannel
	p.loading = false
	p.transcript = []Message{{ID: "welcome", Role: RoleAssistant, Text: welcome}}
	p.lastSources = nil
	p.showSources = false
	p.showQuick = true
	p.input.Reset()
}

// Channel returns the current channel id.
func (p *Panel) Channel() string { return p.channel }

// Loading reports whether an answer is pending.
func (p *Panel) Loading() bool { return p.loading }

// Transcript returns a copy of the messages.
func (p *Panel) Transcript() []Message {
	return append([]Message(nil), p.transcript...)
}

// LastSources returns the sources of the latest answer.
func (p *Panel) LastSources() []domain.ChatSource { return p.lastSources }

// SourcesVisible reports whether the sources list is open.
func (p *Panel) SourcesVisible() bool { return p.showSources }

// SetRenderStyle switches the markdown style, e.g. after a config reload.
func (p *Panel) SetRenderStyle(style string) error {
	r, err := markdown.New(p.renderer.Width(), style)
	if err != nil {
		return err
	}
	p.renderer = r
	p.cfg.MarkdownStyle = style
	p.refreshTranscript()
	return nil
}

// SetSize resizes the transcript and input to the panel's inner area.
func (p *Panel) SetSize(width, height int) {
	p.width, p.height = width, height
	p.input.Width = max(10, width-4)
	if err := p.renderer.SetWidth(max(10, width-2)); err != nil {
		log.ErrorErr(log.CatChat, "Resizing markdown renderer failed", err)
	}
	p.viewport.Width = width
	p.viewport.Height = max(3, height-p.chromeHeight())
	p.refreshTranscript()
}

// chromeHeight is the number of rows used by everything but the
// transcript.
func (p *Panel) chromeHeight() int {
	h := 2 + 1 + 2 + 2 // channels, separators, input with hints
	if p.showQuick {
		h += 2
	}
	if p.showSources {
		h += len(p.lastSources) + 2
	}
	return h
}

// Render draws the whole panel.
func (p *Panel) Render() component.Markup {
	return component.Markup{
		p.channelsSection(),
		p.transcriptSection(),
		p.quickSection(),
		p.inputSection(),
		p.sourcesSection(),
	}
}

// AfterMount focuses the input. Nothing is loaded.
func (p *Panel) AfterMount() tea.Cmd {
	if len(p.transcript) > 1 || p.loading {
		p.reset()
		p.MountPoint().SetContent(p.Render())
	}
	p.refreshTranscript()
	return p.input.Focus()
}

// BindEvents binds the channel list, quick questions and sources toggle,
// and follows channel recommendations from the bus.
func (p *Panel) BindEvents() {
	p.bindChannels()
	p.bindQuick()
	p.bindSources()
	p.On(domain.TopicChannelSelected, func(payload any) tea.Cmd {
		id, ok := payload.(string)
		if !ok {
			return nil
		}
		if _, known := domain.LookupChannel(id); !known {
			log.Debug(log.CatChat, "Ignoring unknown channel", "channel", id)
			return nil
		}
		return p.SetChannel(id)
	})
}

func (p *Panel) bindChannels() {
	p.Bind(SectionChannels, "select", func(id string) tea.Cmd { return p.SetChannel(id) })
}

func (p *Panel) bindQuick() {
	p.Bind(SectionQuick, "ask", func(arg string) tea.Cmd {
		i, err := strconv.Atoi(arg)
		qs := domain.QuickQuestions()
		if err != nil || i < 0 || i >= len(qs) {
			return nil
		}
		return p.AskQuick(qs[i])
	})
}

func (p *Panel) bindSources() {
	p.Bind(SectionSources, "toggle", func(string) tea.Cmd {
		p.ToggleSources()
		return nil
	})
}

// SetChannel activates a channel and appends its hint. Selecting the
// active channel again still appends the hint. Unknown ids are ignored.
func (p *Panel) SetChannel(id string) tea.Cmd {
	info, ok := domain.LookupChannel(id)
	if !ok {
		return nil
	}
	p.channel = info.ID
	p.Replace(p.channelsSection())
	p.bindChannels()
	p.Replace(p.inputSection())
	p.appendMessage(Message{ID: uuid.NewString(), Role: RoleAssistant, Text: info.Hint, Hint: true})
	log.Debug(log.CatChat, "Channel set", "channel", info.ID)
	return nil
}

// CycleChannel moves the active channel by delta in catalog order.
func (p *Panel) CycleChannel(delta int) tea.Cmd {
	channels := domain.Channels()
	i := 0
	for j, c := range channels {
		if c.ID == p.channel {
			i = j
		}
	}
	i = ((i+delta)%len(channels) + len(channels)) % len(channels)
	return p.SetChannel(channels[i].ID)
}

// AskQuick switches to the question's channel when needed and sends it.
func (p *Panel) AskQuick(q domain.QuickQuestion) tea.Cmd {
	var cmds []tea.Cmd
	if q.Channel != p.channel {
		cmds = append(cmds, p.SetChannel(q.Channel))
	}
	cmds = append(cmds, p.SendMessage(q.Question))
	return tea.Batch(cmds...)
}

// SendMessage posts text to the current channel. It is dropped while an
// answer is pending or when text is blank.
func (p *Panel) SendMessage(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if p.loading {
		p.cfg.Metrics.ChatMessage(p.channel, "rejected")
		log.Debug(log.CatChat, "Send dropped while loading")
		return nil
	}
	if r := []rune(text); len(r) > p.cfg.MaxLength {
		text = string(r[:p.cfg.MaxLength])
	}

	p.loading = true
	if p.showQuick {
		p.showQuick = false
		p.Replace(p.quickSection())
	}
	p.input.Reset()

	placeholder := uuid.NewString()
	p.transcript = append(p.transcript,
		Message{ID: uuid.NewString(), Role: RoleUser, Text: text},
		Message{ID: placeholder, Role: RoleAssistant, Pending: true},
	)
	p.refreshTranscript()

	channel := p.channel
	log.Debug(log.CatChat, "Sending message", "channel", channel, "placeholder", placeholder)
	send := p.Async(func(ctx context.Context) tea.Msg {
		resp, err := p.client.Chat(ctx, text, channel)
		return chatMsg{placeholder: placeholder, channel: channel, question: text, resp: resp, err: err}
	})
	return tea.Batch(send, p.spinner.Tick)
}

// ToggleSources opens or closes the sources of the latest answer.
func (p *Panel) ToggleSources() {
	if len(p.lastSources) == 0 {
		p.showSources = false
	} else {
		p.showSources = !p.showSources
	}
	p.Replace(p.sourcesSection())
	p.bindSources()
	p.SetSize(p.width, p.height)
}

// Update handles responses and spinner frames.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case chatMsg:
		if !p.Alive() {
			return nil
		}
		return p.applyAnswer(msg)
	case spinner.TickMsg:
		if !p.loading {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.refreshTranscript()
		return cmd
	}
	return nil
}

func (p *Panel) applyAnswer(msg chatMsg) tea.Cmd {
	p.loading = false
	answer := Message{ID: msg.placeholder, Role: RoleAssistant}

	var record tea.Cmd
	if msg.err != nil {
		log.ErrorErr(log.CatChat, "Chat request failed", msg.err, "channel", msg.channel)
		p.cfg.Metrics.ChatMessage(msg.channel, "error")
		answer.Text = Apology
	} else {
		p.cfg.Metrics.ChatMessage(msg.channel, "ok")
		answer.Text = msg.resp.Response
		answer.Sources = msg.resp.Sources
		p.lastSources = msg.resp.Sources
		p.showSources = p.cfg.ShowSources && len(p.lastSources) > 0
		record = p.record(msg)
	}

	replaced := false
	for i := range p.transcript {
		if p.transcript[i].ID == msg.placeholder {
			p.transcript[i] = answer
			replaced = true
			break
		}
	}
	if !replaced {
		p.transcript = append(p.transcript, answer)
	}

	p.Replace(p.sourcesSection())
	p.bindSources()
	p.SetSize(p.width, p.height)
	return record
}

func (p *Panel) record(msg chatMsg) tea.Cmd {
	rec := p.cfg.Recorder
	if rec == nil {
		return nil
	}
	entry := history.Entry{Module: msg.channel, Question: msg.question, Answer: msg.resp.Response}
	return p.Async(func(ctx context.Context) tea.Msg {
		if err := rec.Record(ctx, entry); err != nil {
			log.ErrorErr(log.CatHistory, "Recording exchange failed", err)
		}
		return nil
	})
}

func (p *Panel) appendMessage(m Message) {
	p.transcript = append(p.transcript, m)
	p.refreshTranscript()
}
