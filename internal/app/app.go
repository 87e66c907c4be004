// Package app contains the root application model.
//
// The root owns the surface and mounts one instance of every panel in a
// fixed order: header, context, chat, documents, projects, sources. Panels talk to
// each other only through the bus; the root routes keys and mouse clicks
// to the focused panel and draws the shared chrome (frames, toasts, the
// debug log overlay, help).
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/config"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/keys"
	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/panel/chatpanel"
	"github.com/detax-ai/detax/internal/panel/contextpanel"
	"github.com/detax-ai/detax/internal/panel/documents"
	"github.com/detax-ai/detax/internal/panel/header"
	"github.com/detax-ai/detax/internal/panel/projects"
	"github.com/detax-ai/detax/internal/panel/sources"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/ui/logoverlay"
	"github.com/detax-ai/detax/internal/ui/styles"
	"github.com/detax-ai/detax/internal/ui/toaster"
	"github.com/detax-ai/detax/internal/watcher"
)

// Mount point names.
const (
	MountHeader    = "header"
	MountContext   = "context"
	MountChat      = "chat"
	MountDocuments = "documents"
	MountProjects  = "projects"
	MountSources   = "sources"
)

// Focus identifies the panel receiving keys.
type Focus int

const (
	FocusContext Focus = iota
	FocusChat
	FocusWorkspace
	focusCount
)

// Workspace selects which entity workspace the right column shows.
type Workspace int

const (
	WorkspaceDocuments Workspace = iota
	WorkspaceProjects
	WorkspaceSources
	workspaceCount
)

// Options carries everything the root needs. Client and Config are
// required; the rest is optional.
type Options struct {
	Config  config.Config
	Client  *api.Client
	Bus     *pubsub.Bus
	Metrics *metrics.Metrics

	// Recorder stores answered questions.
	Recorder chatpanel.Recorder

	// ConfigPath is watched when Reload is set; a change calls Reload and
	// applies the new theme and markdown style.
	ConfigPath string
	Reload     func() (config.Config, error)

	// Debug enables the log overlay (ctrl+x).
	Debug bool
}

type alertMsg domain.Alert

type reloadedMsg struct {
	cfg config.Config
	err error
}

// Model is the root application state.
type Model struct {
	cfg     config.Config
	bus     *pubsub.Bus
	surface *component.Surface

	header    *header.Panel
	context   *contextpanel.Panel
	chat      *chatpanel.Panel
	documents *documents.Panel
	projects  *projects.Panel
	sources   *sources.Panel

	focus     Focus
	workspace Workspace
	width     int
	height    int

	toaster  toaster.Model
	help     help.Model
	fullHelp bool

	debugMode  bool
	logOverlay logoverlay.Model
	logCtx     context.Context
	logCancel  context.CancelFunc
	logs       *log.LogListener

	reload  func() (config.Config, error)
	watcher *watcher.Watcher
	changes <-chan struct{}
}

// New builds every panel against one surface and bus. Nothing is mounted
// until Init.
func New(opts Options) (Model, error) {
	if opts.Client == nil {
		return Model{}, errors.New("app: client is required")
	}
	if err := config.Validate(opts.Config); err != nil {
		return Model{}, err
	}
	cfg := opts.Config
	bus := opts.Bus
	if bus == nil {
		bus = pubsub.NewBus()
	}
	if opts.Metrics != nil {
		bus.SetObserver(opts.Metrics.BusEmit)
	}

	surface := component.NewSurface(MountHeader, MountContext, MountChat, MountDocuments, MountProjects, MountSources)

	m := Model{
		cfg:        cfg,
		bus:        bus,
		surface:    surface,
		focus:      FocusChat,
		toaster:    toaster.New(),
		help:       help.New(),
		debugMode:  opts.Debug,
		logOverlay: logoverlay.New(),
		reload:     opts.Reload,
	}

	var err error
	if m.header, err = header.New(header.Config{
		MountID:  MountHeader,
		Interval: cfg.UI.HealthInterval,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}
	if m.context, err = contextpanel.New(contextpanel.Config{
		MountID: MountContext,
		Metrics: opts.Metrics,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}
	if m.chat, err = chatpanel.New(chatpanel.Config{
		MountID:        MountChat,
		DefaultChannel: cfg.Chat.DefaultChannel,
		MaxLength:      cfg.Chat.MaxLength,
		ShowSources:    cfg.UI.ShowSources,
		MarkdownStyle:  cfg.UI.MarkdownStyle,
		Metrics:        opts.Metrics,
		Recorder:       opts.Recorder,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}
	if m.documents, err = documents.New(documents.Config{
		MountID: MountDocuments,
		Metrics: opts.Metrics,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}
	if m.projects, err = projects.New(projects.Config{
		MountID: MountProjects,
		Metrics: opts.Metrics,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}
	if m.sources, err = sources.New(sources.Config{
		MountID: MountSources,
		Metrics: opts.Metrics,
	}, opts.Client, surface, bus); err != nil {
		return Model{}, err
	}

	m.layout()

	bus.On(domain.TopicAlert, func(payload any) tea.Cmd {
		alert, ok := payload.(domain.Alert)
		if !ok {
			return nil
		}
		return func() tea.Msg { return alertMsg(alert) }
	})
	bus.On(domain.TopicEntityVerified, func(payload any) tea.Cmd {
		v, ok := payload.(domain.Verification)
		if !ok {
			return nil
		}
		text := "✅ Zweryfikowano: " + v.Identifier
		if name := v.Name(); name != "" {
			text += " (" + name + ")"
		}
		return func() tea.Msg { return alertMsg{Level: domain.AlertInfo, Text: text} }
	})

	if opts.Debug {
		m.logCtx, m.logCancel = context.WithCancel(context.Background())
		m.logs = log.NewListener(m.logCtx)
	}

	if opts.Reload != nil && opts.ConfigPath != "" {
		// the TUI works without hot reload
		if err := m.watchConfig(opts.ConfigPath); err != nil {
			log.Warn(log.CatWatcher, "Config watcher unavailable", "path", opts.ConfigPath, "error", err)
		}
	}

	return m, nil
}

func (m *Model) watchConfig(path string) error {
	w, err := watcher.New(watcher.Config{Path: path})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	m.watcher, m.changes = w, changes
	return nil
}

// Init mounts the panels in bootstrap order and starts the listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		component.Mount(m.header),
		component.Mount(m.context),
		component.Mount(m.chat),
		component.Mount(m.documents),
		component.Mount(m.projects),
		component.Mount(m.sources),
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	if m.changes != nil {
		cmds = append(cmds, watcher.Wait(m.watcher.Path(), m.changes))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.MouseMsg:
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}
		return m, m.handleMouse(msg)

	case log.LogEvent:
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		if m.logs != nil {
			cmd = tea.Batch(cmd, m.logs.Listen())
		}
		return m, cmd

	case logoverlay.CloseMsg:
		m.logOverlay.Hide()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case alertMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(domain.Alert(msg), toaster.DefaultDuration)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case watcher.ChangedMsg:
		log.Info(log.CatConfig, "Config file changed", "path", msg.Path)
		var wait tea.Cmd
		if m.changes != nil {
			wait = watcher.Wait(msg.Path, m.changes)
		}
		reload := m.reload
		if reload == nil {
			return m, wait
		}
		return m, tea.Batch(wait, func() tea.Msg {
			cfg, err := reload()
			return reloadedMsg{cfg: cfg, err: err}
		})

	case reloadedMsg:
		if msg.err == nil {
			m.cfg = msg.cfg
		}
		return m, m.applyConfig(msg)
	}

	return m, m.broadcast(msg)
}

// broadcast hands a message to every panel. Each panel ignores messages
// it did not start.
func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	return tea.Batch(
		m.header.Update(msg),
		m.context.Update(msg),
		m.chat.Update(msg),
		m.documents.Update(msg),
		m.projects.Update(msg),
		m.sources.Update(msg),
	)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Global.Quit) {
		return m, tea.Quit
	}
	if m.debugMode && key.Matches(msg, keys.Global.Logs) {
		m.logOverlay.Toggle()
		return m, nil
	}
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd
	}
	if m.dialogOpen() {
		cmd, _ := m.activeWorkspaceKeys(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Global.NextPanel):
		m.focus = (m.focus + 1) % focusCount
		return m, nil
	case key.Matches(msg, keys.Global.PrevPanel):
		m.focus = (m.focus + focusCount - 1) % focusCount
		return m, nil
	case key.Matches(msg, keys.Global.Workspace):
		m.workspace = (m.workspace + 1) % workspaceCount
		m.focus = FocusWorkspace
		m.layout()
		return m, nil
	case key.Matches(msg, keys.Global.Help):
		m.fullHelp = !m.fullHelp
		return m, nil
	}

	var (
		cmd     tea.Cmd
		handled bool
	)
	switch m.focus {
	case FocusContext:
		cmd, handled = m.context.HandleKey(msg)
	case FocusChat:
		cmd, handled = m.chat.HandleKey(msg)
	case FocusWorkspace:
		cmd, handled = m.activeWorkspaceKeys(msg)
	}
	if handled {
		return m, cmd
	}
	return m, m.navigate(msg)
}

// navigate moves through the focused panel's clickable items.
func (m Model) navigate(msg tea.KeyMsg) tea.Cmd {
	mp := m.focusedMount()
	if mp == nil {
		return nil
	}
	switch {
	case key.Matches(msg, keys.List.Up):
		mp.MoveCursor(-1)
	case key.Matches(msg, keys.List.Down):
		mp.MoveCursor(1)
	case key.Matches(msg, keys.List.Left):
		mp.JumpSection(-1)
	case key.Matches(msg, keys.List.Right):
		mp.JumpSection(1)
	case key.Matches(msg, keys.List.Activate):
		cmd, _ := mp.Activate()
		return cmd
	}
	return nil
}

func (m Model) activeWorkspaceKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch m.workspace {
	case WorkspaceProjects:
		return m.projects.HandleKey(msg)
	case WorkspaceSources:
		return m.sources.HandleKey(msg)
	}
	return m.documents.HandleKey(msg)
}

func (m Model) dialogOpen() bool {
	switch m.workspace {
	case WorkspaceProjects:
		return m.projects.DialogOpen()
	case WorkspaceSources:
		return m.sources.DialogOpen()
	}
	return m.documents.DialogOpen()
}

func (m Model) workspaceMount() string {
	switch m.workspace {
	case WorkspaceProjects:
		return MountProjects
	case WorkspaceSources:
		return MountSources
	}
	return MountDocuments
}

func (m Model) focusedMount() *component.MountPoint {
	switch m.focus {
	case FocusContext:
		return m.surface.Lookup(MountContext)
	case FocusChat:
		return m.surface.Lookup(MountChat)
	default:
		return m.surface.Lookup(m.workspaceMount())
	}
}

// handleMouse focuses the panel under the pointer and dispatches the item
// clicked, if any.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.dialogOpen() {
		return nil
	}
	for _, target := range []struct {
		focus Focus
		mount string
	}{
		{FocusContext, MountContext},
		{FocusChat, MountChat},
		{FocusWorkspace, m.workspaceMount()},
	} {
		mp := m.surface.Lookup(target.mount)
		if mp == nil {
			continue
		}
		if cmd, ok := mp.HandleMouse(msg); ok {
			m.focus = target.focus
			return cmd
		}
		if frameHit(target.mount, msg) {
			m.focus = target.focus
			return nil
		}
	}
	return nil
}

func (m Model) applyConfig(msg reloadedMsg) tea.Cmd {
	if msg.err != nil {
		log.ErrorErr(log.CatConfig, "Config reload failed", msg.err)
		return m.bus.Emit(domain.TopicAlert, domain.Alert{
			Level: domain.AlertError,
			Text:  "Błąd konfiguracji: " + msg.err.Error(),
		})
	}
	cfg := msg.cfg
	switch cfg.Theme.Mode {
	case "light":
		styles.SetDarkMode(false)
	case "dark":
		styles.SetDarkMode(true)
	}
	if err := styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success); err != nil {
		log.ErrorErr(log.CatConfig, "Applying theme failed", err)
	}
	if err := m.chat.SetRenderStyle(cfg.UI.MarkdownStyle); err != nil {
		log.ErrorErr(log.CatConfig, "Applying markdown style failed", err, "style", cfg.UI.MarkdownStyle)
	}
	log.Info(log.CatConfig, "Config reloaded")
	return m.bus.Emit(domain.TopicAlert, domain.Alert{Level: domain.AlertInfo, Text: "Konfiguracja przeładowana"})
}

// Config returns the configuration currently applied.
func (m Model) Config() config.Config { return m.cfg }

// Focus returns the focused panel.
func (m Model) Focus() Focus { return m.focus }

// ActiveWorkspace returns the workspace shown in the right column.
func (m Model) ActiveWorkspace() Workspace { return m.workspace }

// Toast returns the visible toast, if any.
func (m Model) Toast() (domain.Alert, bool) { return m.toaster.Alert(), m.toaster.Visible() }

// LogsVisible reports whether the log overlay is showing.
func (m Model) LogsVisible() bool { return m.logOverlay.Visible() }

// Close releases resources held by the application.
func (m *Model) Close() error {
	for _, c := range []component.Component{m.sources, m.projects, m.documents, m.chat, m.context, m.header} {
		component.Destroy(c)
	}
	if m.logCancel != nil {
		m.logCancel()
	}
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// helpKeys adapts the keymap to help.KeyMap.
type helpKeys struct{}

func (helpKeys) ShortHelp() []key.Binding  { return keys.Global.ShortHelp() }
func (helpKeys) FullHelp() [][]key.Binding { return keys.FullHelp() }
