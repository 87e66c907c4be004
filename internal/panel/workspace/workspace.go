package workspace

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

// Config configures a workspace panel.
type Config struct {
	MountID string
	Metrics *metrics.Metrics
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("workspace: mount id is required")
	}
	return nil
}

type listMsg[E, S any] struct {
	gen     uint64
	items   []E
	summary S
	err     error
}

type openMsg[E, S any] struct {
	gen    uint64
	entity E
	events []domain.DomainEvent
	err    error
}

type saveMsg[E, S any] struct {
	created bool
	entity  E
	err     error
	list    listMsg[E, S]
}

type deleteMsg[E, S any] struct {
	id   int64
	err  error
	list listMsg[E, S]
}

type filesMsg[E, S any] struct {
	gen    uint64
	op     string // "load", "add" or "remove"
	change domain.FileChange
	files  []domain.ProjectFile
	err    error
}

// dialog purposes
const (
	dialogDelete     = "delete"
	dialogAddFile    = "add-file"
	dialogRemoveFile = "remove-file"
)

// Panel is the workspace component for one kind.
type Panel[E, S any] struct {
	component.Base

	cfg   Config
	kind  Kind[E, S]
	files FileStore

	mode    ViewMode
	items   []E
	summary S
	loaded  bool
	filter  string

	current  E
	editing  bool
	events   []domain.DomainEvent
	fileList []domain.ProjectFile
	form     *form

	dialog        *modal.Model
	dialogPurpose string
	dialogFileID  int64

	busy     bool
	listGen  uint64
	openGen  uint64
	filesGen uint64

	width, height int
	// screen is the area dialogs are centered in; the panel size when zero.
	screenW, screenH int
}

// New builds a workspace for kind. Kinds that implement FileStore get the
// Files view.
func New[E, S any](cfg Config, kind Kind[E, S], surface *component.Surface, bus *pubsub.Bus) (*Panel[E, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if kind == nil {
		return nil, fmt.Errorf("workspace: kind is required")
	}
	p := &Panel[E, S]{
		Base:   component.NewBase(kind.Aggregate(), cfg.MountID, surface, bus),
		cfg:    cfg,
		kind:   kind,
		width:  60,
		height: 20,
	}
	if fs, ok := kind.(FileStore); ok {
		p.files = fs
	}
	return p, nil
}

// Mode returns the current view mode.
func (p *Panel[E, S]) Mode() ViewMode { return p.mode }

// Items returns the loaded list.
func (p *Panel[E, S]) Items() []E { return p.items }

// Summary returns the summary loaded with the list.
func (p *Panel[E, S]) Summary() S { return p.summary }

// Loaded reports whether a refresh has succeeded since mount.
func (p *Panel[E, S]) Loaded() bool { return p.loaded }

// Filter returns the active list filter.
func (p *Panel[E, S]) Filter() string { return p.filter }

// Current returns the entity in the editor.
func (p *Panel[E, S]) Current() (E, bool) { return p.current, p.editing }

// Events returns the event history of the current entity.
func (p *Panel[E, S]) Events() []domain.DomainEvent { return p.events }

// Files returns the file list of the current entity.
func (p *Panel[E, S]) Files() []domain.ProjectFile { return p.fileList }

// Busy reports whether a command is in flight.
func (p *Panel[E, S]) Busy() bool { return p.busy }

// FormValues returns the editor input, nil outside Edit.
func (p *Panel[E, S]) FormValues() map[string]string {
	if p.form == nil {
		return nil
	}
	return p.form.Values()
}

// SetField replaces one editor input.
func (p *Panel[E, S]) SetField(key, value string) {
	if p.form != nil {
		p.form.set(key, value)
	}
}

// SetSize resizes the editor.
func (p *Panel[E, S]) SetSize(width, height int) {
	p.width, p.height = width, height
	if p.form != nil {
		p.form.setWidth(width)
	}
}

// SetScreenSize sets the area dialogs are centered in.
func (p *Panel[E, S]) SetScreenSize(width, height int) {
	p.screenW, p.screenH = width, height
	if p.dialog != nil {
		p.dialog.SetSize(width, height)
	}
}

func (p *Panel[E, S]) existing() bool {
	return p.editing && p.kind.ID(p.current) != 0
}

func (p *Panel[E, S]) reset() {
	var zero E
	var zeroS S
	p.mode = ModeList
	p.items = nil
	p.summary = zeroS
	p.loaded = false
	p.current = zero
	p.editing = false
	p.events = nil
	p.fileList = nil
	p.form = nil
	p.dialog = nil
	p.busy = false
}

// AfterMount loads the list and the summary.
func (p *Panel[E, S]) AfterMount() tea.Cmd {
	if p.mode != ModeList || p.loaded || p.editing {
		p.reset()
		p.MountPoint().SetContent(p.Render())
	}
	return p.Refresh()
}

// BindEvents binds the items of the current view.
func (p *Panel[E, S]) BindEvents() {
	p.bindView()
}

// redraw re-renders every section and rebinds them.
func (p *Panel[E, S]) redraw() {
	if p.MountPoint() == nil || !p.Mounted() {
		return
	}
	p.MountPoint().SetContent(p.Render())
	p.bindView()
}

// Refresh reloads the list and the summary together. Either both are
// applied or, on any failure, neither.
func (p *Panel[E, S]) Refresh() tea.Cmd {
	p.listGen++
	gen, filter := p.listGen, p.filter
	return p.Async(func(ctx context.Context) tea.Msg {
		return p.fetch(ctx, gen, filter)
	})
}

func (p *Panel[E, S]) fetch(ctx context.Context, gen uint64, filter string) listMsg[E, S] {
	msg := listMsg[E, S]{gen: gen}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := p.kind.List(gctx, filter)
		msg.items = items
		return err
	})
	g.Go(func() error {
		summary, err := p.kind.Summary(gctx)
		msg.summary = summary
		return err
	})
	msg.err = g.Wait()
	return msg
}

// SetFilter changes the list filter and reloads.
func (p *Panel[E, S]) SetFilter(filter string) tea.Cmd {
	if p.mode != ModeList {
		return nil
	}
	p.filter = filter
	p.redraw()
	return p.Refresh()
}

// CycleFilter moves to the next filter choice.
func (p *Panel[E, S]) CycleFilter() tea.Cmd {
	filters := p.filters()
	next := 0
	for i, f := range filters {
		if f.Value == p.filter {
			next = (i + 1) % len(filters)
		}
	}
	return p.SetFilter(filters[next].Value)
}

func (p *Panel[E, S]) filters() []Filter {
	return append([]Filter{{Label: "Wszystkie"}}, p.kind.Filters(p.items, p.summary)...)
}

// New opens the editor on a blank entity.
func (p *Panel[E, S]) New() tea.Cmd {
	if p.mode != ModeList || p.busy {
		return nil
	}
	p.openGen++
	p.enterEdit(p.kind.Blank(), nil)
	return p.form.focusAt(0)
}

// Open fetches an entity and its events concurrently and opens the
// editor once both have arrived.
func (p *Panel[E, S]) Open(id int64) tea.Cmd {
	if p.mode != ModeList || p.busy {
		return nil
	}
	p.openGen++
	gen := p.openGen
	log.Debug(log.CatWorkspace, "Opening", "aggregate", p.kind.Aggregate(), "id", id)
	return p.Async(func(ctx context.Context) tea.Msg {
		msg := openMsg[E, S]{gen: gen}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			e, err := p.kind.Get(gctx, id)
			msg.entity = e
			return err
		})
		g.Go(func() error {
			events, err := p.kind.Events(gctx, id)
			msg.events = events
			return err
		})
		msg.err = g.Wait()
		return msg
	})
}

func (p *Panel[E, S]) enterEdit(e E, events []domain.DomainEvent) {
	p.current = e
	p.editing = true
	p.events = events
	p.fileList = nil
	p.filesGen++
	p.form = newForm(p.kind.Fields(), p.kind.Values(e), p.width)
	p.mode = ModeEdit
	p.redraw()
}

func (p *Panel[E, S]) leaveEdit() {
	var zero E
	p.current = zero
	p.editing = false
	p.events = nil
	p.fileList = nil
	p.filesGen++
	p.form = nil
	p.mode = ModeList
	p.redraw()
}

// Back leaves the current view: Edit returns to the list discarding
// input, Events and Files return to the editor.
func (p *Panel[E, S]) Back() tea.Cmd {
	if p.busy {
		return nil
	}
	switch p.mode {
	case ModeEdit:
		p.leaveEdit()
	case ModeEvents:
		p.mode = ModeEdit
		p.redraw()
	case ModeFiles:
		p.filesGen++
		p.mode = ModeEdit
		p.redraw()
	}
	return nil
}

// ShowEvents shows the already loaded history of an existing entity.
func (p *Panel[E, S]) ShowEvents() tea.Cmd {
	if p.mode != ModeEdit || !p.existing() {
		return nil
	}
	p.mode = ModeEvents
	p.redraw()
	return nil
}

// ShowFiles loads the file list and switches to it once loaded.
func (p *Panel[E, S]) ShowFiles() tea.Cmd {
	if p.files == nil || p.mode != ModeEdit || !p.existing() || p.busy {
		return nil
	}
	return p.loadFiles("load", domain.FileChange{ProjectID: p.kind.ID(p.current)}, nil)
}

// command may fill in the change it reports, such as the id of a new file.
func (p *Panel[E, S]) loadFiles(op string, change domain.FileChange, command func(ctx context.Context, change *domain.FileChange) error) tea.Cmd {
	p.filesGen++
	gen := p.filesGen
	owner := change.ProjectID
	return p.Async(func(ctx context.Context) tea.Msg {
		msg := filesMsg[E, S]{gen: gen, op: op, change: change}
		if command != nil {
			if msg.err = command(ctx, &msg.change); msg.err != nil {
				return msg
			}
		}
		msg.files, msg.err = p.files.Files(ctx, owner)
		return msg
	})
}

// Save validates the editor input and runs the create or update command.
// Invalid input is reported without a request.
func (p *Panel[E, S]) Save() tea.Cmd {
	if p.mode != ModeEdit || p.busy {
		return nil
	}
	candidate := p.kind.Apply(p.current, p.form.Values())
	if err := p.kind.Validate(candidate); err != nil {
		log.Debug(log.CatWorkspace, "Validation failed", "aggregate", p.kind.Aggregate(), "error", err)
		return p.Alert(domain.AlertWarn, err.Error())
	}

	p.busy = true
	created := p.kind.ID(candidate) == 0
	p.listGen++
	gen, filter := p.listGen, p.filter
	return p.Async(func(ctx context.Context) tea.Msg {
		var saved E
		var err error
		if created {
			saved, err = p.kind.Create(ctx, candidate)
		} else {
			saved, err = p.kind.Update(ctx, candidate)
		}
		msg := saveMsg[E, S]{created: created, entity: saved, err: err}
		if err == nil {
			msg.list = p.fetch(ctx, gen, filter)
		}
		return msg
	})
}

// RequestDelete asks for confirmation before deleting the current entity.
func (p *Panel[E, S]) RequestDelete() tea.Cmd {
	if p.mode != ModeEdit || !p.existing() || p.busy {
		return nil
	}
	return p.openDialog(dialogDelete, 0, modal.Config{
		Title:   "Usuń",
		Message: p.kind.Texts().DeleteConfirm,
		Danger:  true,
	})
}

func (p *Panel[E, S]) deleteConfirmed() tea.Cmd {
	if p.mode != ModeEdit || !p.existing() || p.busy {
		return nil
	}
	p.busy = true
	id := p.kind.ID(p.current)
	p.listGen++
	gen, filter := p.listGen, p.filter
	return p.Async(func(ctx context.Context) tea.Msg {
		msg := deleteMsg[E, S]{id: id}
		if msg.err = p.kind.Delete(ctx, id); msg.err == nil {
			msg.list = p.fetch(ctx, gen, filter)
		}
		return msg
	})
}

// RequestAddFile opens the new-file dialog.
func (p *Panel[E, S]) RequestAddFile() tea.Cmd {
	if p.mode != ModeFiles || p.busy {
		return nil
	}
	return p.openDialog(dialogAddFile, 0, modal.Config{
		Title: "Dodaj plik",
		Inputs: []modal.Input{
			{Key: "filename", Label: "Nazwa pliku", Placeholder: "np. umowa.pdf", Required: true},
			{Key: "path", Label: "Ścieżka", Placeholder: "opcjonalna"},
		},
	})
}

// AddFile attaches a file to the current entity and reloads only the
// file list.
func (p *Panel[E, S]) AddFile(filename, path string) tea.Cmd {
	if p.mode != ModeFiles || p.busy {
		return nil
	}
	if filename == "" {
		return p.Alert(domain.AlertWarn, "Podaj nazwę pliku")
	}
	p.busy = true
	owner := p.kind.ID(p.current)
	change := domain.FileChange{ProjectID: owner, Filename: filename}
	return p.loadFiles("add", change, func(ctx context.Context, change *domain.FileChange) error {
		f, err := p.files.AddFile(ctx, owner, filename, path)
		if err != nil {
			return err
		}
		change.FileID = f.ID
		return nil
	})
}

// RequestRemoveFile asks for confirmation before removing a file.
func (p *Panel[E, S]) RequestRemoveFile(fileID int64) tea.Cmd {
	if p.mode != ModeFiles || p.busy {
		return nil
	}
	return p.openDialog(dialogRemoveFile, fileID, modal.Config{
		Title:   "Usuń plik",
		Message: "Usunąć plik?",
		Danger:  true,
	})
}

func (p *Panel[E, S]) removeConfirmed(fileID int64) tea.Cmd {
	if p.mode != ModeFiles || p.busy {
		return nil
	}
	p.busy = true
	change := domain.FileChange{ProjectID: p.kind.ID(p.current), FileID: fileID}
	for _, f := range p.fileList {
		if f.ID == fileID {
			change.Filename = f.Filename
		}
	}
	return p.loadFiles("remove", change, func(ctx context.Context, _ *domain.FileChange) error {
		return p.files.RemoveFile(ctx, fileID)
	})
}

// Update applies results of the panel's own commands and dialogs.
func (p *Panel[E, S]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case modal.SubmitMsg:
		return p.dialogSubmitted(msg)
	case modal.CancelMsg:
		if p.dialog != nil && msg.ID == p.dialog.ID() {
			p.dialog = nil
		}
		return nil
	}

	if !p.Alive() {
		return nil
	}
	switch msg := msg.(type) {
	case listMsg[E, S]:
		p.applyList(msg)
	case openMsg[E, S]:
		return p.applyOpen(msg)
	case saveMsg[E, S]:
		return p.applySave(msg)
	case deleteMsg[E, S]:
		return p.applyDelete(msg)
	case filesMsg[E, S]:
		return p.applyFiles(msg)
	}
	return nil
}

// applyList keeps the previous list and summary when the reload failed.
func (p *Panel[E, S]) applyList(msg listMsg[E, S]) {
	agg := p.kind.Aggregate()
	if msg.gen != p.listGen {
		p.cfg.Metrics.StaleDropped(agg)
		log.Debug(log.CatWorkspace, "Dropping stale list", "aggregate", agg, "gen", msg.gen, "current", p.listGen)
		return
	}
	if msg.err != nil {
		log.ErrorErr(log.CatWorkspace, "Refresh failed", msg.err, "aggregate", agg)
		return
	}
	p.items = msg.items
	p.summary = msg.summary
	p.loaded = true
	if p.mode == ModeList {
		p.redraw()
	} else {
		p.Replace(p.summarySection())
	}
}

func (p *Panel[E, S]) applyOpen(msg openMsg[E, S]) tea.Cmd {
	agg := p.kind.Aggregate()
	if msg.gen != p.openGen || p.mode != ModeList {
		p.cfg.Metrics.StaleDropped(agg)
		return nil
	}
	if msg.err != nil {
		log.ErrorErr(log.CatWorkspace, "Open failed", msg.err, "aggregate", agg)
		return p.Alert(domain.AlertError, p.kind.Texts().LoadFailed)
	}
	p.enterEdit(msg.entity, msg.events)
	return nil
}

func (p *Panel[E, S]) applySave(msg saveMsg[E, S]) tea.Cmd {
	p.busy = false
	agg := p.kind.Aggregate()
	op := "update"
	if msg.created {
		op = "create"
	}
	if msg.err != nil {
		log.ErrorErr(log.CatWorkspace, "Save failed", msg.err, "aggregate", agg, "op", op)
		p.cfg.Metrics.Command(agg, op, "error")
		return p.Alert(domain.AlertError, p.kind.Texts().SaveFailed)
	}
	p.cfg.Metrics.Command(agg, op, "ok")

	topics := p.kind.Topics()
	topic := topics.Updated
	if msg.created {
		topic = topics.Created
	}
	id := p.kind.ID(msg.entity)
	log.Info(log.CatWorkspace, "Saved", "aggregate", agg, "op", op, "id", id)

	p.leaveEdit()
	p.applyList(msg.list)
	return tea.Batch(
		p.Emit(topic, id),
		p.Alert(domain.AlertSuccess, p.kind.Texts().Saved),
	)
}

func (p *Panel[E, S]) applyDelete(msg deleteMsg[E, S]) tea.Cmd {
	p.busy = false
	agg := p.kind.Aggregate()
	if msg.err != nil {
		log.ErrorErr(log.CatWorkspace, "Delete failed", msg.err, "aggregate", agg, "id", msg.id)
		p.cfg.Metrics.Command(agg, "delete", "error")
		return p.Alert(domain.AlertError, p.kind.Texts().DeleteFailed)
	}
	p.cfg.Metrics.Command(agg, "delete", "ok")
	log.Info(log.CatWorkspace, "Deleted", "aggregate", agg, "id", msg.id)

	p.leaveEdit()
	p.applyList(msg.list)
	return tea.Batch(
		p.Emit(p.kind.Topics().Deleted, msg.id),
		p.Alert(domain.AlertSuccess, p.kind.Texts().Deleted),
	)
}

func (p *Panel[E, S]) applyFiles(msg filesMsg[E, S]) tea.Cmd {
	agg := p.kind.Aggregate()
	if msg.op != "load" {
		p.busy = false
	}
	if msg.gen != p.filesGen {
		p.cfg.Metrics.StaleDropped(agg)
		return nil
	}
	if msg.err != nil {
		log.ErrorErr(log.CatWorkspace, "File operation failed", msg.err, "aggregate", agg, "op", msg.op)
		switch msg.op {
		case "add":
			p.cfg.Metrics.Command(agg, "add_file", "error")
			return p.Alert(domain.AlertError, "Błąd dodawania pliku")
		case "remove":
			p.cfg.Metrics.Command(agg, "remove_file", "error")
			return p.Alert(domain.AlertError, "Błąd usuwania pliku")
		default:
			return p.Alert(domain.AlertError, "Nie udało się wczytać plików")
		}
	}

	p.fileList = msg.files
	switch msg.op {
	case "load":
		if p.mode == ModeEdit {
			p.mode = ModeFiles
		}
		p.redraw()
		return nil
	case "add":
		p.cfg.Metrics.Command(agg, "add_file", "ok")
		p.redraw()
		return p.Emit(domain.TopicFileAdded, msg.change)
	default:
		p.cfg.Metrics.Command(agg, "remove_file", "ok")
		p.redraw()
		return p.Emit(domain.TopicFileRemoved, msg.change)
	}
}

func (p *Panel[E, S]) dialogID(purpose string) string {
	return p.kind.Aggregate() + ":" + purpose
}

func (p *Panel[E, S]) openDialog(purpose string, fileID int64, cfg modal.Config) tea.Cmd {
	cfg.ID = p.dialogID(purpose)
	m := modal.New(cfg)
	switch {
	case p.screenW > 0:
		m.SetSize(p.screenW, p.screenH)
	case p.width > 0:
		m.SetSize(p.width, p.height)
	}
	p.dialog = &m
	p.dialogPurpose = purpose
	p.dialogFileID = fileID
	return m.Init()
}

func (p *Panel[E, S]) dialogSubmitted(msg modal.SubmitMsg) tea.Cmd {
	if p.dialog == nil || msg.ID != p.dialog.ID() {
		return nil
	}
	purpose, fileID := p.dialogPurpose, p.dialogFileID
	p.dialog = nil
	switch purpose {
	case dialogDelete:
		return p.deleteConfirmed()
	case dialogAddFile:
		return p.AddFile(msg.Values["filename"], msg.Values["path"])
	case dialogRemoveFile:
		return p.removeConfirmed(fileID)
	}
	return nil
}

// DialogOpen reports whether a confirmation or input dialog is showing.
func (p *Panel[E, S]) DialogOpen() bool { return p.dialog != nil }

// Overlay draws the open dialog over bg.
func (p *Panel[E, S]) Overlay(bg string) string {
	if p.dialog == nil {
		return bg
	}
	return p.dialog.Overlay(bg)
}
