// Package workspace implements the list/editor panel shared by documents
// and projects.
//
// A Panel moves between four view modes:
//
//	List ──open──▶ Edit ──events──▶ Events
//	  ▲  ◀─cancel/save/delete─┘ └──files──▶ Files (kinds with a FileStore)
//
// Opening an existing entity fetches the entity and its events
// concurrently and enters Edit only when both arrive. Saving validates
// locally, runs the create or update command, then reloads the list and
// the summary together; a failed reload keeps the previous pair.
// Deleting always goes through a confirmation dialog.
package workspace

import (
	"context"
	"errors"

	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
)

// ViewMode is the panel's current screen.
type ViewMode int

const (
	ModeList ViewMode = iota
	ModeEdit
	ModeEvents
	ModeFiles
)

func (m ViewMode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeEdit:
		return "edit"
	case ModeEvents:
		return "events"
	case ModeFiles:
		return "files"
	default:
		return "unknown"
	}
}

// ValidationError carries a user-facing message for input rejected before
// any request is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a ValidationError with msg.
func Invalid(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Field describes one editor input.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	// Multiline fields use a textarea.
	Multiline bool
	// Options turns the field into a choice cycled with ←/→. An empty
	// first option means "not chosen".
	Options   []string
	MaxLength int
}

// Filter is one list filter choice. The empty value means "all".
type Filter struct {
	Value string
	Label string
}

// Topics are the bus topics a kind emits after successful commands.
type Topics struct {
	Created string
	Updated string
	Deleted string
}

// Texts are the user-facing strings of a kind.
type Texts struct {
	Title         string
	Empty         string
	Loading       string
	LoadFailed    string
	Saved         string
	SaveFailed    string
	Deleted       string
	DeleteFailed  string
	DeleteConfirm string
	NoEvents      string
}

// Kind adapts one aggregate type to the workspace. E is the entity, S the
// summary loaded together with the list.
type Kind[E, S any] interface {
	// Aggregate names the aggregate in logs, metrics and dialog ids.
	Aggregate() string
	Texts() Texts
	Topics() Topics

	Fields() []Field
	// Blank returns the placeholder for a new entity. Its ID is zero.
	Blank() E
	ID(e E) int64
	Label(e E) string
	Values(e E) map[string]string
	Apply(e E, values map[string]string) E
	// Validate returns a ValidationError for incomplete input.
	Validate(e E) error

	List(ctx context.Context, filter string) ([]E, error)
	Summary(ctx context.Context) (S, error)
	Get(ctx context.Context, id int64) (E, error)
	Events(ctx context.Context, id int64) ([]domain.DomainEvent, error)
	Create(ctx context.Context, e E) (E, error)
	Update(ctx context.Context, e E) (E, error)
	Delete(ctx context.Context, id int64) error

	Filters(items []E, summary S) []Filter
	// SummarySection renders the summary. loaded is false before the
	// first successful refresh.
	SummarySection(summary S, loaded bool) component.Section
	// ListSections renders the list. Every item must use the "open"
	// action with the entity id as argument.
	ListSections(items []E, filter string, selected int64) []component.Section
}

// FileStore is implemented by kinds whose entities own files.
type FileStore interface {
	Files(ctx context.Context, ownerID int64) ([]domain.ProjectFile, error)
	// AddFile returns the stored file.
	AddFile(ctx context.Context, ownerID int64, filename, path string) (domain.ProjectFile, error)
	RemoveFile(ctx context.Context, fileID int64) error
}
