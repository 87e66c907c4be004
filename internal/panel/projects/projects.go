// Package projects is the project workspace: projects grouped by contact,
// with a per-project file list.
package projects

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/component"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/metrics"
	"github.com/detax-ai/detax/internal/panel/workspace"
	"github.com/detax-ai/detax/internal/pubsub"
	"github.com/detax-ai/detax/internal/ui/styles"
)

// NoContact labels the group of projects without a contact.
const NoContact = "Bez kontaktu"

// Client is the part of the API the project workspace uses.
type Client interface {
	Projects(ctx context.Context, f api.ProjectFilter) ([]domain.Project, error)
	Project(ctx context.Context, id int64) (domain.Project, error)
	ProjectEvents(ctx context.Context, id int64) ([]domain.DomainEvent, error)
	CreateProject(ctx context.Context, p domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, p domain.Project) (domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error)
	AddProjectFile(ctx context.Context, projectID int64, filename, path string) (domain.ProjectFile, error)
	RemoveProjectFile(ctx context.Context, fileID int64) error
}

// Config configures the project workspace.
type Config struct {
	MountID string
	Limit   int
	Metrics *metrics.Metrics
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("projects: mount id is required")
	}
	if c.Limit < 0 {
		return fmt.Errorf("projects: limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// Overview summarises every project regardless of the contact filter.
type Overview struct {
	Total    int
	Contacts []string
}

// Panel is the project workspace.
type Panel = workspace.Panel[domain.Project, Overview]

// New builds the project workspace.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("projects: client is required")
	}
	return workspace.New[domain.Project, Overview](
		workspace.Config{MountID: cfg.MountID, Metrics: cfg.Metrics},
		&Kind{client: client, limit: cfg.Limit},
		surface, bus,
	)
}

// Kind binds projects to the workspace. It is also the file store of the
// Files view.
type Kind struct {
	client Client
	limit  int
}

var (
	_ workspace.Kind[domain.Project, Overview] = (*Kind)(nil)
	_ workspace.FileStore                      = (*Kind)(nil)
)

func (k *Kind) Aggregate() string { return "projects" }

func (k *Kind) Texts() workspace.Texts {
	return workspace.Texts{
		Title:         "📁 Projekty",
		Empty:         "Brak projektów. Naciśnij n aby dodać nowy.",
		Loading:       "Ładowanie projektów...",
		LoadFailed:    "Nie udało się wczytać projektu",
		Saved:         "Projekt zapisany",
		SaveFailed:    "Błąd zapisu projektu",
		Deleted:       "Projekt usunięty",
		DeleteFailed:  "Błąd usuwania projektu",
		DeleteConfirm: "Czy na pewno chcesz usunąć ten projekt?",
		NoEvents:      "Brak zdarzeń dla tego projektu",
	}
}

func (k *Kind) Topics() workspace.Topics {
	return workspace.Topics{
		Created: domain.TopicProjectCreated,
		Updated: domain.TopicProjectUpdated,
		Deleted: domain.TopicProjectDeleted,
	}
}

func (k *Kind) Fields() []workspace.Field {
	return []workspace.Field{
		{Key: "name", Label: "Nazwa projektu", Placeholder: "Nazwa projektu", MaxLength: 200},
		{Key: "contact", Label: "Kontakt", Placeholder: "np. Kontrahent, Księgowa...", MaxLength: 200},
		{Key: "description", Label: "Opis", Placeholder: "Opis projektu...", Multiline: true},
	}
}

func (k *Kind) Blank() domain.Project         { return domain.Project{} }
func (k *Kind) ID(p domain.Project) int64     { return p.ID }
func (k *Kind) Label(p domain.Project) string { return p.Name }

func (k *Kind) Values(p domain.Project) map[string]string {
	return map[string]string{
		"name":        p.Name,
		"contact":     p.Contact,
		"description": p.Description,
	}
}

func (k *Kind) Apply(p domain.Project, v map[string]string) domain.Project {
	p.Name = strings.TrimSpace(v["name"])
	p.Contact = strings.TrimSpace(v["contact"])
	p.Description = strings.TrimSpace(v["description"])
	return p
}

func (k *Kind) Validate(p domain.Project) error {
	if p.Name == "" {
		return workspace.Invalid("Podaj nazwę projektu")
	}
	return nil
}

// List sends the contact filter to the server.
func (k *Kind) List(ctx context.Context, contact string) ([]domain.Project, error) {
	return k.client.Projects(ctx, api.ProjectFilter{Contact: contact, Limit: k.limit})
}

// Summary counts all projects and collects the contacts the filter offers.
func (k *Kind) Summary(ctx context.Context) (Overview, error) {
	all, err := k.client.Projects(ctx, api.ProjectFilter{Limit: k.limit})
	if err != nil {
		return Overview{}, err
	}
	seen := make(map[string]bool)
	o := Overview{Total: len(all)}
	for _, p := range all {
		if p.Contact != "" && !seen[p.Contact] {
			seen[p.Contact] = true
			o.Contacts = append(o.Contacts, p.Contact)
		}
	}
	sort.Strings(o.Contacts)
	return o, nil
}

func (k *Kind) Get(ctx context.Context, id int64) (domain.Project, error) {
	return k.client.Project(ctx, id)
}

func (k *Kind) Events(ctx context.Context, id int64) ([]domain.DomainEvent, error) {
	return k.client.ProjectEvents(ctx, id)
}

func (k *Kind) Create(ctx context.Context, p domain.Project) (domain.Project, error) {
	return k.client.CreateProject(ctx, p)
}

func (k *Kind) Update(ctx context.Context, p domain.Project) (domain.Project, error) {
	out, err := k.client.UpdateProject(ctx, p)
	if err != nil {
		return out, err
	}
	if out.ID == 0 {
		out = p
	}
	return out, nil
}

func (k *Kind) Delete(ctx context.Context, id int64) error {
	return k.client.DeleteProject(ctx, id)
}

func (k *Kind) Files(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	return k.client.ProjectFiles(ctx, projectID)
}

func (k *Kind) AddFile(ctx context.Context, projectID int64, filename, path string) (domain.ProjectFile, error) {
	return k.client.AddProjectFile(ctx, projectID, filename, path)
}

func (k *Kind) RemoveFile(ctx context.Context, fileID int64) error {
	return k.client.RemoveProjectFile(ctx, fileID)
}

func (k *Kind) Filters(_ []domain.Project, o Overview) []workspace.Filter {
	out := make([]workspace.Filter, 0, len(o.Contacts))
	for _, c := range o.Contacts {
		out = append(out, workspace.Filter{Value: c, Label: "👤 " + c})
	}
	return out
}

func (k *Kind) SummarySection(o Overview, loaded bool) component.Section {
	if !loaded {
		return component.Section{Body: styles.MutedStyle.Render("Ładowanie...")}
	}
	return component.Section{Body: styles.MutedStyle.Render(
		fmt.Sprintf("%d projektów · %d kontaktów", o.Total, len(o.Contacts)))}
}

// ListSections groups projects by contact in order of first appearance.
func (k *Kind) ListSections(items []domain.Project, _ string, selected int64) []component.Section {
	var sections []component.Section
	index := make(map[string]int)
	for _, p := range items {
		name := p.Contact
		if name == "" {
			name = NoContact
		}
		i, ok := index[name]
		if !ok {
			i = len(sections)
			index[name] = i
			sections = append(sections, component.Section{ID: "contact-" + strconv.Itoa(i)})
		}
		label := "📋 " + p.Name
		if p.Description != "" {
			label += "  " + styles.MutedStyle.Render(p.Description)
		}
		sections[i].Items = append(sections[i].Items, component.Item{
			Action: "open",
			Arg:    strconv.FormatInt(p.ID, 10),
			Label:  label,
			Active: p.ID == selected,
		})
	}
	for name, i := range index {
		sections[i].Title = fmt.Sprintf("👤 %s (%d)", name, len(sections[i].Items))
	}
	return sections
}
