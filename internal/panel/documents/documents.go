// Package documents is the knowledge-base workspace: documents listed by
// category with per-category statistics above the list.
package documents

import (
	"context"
	"fmt"
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

// Client is the part of the API the documents workspace uses.
type Client interface {
	Documents(ctx context.Context, f api.DocumentFilter) ([]domain.Document, error)
	Document(ctx context.Context, id int64) (domain.Document, error)
	DocumentStats(ctx context.Context) (domain.DocumentStats, error)
	DocumentEvents(ctx context.Context, id int64) ([]domain.DomainEvent, error)
	CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error)
	UpdateDocument(ctx context.Context, d domain.Document) (domain.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
}

// Config configures the documents workspace.
type Config struct {
	MountID string
	// Limit caps the listed documents; zero leaves it to the server.
	Limit   int
	Metrics *metrics.Metrics
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MountID == "" {
		return fmt.Errorf("documents: mount id is required")
	}
	if c.Limit < 0 {
		return fmt.Errorf("documents: limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// Panel is the documents workspace.
type Panel = workspace.Panel[domain.Document, domain.DocumentStats]

// New builds the documents workspace.
func New(cfg Config, client Client, surface *component.Surface, bus *pubsub.Bus) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("documents: client is required")
	}
	return workspace.New[domain.Document, domain.DocumentStats](
		workspace.Config{MountID: cfg.MountID, Metrics: cfg.Metrics},
		&Kind{client: client, limit: cfg.Limit},
		surface, bus,
	)
}

// Kind binds documents to the workspace.
type Kind struct {
	client Client
	limit  int
}

var _ workspace.Kind[domain.Document, domain.DocumentStats] = (*Kind)(nil)

func (k *Kind) Aggregate() string { return "documents" }

func (k *Kind) Texts() workspace.Texts {
	return workspace.Texts{
		Title:         "📚 Dokumenty",
		Empty:         "Brak dokumentów. Naciśnij n aby dodać nowy.",
		Loading:       "Ładowanie dokumentów...",
		LoadFailed:    "Nie udało się wczytać dokumentu",
		Saved:         "Dokument zapisany",
		SaveFailed:    "Błąd zapisu dokumentu",
		Deleted:       "Dokument usunięty",
		DeleteFailed:  "Błąd usuwania dokumentu",
		DeleteConfirm: "Czy na pewno chcesz usunąć ten dokument?",
		NoEvents:      "Brak zdarzeń dla tego dokumentu",
	}
}

func (k *Kind) Topics() workspace.Topics {
	return workspace.Topics{
		Created: domain.TopicDocumentCreated,
		Updated: domain.TopicDocumentUpdated,
		Deleted: domain.TopicDocumentDeleted,
	}
}

func (k *Kind) Fields() []workspace.Field {
	return []workspace.Field{
		{Key: "title", Label: "Tytuł", Placeholder: "Tytuł dokumentu", MaxLength: 200},
		{Key: "category", Label: "Kategoria", Options: append([]string{""}, domain.DocumentCategories()...)},
		{Key: "source", Label: "Źródło", Placeholder: "np. Ustawa o VAT, art. 106", MaxLength: 200},
		{Key: "content", Label: "Treść", Placeholder: "Treść dokumentu...", Multiline: true},
	}
}

func (k *Kind) Blank() domain.Document         { return domain.Document{} }
func (k *Kind) ID(d domain.Document) int64     { return d.ID }
func (k *Kind) Label(d domain.Document) string { return d.Title }

func (k *Kind) Values(d domain.Document) map[string]string {
	return map[string]string{
		"title":    d.Title,
		"category": d.Category,
		"source":   d.Source,
		"content":  d.Content,
	}
}

func (k *Kind) Apply(d domain.Document, v map[string]string) domain.Document {
	d.Title = strings.TrimSpace(v["title"])
	d.Category = v["category"]
	d.Source = strings.TrimSpace(v["source"])
	d.Content = strings.TrimSpace(v["content"])
	return d
}

// Validate requires everything but the source.
func (k *Kind) Validate(d domain.Document) error {
	if d.Title == "" || d.Category == "" || d.Content == "" {
		return workspace.Invalid("Wypełnij wszystkie wymagane pola")
	}
	return nil
}

// List filters by category on the server.
func (k *Kind) List(ctx context.Context, category string) ([]domain.Document, error) {
	return k.client.Documents(ctx, api.DocumentFilter{Category: category, Limit: k.limit})
}

func (k *Kind) Summary(ctx context.Context) (domain.DocumentStats, error) {
	return k.client.DocumentStats(ctx)
}

func (k *Kind) Get(ctx context.Context, id int64) (domain.Document, error) {
	return k.client.Document(ctx, id)
}

func (k *Kind) Events(ctx context.Context, id int64) ([]domain.DomainEvent, error) {
	return k.client.DocumentEvents(ctx, id)
}

func (k *Kind) Create(ctx context.Context, d domain.Document) (domain.Document, error) {
	return k.client.CreateDocument(ctx, d)
}

// Update keeps the submitted document when the server answers without
// one.
func (k *Kind) Update(ctx context.Context, d domain.Document) (domain.Document, error) {
	out, err := k.client.UpdateDocument(ctx, d)
	if err != nil {
		return out, err
	}
	if out.ID == 0 {
		out = d
	}
	return out, nil
}

func (k *Kind) Delete(ctx context.Context, id int64) error {
	return k.client.DeleteDocument(ctx, id)
}

// Filters offers every accepted category, whether or not it has documents.
func (k *Kind) Filters([]domain.Document, domain.DocumentStats) []workspace.Filter {
	var out []workspace.Filter
	for _, c := range domain.DocumentCategories() {
		out = append(out, workspace.Filter{Value: c, Label: categoryLabel(c)})
	}
	return out
}

func (k *Kind) SummarySection(stats domain.DocumentStats, loaded bool) component.Section {
	if !loaded {
		return component.Section{Body: styles.MutedStyle.Render("Ładowanie...")}
	}
	line := fmt.Sprintf("%s dokumentów  %s chunków",
		styles.TitleStyle.Render(strconv.Itoa(stats.TotalDocuments)),
		styles.TitleStyle.Render(strconv.Itoa(stats.TotalChunks)))
	var badges []string
	for _, c := range stats.Categories {
		badges = append(badges, styles.MutedStyle.Render(fmt.Sprintf("%s: %d", c.Category, c.Count)))
	}
	if len(badges) > 0 {
		line += "\n" + strings.Join(badges, "  ")
	}
	return component.Section{Body: line}
}

// SectionDocuments holds the document list.
const SectionDocuments = "documents"

func (k *Kind) ListSections(docs []domain.Document, _ string, selected int64) []component.Section {
	if len(docs) == 0 {
		return nil
	}
	s := component.Section{ID: SectionDocuments}
	for _, d := range docs {
		label := d.Title + "  " + styles.ActiveItemStyle.Render(d.Category)
		if d.Source != "" {
			label += "  " + styles.MutedStyle.Render(d.Source)
		}
		s.Items = append(s.Items, component.Item{
			Action: "open",
			Arg:    strconv.FormatInt(d.ID, 10),
			Label:  label,
			Active: d.ID == selected,
		})
	}
	return []component.Section{s}
}

func categoryLabel(category string) string {
	if ch, ok := domain.LookupChannel(category); ok {
		return ch.Name
	}
	return strings.ToUpper(category)
}
