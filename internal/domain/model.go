// Package domain holds the detax data model shared by the API client and
// the panels.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Channel is a conversation topic the chat can be scoped to.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectFile belongs to exactly one project.
type ProjectFile struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id,omitempty"`
	Filename  string `json:"filename"`
	Path      string `json:"path,omitempty"`
}

// Project is created, updated and deleted only through commands.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Contact     string        `json:"contact,omitempty"`
	Files       []ProjectFile `json:"files,omitempty"`
}

// FileByID looks a file up among the project's own files.
func (p Project) FileByID(id int64) (ProjectFile, bool) {
	for _, f := range p.Files {
		if f.ID == id {
			return f, true
		}
	}
	return ProjectFile{}, false
}

// Contact groups projects under a counterparty name.
type Contact struct {
	Name     string    `json:"name"`
	Projects []Project `json:"projects"`
}

// ProjectByID looks a project up among the contact's own projects.
func (c Contact) ProjectByID(id int64) (Project, bool) {
	for _, p := range c.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Document is a knowledge-base entry.
type Document struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// DocumentCategories lists the categories the knowledge base accepts.
func DocumentCategories() []string {
	return []string{"ksef", "b2b", "zus", "vat"}
}

// CategoryCount is one row of the per-category statistics.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DocumentStats aggregates the knowledge base.
type DocumentStats struct {
	TotalDocuments int             `json:"total_documents"`
	TotalChunks    int             `json:"total_chunks"`
	Categories     []CategoryCount `json:"categories"`
}

// DomainEvent is an immutable record appended by the server.
type DomainEvent struct {
	ID            string         `json:"id"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     Timestamp      `json:"created_at"`
}

// IsCreate reports whether the event records an aggregate creation.
func (e DomainEvent) IsCreate() bool { return strings.HasSuffix(e.EventType, "Created") }

// IsUpdate reports whether the event records an aggregate update.
func (e DomainEvent) IsUpdate() bool { return strings.HasSuffix(e.EventType, "Updated") }

// IsDelete reports whether the event records an aggregate deletion.
func (e DomainEvent) IsDelete() bool { return strings.HasSuffix(e.EventType, "Deleted") }

// Timestamp decodes the server's datetimes, which may lack a zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts RFC 3339 and naive ISO datetimes.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON writes RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ChatSource is one citation returned with a chat answer.
type ChatSource struct {
	Title      string  `json:"title"`
	Source     *string `json:"source"`
	Similarity float64 `json:"similarity"`
}

// ChatResponse is the body of a successful /chat call.
type ChatResponse struct {
	Response       string       `json:"response"`
	Sources        []ChatSource `json:"sources,omitempty"`
	Module         string       `json:"module"`
	ConversationID string       `json:"conversation_id"`
}

// Health status values reported by /health.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// Health is the body of /health.
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// ModelLoading reports whether the LLM is still being pulled.
func (h Health) ModelLoading() bool {
	return h.Services["model"] == "not_loaded"
}

// SearchHit is one full-text match from /search.
type SearchHit struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Source   string  `json:"source,omitempty"`
	Category string  `json:"category"`
	Snippet  string  `json:"snippet"`
	Rank     float64 `json:"rank"`
}

// SearchResults is the body of /search.
type SearchResults struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}
