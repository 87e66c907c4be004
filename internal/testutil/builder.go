package testutil

import (
	"testing"

	"github.com/detax-ai/detax/internal/domain"
)

// Builder accumulates fixtures and seeds a Server with them in order.
// Seeding records a creation event for each aggregate, as the commands do.
type Builder struct {
	t        *testing.T
	projects []projectData
	docs     []domain.Document
	chunks   int
}

type projectData struct {
	project domain.Project
	files   []domain.ProjectFile
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithProject adds a project. Ids are assigned in insertion order.
func (b *Builder) WithProject(name string, opts ...ProjectOption) *Builder {
	pd := projectData{project: domain.Project{Name: name}}
	for _, opt := range opts {
		opt(&pd)
	}
	b.projects = append(b.projects, pd)
	return b
}

// WithDocument adds a knowledge-base document.
func (b *Builder) WithDocument(title, category string, opts ...DocumentOption) *Builder {
	d := domain.Document{Title: title, Category: category, Content: title}
	for _, opt := range opts {
		opt(&d)
	}
	b.docs = append(b.docs, d)
	return b
}

// WithChunks sets the chunk count reported by the stats endpoint.
func (b *Builder) WithChunks(n int) *Builder {
	b.chunks = n
	return b
}

// Build starts the server.
func (b *Builder) Build() *Server {
	b.t.Helper()
	s := newServer(b.t)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pd := range b.projects {
		p := pd.project
		p.ID = s.allocID()
		s.projects[p.ID] = p
		s.appendEvent("project", p.ID, "ProjectCreated", projectPayload(p))
		for _, f := range pd.files {
			f.ID = s.allocID()
			f.ProjectID = p.ID
			s.files[f.ID] = f
		}
	}
	for _, d := range b.docs {
		d.ID = s.allocID()
		s.documents[d.ID] = d
		s.appendEvent("document", d.ID, "DocumentCreated", documentPayload(d))
	}
	s.chunks = b.chunks
	return s
}
