package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/detax-ai/detax/internal/domain"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	Module  string `json:"module"`
}

// Chat sends one question scoped to a channel.
func (c *Client) Chat(ctx context.Context, message, channel string) (domain.ChatResponse, error) {
	var resp domain.ChatResponse
	err := c.Post(ctx, "/chat", ChatRequest{Message: message, Module: channel}, &resp)
	return resp, err
}

// Health checks /health, which sits outside the versioned prefix.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var h domain.Health
	err := c.do(ctx, http.MethodGet, c.root+"/health", "/health", nil, &h)
	return h, err
}

// Hierarchy loads the Contact → Project → File tree.
func (c *Client) Hierarchy(ctx context.Context) ([]domain.Contact, error) {
	var body struct {
		Contacts []domain.Contact `json:"contacts"`
	}
	if err := c.Get(ctx, "/context/hierarchy", &body); err != nil {
		return nil, err
	}
	return body.Contacts, nil
}

// ChannelQuery is the selection recommended channels are computed for.
// Zero values are omitted from the query string.
type ChannelQuery struct {
	Contact   string
	ProjectID int64
	FileID    int64
}

func (q ChannelQuery) encode() string {
	v := url.Values{}
	if q.Contact != "" {
		v.Set("contact", q.Contact)
	}
	if q.ProjectID != 0 {
		v.Set("project_id", strconv.FormatInt(q.ProjectID, 10))
	}
	if q.FileID != 0 {
		v.Set("file_id", strconv.FormatInt(q.FileID, 10))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// RecommendedChannels asks the server which channels fit the selection.
func (c *Client) RecommendedChannels(ctx context.Context, q ChannelQuery) ([]domain.Channel, error) {
	var body struct {
		Channels []domain.Channel `json:"channels"`
	}
	if err := c.Get(ctx, "/context/channels"+q.encode(), &body); err != nil {
		return nil, err
	}
	return body.Channels, nil
}

// DocumentFilter narrows the document list.
type DocumentFilter struct {
	Category string
	Limit    int
}

// Documents lists knowledge-base entries.
func (c *Client) Documents(ctx context.Context, f DocumentFilter) ([]domain.Document, error) {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/documents"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var docs []domain.Document
	err := c.Get(ctx, path, &docs)
	return docs, err
}

// Document fetches one entry.
func (c *Client) Document(ctx context.Context, id int64) (domain.Document, error) {
	var doc domain.Document
	err := c.Get(ctx, fmt.Sprintf("/documents/%d", id), &doc)
	return doc, err
}

// DocumentStats fetches per-category counts.
func (c *Client) DocumentStats(ctx context.Context) (domain.DocumentStats, error) {
	var stats domain.DocumentStats
	err := c.Get(ctx, "/documents/stats", &stats)
	return stats, err
}

// DocumentEvents fetches the event history of one document.
func (c *Client) DocumentEvents(ctx context.Context, id int64) ([]domain.DomainEvent, error) {
	var events []domain.DomainEvent
	err := c.Get(ctx, fmt.Sprintf("/events/documents/%d", id), &events)
	return events, err
}

// DocumentCommand is the body of the document create and update commands.
// ID is omitted on create.
type DocumentCommand struct {
	ID       int64   `json:"id,omitempty"`
	Title    string  `json:"title"`
	Source   *string `json:"source"`
	Category string  `json:"category"`
	Content  string  `json:"content"`
}

// NewDocumentCommand builds a command from a document, sending a null
// source when it is blank.
func NewDocumentCommand(d domain.Document) DocumentCommand {
	return DocumentCommand{
		ID:       d.ID,
		Title:    d.Title,
		Source:   nullable(d.Source),
		Category: d.Category,
		Content:  d.Content,
	}
}

// CreateDocument issues the create command.
func (c *Client) CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	cmd := NewDocumentCommand(d)
	cmd.ID = 0
	var out domain.Document
	err := c.Post(ctx, "/commands/documents/create", cmd, &out)
	return out, err
}

// UpdateDocument issues the update command.
func (c *Client) UpdateDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	var out domain.Document
	err := c.Post(ctx, "/commands/documents/update", NewDocumentCommand(d), &out)
	return out, err
}

// DeleteDocument issues the delete command.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.Post(ctx, "/commands/documents/delete", idCommand{ID: id}, nil)
}

// Search runs a full-text query over the knowledge base.
func (c *Client) Search(ctx context.Context, query, category string, limit int) (domain.SearchResults, error) {
	v := url.Values{}
	v.Set("q", query)
	if category != "" {
		v.Set("category", category)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var res domain.SearchResults
	err := c.Get(ctx, "/search?"+v.Encode(), &res)
	return res, err
}

// ProjectFilter narrows the project list.
type ProjectFilter struct {
	Contact string
	Limit   int
}

// Projects lists projects.
func (c *Client) Projects(ctx context.Context, f ProjectFilter) ([]domain.Project, error) {
	v := url.Values{}
	if f.Contact != "" {
		v.Set("contact", f.Contact)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/projects"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var projects []domain.Project
	err := c.Get(ctx, path, &projects)
	return projects, err
}

// Project fetches one project.
func (c *Client) Project(ctx context.Context, id int64) (domain.Project, error) {
	var p domain.Project
	err := c.Get(ctx, fmt.Sprintf("/projects/%d", id), &p)
	return p, err
}

// ProjectFiles lists the files attached to a project.
func (c *Client) ProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	var files []domain.ProjectFile
	err := c.Get(ctx, fmt.Sprintf("/projects/%d/files", projectID), &files)
	return files, err
}

// ProjectEvents fetches the event history of one project.
func (c *Client) ProjectEvents(ctx context.Context, id int64) ([]domain.DomainEvent, error) {
	var events []domain.DomainEvent
	err := c.Get(ctx, fmt.Sprintf("/events/projects/%d", id), &events)
	return events, err
}

// ProjectCommand is the body of the project create and update commands.
type ProjectCommand struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Contact     *string `json:"contact"`
}

// NewProjectCommand builds a command from a project.
func NewProjectCommand(p domain.Project) ProjectCommand {
	return ProjectCommand{
		ID:          p.ID,
		Name:        p.Name,
		Description: nullable(p.Description),
		Contact:     nullable(p.Contact),
	}
}

// CreateProject issues the create command.
func (c *Client) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	cmd := NewProjectCommand(p)
	cmd.ID = 0
	var out domain.Project
	err := c.Post(ctx, "/commands/projects/create", cmd, &out)
	return out, err
}

// UpdateProject issues the update command.
func (c *Client) UpdateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	var out domain.Project
	err := c.Post(ctx, "/commands/projects/update", NewProjectCommand(p), &out)
	return out, err
}

// DeleteProject issues the delete command.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.Post(ctx, "/commands/projects/delete", idCommand{ID: id}, nil)
}

// AddFileCommand is the body of the add-file command.
type AddFileCommand struct {
	ProjectID int64   `json:"project_id"`
	Filename  string  `json:"filename"`
	Path      *string `json:"path"`
}

// AddProjectFile attaches a file to a project and returns the stored row.
func (c *Client) AddProjectFile(ctx context.Context, projectID int64, filename, path string) (domain.ProjectFile, error) {
	cmd := AddFileCommand{ProjectID: projectID, Filename: filename, Path: nullable(path)}
	var out domain.ProjectFile
	err := c.Post(ctx, "/commands/projects/files/add", cmd, &out)
	return out, err
}

// removeFileCommand carries the id under both names the server has used.
type removeFileCommand struct {
	ID     int64 `json:"id"`
	FileID int64 `json:"file_id"`
}

// RemoveProjectFile detaches a file.
func (c *Client) RemoveProjectFile(ctx context.Context, fileID int64) error {
	return c.Post(ctx, "/commands/projects/files/remove", removeFileCommand{ID: fileID, FileID: fileID}, nil)
}

type idCommand struct {
	ID int64 `json:"id"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
