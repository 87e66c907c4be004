// Package testutil provides an in-memory detax API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/detax-ai/detax/internal/domain"
)

// Prefix is the versioned path the fake serves under.
const Prefix = "/api/v1"

// RecordedRequest is one request the server received.
type RecordedRequest struct {
	Method string
	Path   string // without query
	Query  string
	Body   string
}

// ChatResponder answers a chat message. A status other than 200 makes the
// server fail the request with that status.
type ChatResponder func(message, module string) (domain.ChatResponse, int)

// Server is a fake detax API backed by maps.
type Server struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	nextID    int64
	clock     time.Time
	documents map[int64]domain.Document
	projects  map[int64]domain.Project
	files     map[int64]domain.ProjectFile
	events    map[string][]domain.DomainEvent
	chunks    int
	health    domain.Health
	chat      ChatResponder
	failures  map[string]int
	requests  []RecordedRequest
}

func newServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		t:         t,
		nextID:    1,
		clock:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		documents: make(map[int64]domain.Document),
		projects:  make(map[int64]domain.Project),
		files:     make(map[int64]domain.ProjectFile),
		events:    make(map[string][]domain.DomainEvent),
		health: domain.Health{
			Status:   domain.HealthHealthy,
			Services: map[string]string{"api": "ok", "database": "ok", "model": "ok"},
		},
		failures: make(map[string]int),
	}
	s.chat = s.defaultChat
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the server root.
func (s *Server) URL() string { return s.srv.URL }

// SetHealth replaces the /health body.
func (s *Server) SetHealth(h domain.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// SetChatResponder replaces the chat handler.
func (s *Server) SetChatResponder(r ChatResponder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = r
}

// Fail makes every request to method+path (query excluded, prefix
// included) answer with status until ClearFailures.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestCount counts logged requests matching method and path.
func (s *Server) RequestCount(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Documents returns the stored documents by id.
func (s *Server) Documents() []domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedDocuments("")
}

// Events returns the stored events of one aggregate.
func (s *Server) Events(aggregate string, id int64) []domain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DomainEvent(nil), s.events[eventKey(aggregate, id)]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			body = raw
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})
	status, failing := s.failures[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if failing {
		writeDetail(w, status, "injected failure")
		return
	}

	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		s.mu.Lock()
		h := s.health
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, h)
		return
	}

	path, ok := strings.CutPrefix(r.URL.Path, Prefix)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.route(w, r, path, body)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request, path string, body []byte) {
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodPost && path == "/chat":
		s.handleChat(w, body)
	case r.Method == http.MethodGet && path == "/context/hierarchy":
		s.handleHierarchy(w)
	case r.Method == http.MethodGet && path == "/context/channels":
		s.handleChannels(w, q.Get("contact"), q.Get("project_id"), q.Get("file_id"))
	case r.Method == http.MethodGet && path == "/documents":
		s.mu.Lock()
		docs := s.sortedDocuments(q.Get("category"))
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, docs)
	case r.Method == http.MethodGet && path == "/documents/stats":
		s.handleStats(w)
	case r.Method == http.MethodGet && path == "/search":
		s.handleSearch(w, q.Get("q"), q.Get("category"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/documents/"):
		s.handleGetDocument(w, strings.TrimPrefix(path, "/documents/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/events/documents/"):
		s.handleEvents(w, "document", strings.TrimPrefix(path, "/events/documents/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/events/projects/"):
		s.handleEvents(w, "project", strings.TrimPrefix(path, "/events/projects/"))
	case r.Method == http.MethodGet && path == "/projects":
		s.mu.Lock()
		projects := s.sortedProjects(q.Get("contact"))
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, projects)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/files") && strings.HasPrefix(path, "/projects/"):
		s.handleProjectFiles(w, strings.TrimSuffix(strings.TrimPrefix(path, "/projects/"), "/files"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/projects/"):
		s.handleGetProject(w, strings.TrimPrefix(path, "/projects/"))
	case r.Method == http.MethodGet && path == "/sources":
		s.handleSources(w, q.Get("source_type"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/sources/category/"):
		s.handleSourcesForCategory(w, strings.TrimPrefix(path, "/sources/category/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/sources/"):
		s.handleSource(w, strings.TrimPrefix(path, "/sources/"))
	case r.Method == http.MethodGet && path == "/legal-documents":
		s.handleLegalDocuments(w)
	case r.Method == http.MethodPost && path == "/verify":
		s.handleVerify(w, body)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/verify/vat/"):
		s.handleVerifyVAT(w, strings.TrimPrefix(path, "/verify/vat/"))
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/commands/"):
		s.handleCommand(w, strings.TrimPrefix(path, "/commands/"), body)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) defaultChat(message, module string) (domain.ChatResponse, int) {
	src := "ustawa.pdf"
	return domain.ChatResponse{
		Response: fmt.Sprintf("Odpowiedź (%s): %s", module, message),
		Sources:  []domain.ChatSource{{Title: "Ustawa o VAT", Source: &src, Similarity: 0.82}},
		Module:   module,
	}, http.StatusOK
}

func (s *Server) handleChat(w http.ResponseWriter, body []byte) {
	var req struct {
		Message string `json:"message"`
		Module  string `json:"module"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Message == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "message is required")
		return
	}
	s.mu.Lock()
	responder := s.chat
	s.mu.Unlock()

	resp, status := responder(req.Message, req.Module)
	if status != http.StatusOK {
		writeDetail(w, status, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHierarchy(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.sortedProjects("")
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i].Contact, projects[j].Contact
		if (a == "") != (b == "") {
			return b == ""
		}
		return a < b
	})

	var contacts []domain.Contact
	index := make(map[string]int)
	for _, p := range projects {
		name := p.Contact
		if name == "" {
			name = "Inne"
		}
		i, ok := index[name]
		if !ok {
			i = len(contacts)
			index[name] = i
			contacts = append(contacts, domain.Contact{Name: name})
		}
		p.Files = s.projectFiles(p.ID)
		p.Contact = ""
		contacts[i].Projects = append(contacts[i].Projects, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (s *Server) handleChannels(w http.ResponseWriter, contact, projectID, fileID string) {
	s.mu.Lock()
	parts := []string{contact}
	if id, err := strconv.ParseInt(projectID, 10, 64); err == nil {
		if p, ok := s.projects[id]; ok {
			parts = append(parts, p.Name, p.Description)
		}
	}
	if id, err := strconv.ParseInt(fileID, 10, 64); err == nil {
		if f, ok := s.files[id]; ok {
			parts = append(parts, f.Filename, f.Path)
		}
	}
	s.mu.Unlock()

	text := strings.ToLower(strings.Join(parts, " "))
	want := map[string]bool{domain.GeneralChannel: true}
	rules := map[string][]string{
		"ksef": {"ksef", "e-fakt", "faktura"},
		"b2b":  {"umowa", "b2b", "kontrakt", "sprzeda"},
		"zus":  {"zus", "składk", "ubezpiecze"},
		"vat":  {"vat", "jpk", "oss"},
	}
	for id, keywords := range rules {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				want[id] = true
				break
			}
		}
	}

	var channels []domain.Channel
	for _, c := range domain.Channels() {
		if want[c.ID] {
			channels = append(channels, c.Channel)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
}

func (s *Server) handleStats(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, d := range s.documents {
		counts[d.Category]++
	}
	stats := domain.DocumentStats{TotalDocuments: len(s.documents), TotalChunks: s.chunks}
	for cat, n := range counts {
		stats.Categories = append(stats.Categories, domain.CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		a, b := stats.Categories[i], stats.Categories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, query, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := domain.SearchResults{Query: query}
	needle := strings.ToLower(query)
	for _, d := range s.sortedDocuments(category) {
		if needle == "" || !strings.Contains(strings.ToLower(d.Content+" "+d.Title), needle) {
			continue
		}
		res.Results = append(res.Results, domain.SearchHit{
			ID: d.ID, Title: d.Title, Source: d.Source, Category: d.Category,
			Snippet: d.Content, Rank: 1,
		})
	}
	res.Count = len(res.Results)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}
	s.mu.Lock()
	d, ok := s.documents[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Dokument nie znaleziony")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetProject(w http.ResponseWriter, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}
	s.mu.Lock()
	p, ok := s.projects[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Projekt nie znaleziony")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectFiles(w http.ResponseWriter, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}
	s.mu.Lock()
	files := s.projectFiles(id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleEvents(w http.ResponseWriter, aggregate, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}
	events := s.Events(aggregate, id)
	if events == nil {
		events = []domain.DomainEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// sortedDocuments and the helpers below expect s.mu held.
func (s *Server) sortedDocuments(category string) []domain.Document {
	docs := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		if category == "" || d.Category == category {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// sortedProjects returns newest first, like the server.
func (s *Server) sortedProjects(contact string) []domain.Project {
	projects := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if contact == "" || p.Contact == contact {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID > projects[j].ID })
	return projects
}

func (s *Server) projectFiles(projectID int64) []domain.ProjectFile {
	files := []domain.ProjectFile{}
	for _, f := range s.files {
		if f.ProjectID == projectID {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files
}

func (s *Server) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) appendEvent(aggregate string, id int64, eventType string, payload map[string]any) {
	s.clock = s.clock.Add(time.Second)
	key := eventKey(aggregate, id)
	s.events[key] = append(s.events[key], domain.DomainEvent{
		ID:            strconv.Itoa(len(s.events[key]) + 1),
		AggregateType: aggregate,
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     eventType,
		Payload:       payload,
		Metadata:      map[string]any{},
		CreatedAt:     domain.Timestamp{Time: s.clock},
	})
}

func eventKey(aggregate string, id int64) string {
	return aggregate + "/" + strconv.FormatInt(id, 10)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
