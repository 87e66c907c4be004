package testutil

import (
	"encoding/json"
	"net/http"

	"github.com/detax-ai/detax/internal/domain"
)

type documentCommand struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Source   *string `json:"source"`
	Category string  `json:"category"`
	Content  string  `json:"content"`
}

type projectCommand struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Contact     *string `json:"contact"`
}

type fileCommand struct {
	ID        int64   `json:"id"`
	FileID    int64   `json:"file_id"`
	ProjectID int64   `json:"project_id"`
	Filename  string  `json:"filename"`
	Path      *string `json:"path"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) handleCommand(w http.ResponseWriter, name string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "documents/create", "documents/update", "documents/delete":
		var cmd documentCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.documentCommand(w, name, cmd)
	case "projects/create", "projects/update", "projects/delete":
		var cmd projectCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.projectCommand(w, name, cmd)
	case "projects/files/add", "projects/files/remove":
		var cmd fileCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.fileCommand(w, name, cmd)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) documentCommand(w http.ResponseWriter, name string, cmd documentCommand) {
	doc := domain.Document{
		ID: cmd.ID, Title: cmd.Title, Source: deref(cmd.Source),
		Category: cmd.Category, Content: cmd.Content,
	}
	switch name {
	case "documents/create":
		if doc.Title == "" || doc.Category == "" || doc.Content == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "title, category and content are required")
			return
		}
		doc.ID = s.allocID()
		s.documents[doc.ID] = doc
		s.chunks++
		s.appendEvent("document", doc.ID, "DocumentCreated", documentPayload(doc))
		writeJSON(w, http.StatusOK, doc)
	case "documents/update":
		if _, ok := s.documents[doc.ID]; !ok {
			writeDetail(w, http.StatusNotFound, "Dokument nie znaleziony")
			return
		}
		s.documents[doc.ID] = doc
		s.appendEvent("document", doc.ID, "DocumentUpdated", documentPayload(doc))
		writeJSON(w, http.StatusOK, doc)
	case "documents/delete":
		if _, ok := s.documents[cmd.ID]; !ok {
			writeDetail(w, http.StatusNotFound, "Dokument nie znaleziony")
			return
		}
		delete(s.documents, cmd.ID)
		s.appendEvent("document", cmd.ID, "DocumentDeleted", map[string]any{"id": cmd.ID})
		writeJSON(w, http.StatusOK, map[string]any{"message": "Dokument usunięty", "id": cmd.ID})
	}
}

func (s *Server) projectCommand(w http.ResponseWriter, name string, cmd projectCommand) {
	p := domain.Project{
		ID: cmd.ID, Name: cmd.Name,
		Description: deref(cmd.Description), Contact: deref(cmd.Contact),
	}
	switch name {
	case "projects/create":
		if p.Name == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "name is required")
			return
		}
		p.ID = s.allocID()
		s.projects[p.ID] = p
		s.appendEvent("project", p.ID, "ProjectCreated", projectPayload(p))
		writeJSON(w, http.StatusOK, p)
	case "projects/update":
		if _, ok := s.projects[p.ID]; !ok {
			writeDetail(w, http.StatusNotFound, "Projekt nie znaleziony")
			return
		}
		s.projects[p.ID] = p
		s.appendEvent("project", p.ID, "ProjectUpdated", projectPayload(p))
		writeJSON(w, http.StatusOK, p)
	case "projects/delete":
		if _, ok := s.projects[cmd.ID]; !ok {
			writeDetail(w, http.StatusNotFound, "Projekt nie znaleziony")
			return
		}
		delete(s.projects, cmd.ID)
		for id, f := range s.files {
			if f.ProjectID == cmd.ID {
				delete(s.files, id)
			}
		}
		s.appendEvent("project", cmd.ID, "ProjectDeleted", map[string]any{"id": cmd.ID})
		writeJSON(w, http.StatusOK, map[string]any{"message": "Projekt usunięty", "id": cmd.ID})
	}
}

func (s *Server) fileCommand(w http.ResponseWriter, name string, cmd fileCommand) {
	switch name {
	case "projects/files/add":
		if _, ok := s.projects[cmd.ProjectID]; !ok {
			writeDetail(w, http.StatusNotFound, "Projekt nie znaleziony")
			return
		}
		if cmd.Filename == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "filename is required")
			return
		}
		f := domain.ProjectFile{
			ID: s.allocID(), ProjectID: cmd.ProjectID,
			Filename: cmd.Filename, Path: deref(cmd.Path),
		}
		s.files[f.ID] = f
		s.appendEvent("project", f.ProjectID, "ProjectFileAdded", map[string]any{
			"fileId": f.ID, "projectId": f.ProjectID, "filename": f.Filename,
		})
		writeJSON(w, http.StatusOK, f)
	case "projects/files/remove":
		id := cmd.FileID
		if id == 0 {
			id = cmd.ID
		}
		f, ok := s.files[id]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Plik nie znaleziony")
			return
		}
		delete(s.files, id)
		s.appendEvent("project", f.ProjectID, "ProjectFileRemoved", map[string]any{
			"fileId": f.ID, "projectId": f.ProjectID, "filename": f.Filename,
		})
		writeJSON(w, http.StatusOK, map[string]any{"message": "Plik usunięty", "id": id})
	}
}

func documentPayload(d domain.Document) map[string]any {
	return map[string]any{
		"id": d.ID, "title": d.Title, "source": d.Source,
		"category": d.Category, "content": d.Content,
	}
}

func projectPayload(p domain.Project) map[string]any {
	return map[string]any{
		"id": p.ID, "name": p.Name, "description": p.Description, "contact": p.Contact,
	}
}
