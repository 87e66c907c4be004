package domain

import "strings"

// ContextState is the client-local Contact → Project → File selection and
// the channels the server recommends for it.
//
// Invariant: File != nil implies Project != nil implies Contact != "".
type ContextState struct {
	Contact  string
	Project  *Project
	File     *ProjectFile
	Channels []Channel
}

// Valid reports whether the hierarchy invariant holds.
func (s ContextState) Valid() bool {
	if s.File != nil && s.Project == nil {
		return false
	}
	if s.Project != nil && s.Contact == "" {
		return false
	}
	return true
}

// Empty reports whether nothing is selected.
func (s ContextState) Empty() bool {
	return s.Contact == "" && s.Project == nil && s.File == nil
}

// Clone returns a deep copy safe to hand to bus listeners.
func (s ContextState) Clone() ContextState {
	out := ContextState{Contact: s.Contact}
	if s.Project != nil {
		p := *s.Project
		p.Files = append([]ProjectFile(nil), s.Project.Files...)
		out.Project = &p
	}
	if s.File != nil {
		f := *s.File
		out.File = &f
	}
	out.Channels = append([]Channel(nil), s.Channels...)
	return out
}

// Path renders the selection as "👤 contact → 📁 project → 📄 file".
func (s ContextState) Path() string {
	var parts []string
	if s.Contact != "" {
		parts = append(parts, "👤 "+s.Contact)
	}
	if s.Project != nil {
		parts = append(parts, "📁 "+s.Project.Name)
	}
	if s.File != nil {
		parts = append(parts, "📄 "+s.File.Filename)
	}
	return strings.Join(parts, " → ")
}

// FileIcon picks an icon for a filename by extension.
func FileIcon(filename string) string {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i+1:])
	}
	switch ext {
	case "pdf":
		return "📕"
	case "doc", "docx":
		return "📘"
	case "xls", "xlsx":
		return "📗"
	case "jpg", "png":
		return "🖼️"
	case "zip":
		return "📦"
	default:
		return "📄"
	}
}
