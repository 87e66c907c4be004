package testutil

import "github.com/detax-ai/detax/internal/domain"

// ProjectOption configures a project during builder setup.
type ProjectOption func(*projectData)

// ForContact sets the project's contact.
func ForContact(name string) ProjectOption {
	return func(p *projectData) { p.project.Contact = name }
}

// Described sets the project's description.
func Described(text string) ProjectOption {
	return func(p *projectData) { p.project.Description = text }
}

// WithFile attaches a file to the project.
func WithFile(filename, path string) ProjectOption {
	return func(p *projectData) {
		p.files = append(p.files, domain.ProjectFile{Filename: filename, Path: path})
	}
}

// DocumentOption configures a document during builder setup.
type DocumentOption func(*domain.Document)

// WithSource sets the document's source.
func WithSource(source string) DocumentOption {
	return func(d *domain.Document) { d.Source = source }
}

// WithContent sets the document's content.
func WithContent(content string) DocumentOption {
	return func(d *domain.Document) { d.Content = content }
}
