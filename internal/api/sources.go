package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/detax-ai/detax/internal/domain"
)

// Sources lists the legal data sources. An empty sourceType returns all.
func (c *Client) Sources(ctx context.Context, sourceType domain.SourceType) ([]domain.DataSource, error) {
	path := "/sources"
	if sourceType != "" {
		path += "?" + url.Values{"source_type": {string(sourceType)}}.Encode()
	}
	var out []domain.DataSource
	err := c.Get(ctx, path, &out)
	return out, err
}

// Source fetches one data source by id.
func (c *Client) Source(ctx context.Context, id string) (domain.DataSource, error) {
	var out domain.DataSource
	err := c.do(ctx, http.MethodGet, c.endpoint+"/sources/"+url.PathEscape(id), "/sources/{source}", nil, &out)
	return out, err
}

// SourcesForCategory returns the sources documents of a category are
// drawn from.
func (c *Client) SourcesForCategory(ctx context.Context, category string) ([]domain.DataSource, error) {
	var out []domain.DataSource
	err := c.do(ctx, http.MethodGet, c.endpoint+"/sources/category/"+url.PathEscape(category),
		"/sources/category/{category}", nil, &out)
	return out, err
}

// LegalDocuments lists the key legal acts.
func (c *Client) LegalDocuments(ctx context.Context) ([]domain.LegalDocument, error) {
	var out []domain.LegalDocument
	err := c.Get(ctx, "/legal-documents", &out)
	return out, err
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Identifier string            `json:"identifier"`
	Type       domain.VerifyKind `json:"type"`
}

// Verify checks an identifier in the registry kind names. A well-formed
// request for an unknown entity succeeds with Valid false.
func (c *Client) Verify(ctx context.Context, identifier string, kind domain.VerifyKind) (domain.Verification, error) {
	var out domain.Verification
	err := c.Post(ctx, "/verify", VerifyRequest{Identifier: identifier, Type: kind}, &out)
	return out, err
}

// VerifyVAT runs the quick VIES lookup for a prefixed number such as
// PL1234567890.
func (c *Client) VerifyVAT(ctx context.Context, number string) (domain.VATCheck, error) {
	var out domain.VATCheck
	err := c.do(ctx, http.MethodGet, c.endpoint+"/verify/vat/"+url.PathEscape(number), "/verify/vat/{number}", nil, &out)
	return out, err
}
