// Package markdown renders chat answers and document content for the
// terminal.
package markdown

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/detax-ai/detax/internal/cachemanager"
	"github.com/detax-ai/detax/internal/log"
)

// noMarginStyle removes document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

const cacheTTL = 30 * time.Minute

type renderKey string

// Renderer wraps glamour with a render cache. It re-creates the glamour
// renderer when the width changes.
type Renderer struct {
	style    string
	width    int
	glamour  *glamour.TermRenderer
	rendered *cachemanager.ReadThrough[renderKey, string, string]
}

// New creates a renderer. style is a glamour style name ("dark", "light",
// "notty"); empty means dark. Auto style is avoided because it queries
// the terminal and the reply leaks into the input stream.
func New(width int, style string) (*Renderer, error) {
	if style == "" {
		style = "dark"
	}
	r := &Renderer{style: style}
	if err := r.SetWidth(width); err != nil {
		return nil, err
	}
	cache := cachemanager.NewMemory[renderKey, string]("markdown", cacheTTL, cachemanager.DefaultCleanupInterval)
	r.rendered = cachemanager.NewReadThrough[renderKey, string, string](cache, r.render, cacheTTL, false)
	return r, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int { return r.width }

// SetWidth rebuilds the glamour renderer for a new wrap width.
func (r *Renderer) SetWidth(width int) error {
	if width < 10 {
		width = 10
	}
	if width == r.width && r.glamour != nil {
		return nil
	}
	g, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	r.glamour = g
	r.width = width
	return nil
}

// Render transforms markdown to styled terminal output. On a glamour
// failure the text is returned word-wrapped without styling.
func (r *Renderer) Render(md string) string {
	key := renderKey(strconv.Itoa(r.width) + "|" + md)
	out, err := r.rendered.Get(context.Background(), key, md)
	if err != nil {
		log.ErrorErr(log.CatCache, "Markdown render failed", err)
		return wordwrap.String(md, r.width)
	}
	return out
}

func (r *Renderer) render(_ context.Context, md string) (string, error) {
	out, err := r.glamour.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
