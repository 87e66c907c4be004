// Package overlay draws modal content over a rendered background without
// clearing it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position selects the anchor of the foreground.
type Position int

const (
	Center Position = iota
	Bottom
	TopRight
)

// Config controls placement. Width and Height describe the viewport; PadX
// and PadY keep the foreground away from the anchored edges.
type Config struct {
	Width    int
	Height   int
	Position Position
	PadX     int
	PadY     int
}

// Place splices fg into bg line by line. Both may carry ANSI styling.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	x, y := origin(cfg, lipgloss.Width(fg), len(fgLines))
	for i, line := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLines[row] = splice(bgLines[row], line, x)
	}
	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of bg starting at column x with fg.
func splice(bg, fg string, x int) string {
	left := ansi.Truncate(bg, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	end := x + ansi.StringWidth(fg)
	var right string
	if end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}
	return left + fg + right
}

func origin(cfg Config, w, h int) (x, y int) {
	switch cfg.Position {
	case Bottom:
		x = (cfg.Width - w) / 2
		y = cfg.Height - h - cfg.PadY
	case TopRight:
		x = cfg.Width - w - cfg.PadX
		y = cfg.PadY
	default:
		x = (cfg.Width - w) / 2
		y = (cfg.Height - h) / 2
	}
	return max(x, 0), max(y, 0)
}
