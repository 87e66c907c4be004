package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/ui/styles"
)

const eventTimeLayout = "02.01.2006 15:04"

func eventIcon(e domain.DomainEvent) string {
	switch {
	case e.IsCreate():
		return "✨"
	case e.IsUpdate():
		return "✏️"
	case e.IsDelete():
		return "🗑️"
	default:
		return "📌"
	}
}

// eventHeader is the one-line form used in the editor preview.
func eventHeader(e domain.DomainEvent) string {
	when := ""
	if !e.CreatedAt.IsZero() {
		when = e.CreatedAt.Local().Format(eventTimeLayout)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s  %s", eventIcon(e), e.EventType, styles.MutedStyle.Render(when)))
}

// renderEvents draws the full history, oldest first. Updates are shown as
// a line diff against the state accumulated from the earlier events.
func renderEvents(events []domain.DomainEvent) string {
	var b strings.Builder
	state := map[string]any{}
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(eventHeader(e))
		b.WriteString("\n")

		switch {
		case e.IsCreate():
			state = merge(map[string]any{}, e.Payload)
			for _, line := range payloadLines(state) {
				b.WriteString("  " + line + "\n")
			}
		case e.IsUpdate():
			next := merge(state, e.Payload)
			changes := diffLines(payloadText(state), payloadText(next))
			if len(changes) == 0 {
				b.WriteString("  " + styles.MutedStyle.Render("bez zmian") + "\n")
			}
			for _, line := range changes {
				b.WriteString("  " + line + "\n")
			}
			state = next
		case e.IsDelete():
			b.WriteString("  " + styles.MutedStyle.Render("usunięto") + "\n")
		default:
			for _, line := range payloadLines(e.Payload) {
				b.WriteString("  " + line + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func merge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func payloadLines(p map[string]any) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, formatValue(p[k])))
	}
	return lines
}

func payloadText(p map[string]any) string {
	lines := payloadLines(p)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "—"
	case string:
		v = strings.ReplaceAll(v, "\n", " ")
		if r := []rune(v); len(r) > 60 {
			return string(r[:60]) + "…"
		}
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// diffLines returns the removed and added lines between two payload
// texts, styled and prefixed with - and +.
func diffLines(before, after string) []string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []string
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				out = append(out, styles.DiffRemovedStyle.Render("- "+line))
			case diffmatchpatch.DiffInsert:
				out = append(out, styles.DiffAddedStyle.Render("+ "+line))
			}
		}
	}
	return out
}
