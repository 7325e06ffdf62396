// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/internal/report"
)

// Render draws the session's tree with the card at cursor selected.
func Render(s *report.Session, cursor, width int) string {
	t := s.Tree()
	switch t.Source {
	case report.SourceEmpty:
		return mutedStyle.Render(report.Placeholder)
	case report.SourceRaw:
		return t.Raw
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("\n\n")
	for _, kv := range t.Summary {
		fmt.Fprintf(&b, "  %s: %s\n", kv.Label, kv.Value)
	}
	if t.Skipped > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d unreadable items skipped)", t.Skipped)))
		b.WriteString("\n")
	}
	if len(t.Cards) == 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("No results."))
		return b.String()
	}

	for i, c := range t.Cards {
		b.WriteString("\n")
		renderCard(&b, s, c, i == cursor, width)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCard(b *strings.Builder, s *report.Session, c report.Card, selected bool, width int) {
	marker, style := "  ", headerStyle
	if selected {
		marker, style = "▸ ", selectedStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("%s%d. %s", marker, c.Index, c.Title)))
	b.WriteString("\n")

	for _, f := range c.Fields {
		value := s.DisplayValue(c.Key, f)
		if f.Expandable {
			if s.Expanded(c.Key) {
				value += mutedStyle.Render("  [enter: see less]")
			} else {
				value = clamp(value, width-len(f.Label)-6, report.ClampLines) + mutedStyle.Render("  [enter: see more]")
			}
		}
		label := f.Label + ":"
		if f.Highlighted {
			label = highlightStyle.Render(label)
		}
		fmt.Fprintf(b, "    %s %s\n", label, value)
	}

	if len(c.Chunks) > 0 {
		b.WriteString("    " + report.Label(report.FieldChunks) + ":\n")
		for i, ch := range c.Chunks {
			fmt.Fprintf(b, "      %d. %q\n", i+1, ch)
		}
	}

	renderGallery(b, s.Gallery(c.Key))
}

func renderGallery(b *strings.Builder, g report.GalleryState) {
	if !g.Open {
		return
	}
	switch g.Status {
	case report.GalleryLoading:
		b.WriteString(mutedStyle.Render("    Loading images...") + "\n")
	case report.GalleryFailed:
		b.WriteString(errorStyle.Render("    Images unavailable: "+g.Err.Error()) + "\n")
	case report.GalleryReady:
		if len(g.Images) == 0 {
			b.WriteString(mutedStyle.Render("    No images for this patent.") + "\n")
			return
		}
		for _, img := range g.Images {
			state := "ok"
			if img.DataURL == "" {
				state = "not loaded"
			}
			fmt.Fprintf(b, "    🖼  %s (%s)\n", format.OrNA(img.ImageFilename), state)
		}
	}
}

// clamp wraps v to width and keeps at most lines lines, marking the cut
// with an ellipsis.
func clamp(v string, width, lines int) string {
	if width < 10 {
		width = 10
	}
	wrapped := strings.Split(lipgloss.NewStyle().Width(width).Render(v), "\n")
	for i := range wrapped {
		wrapped[i] = strings.TrimRight(wrapped[i], " ")
	}
	if len(wrapped) <= lines {
		return strings.Join(wrapped, " ")
	}
	return strings.Join(wrapped[:lines], " ") + format.Ellipsis
}
