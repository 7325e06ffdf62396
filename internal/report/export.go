// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strings"

	"github.com/pdiddy/patent-report/pkg/types"
)

const (
	bannerWidth = 63
	ruleWidth   = 61
)

var (
	bannerLine = strings.Repeat("═", bannerWidth)
	ruleLine   = strings.Repeat("─", ruleWidth)
)

// Text renders r as the canonical flattened report. The same string is
// copied to the clipboard, handed to the PDF writer, and persisted with the
// history record. It is a pure function of r; nil yields "".
func Text(r *types.SearchResponse) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	title := Title(r.Variant)
	b.WriteString(bannerLine + "\n")
	b.WriteString(centered(title, bannerWidth) + "\n")
	b.WriteString(bannerLine + "\n\n")

	b.WriteString(summaryHeaders[0] + "\n")
	b.WriteString(ruleLine + "\n")
	for _, s := range summaryRows(r) {
		fmt.Fprintf(&b, "• %s: %s\n", Label(s.field), s.value)
	}

	b.WriteString("\n" + resultsHeader(r.Variant) + "\n")
	b.WriteString(ruleLine + "\n")

	if r.Variant == types.VariantImages {
		for i, img := range r.Images {
			writeItem(&b, i+1, img.Title, imageRows(img), nil)
		}
	} else {
		for i, p := range r.Patents {
			var chunks []string
			if r.Variant == types.VariantChunks {
				chunks = chunkExcerpts(p.Chunks)
			}
			writeItem(&b, i+1, p.Title, patentRows(p), chunks)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeItem(b *strings.Builder, n int, title string, rows []row, chunks []string) {
	if n > 1 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%d. %s\n", n, itemTitle(title))
	for i, r := range rows {
		glyph := "├──"
		if i == len(rows)-1 && len(chunks) == 0 {
			glyph = "└──"
		}
		fmt.Fprintf(b, "%s %s: %s\n", glyph, Label(r.field), r.value)
	}
	if len(chunks) == 0 {
		return
	}
	fmt.Fprintf(b, "└── %s:\n", Label(FieldChunks))
	for i, c := range chunks {
		glyph := "   ├──"
		if i == len(chunks)-1 {
			glyph = "   └──"
		}
		fmt.Fprintf(b, "%s %d. \"%s\"\n", glyph, i+1, c)
	}
}

// centered left-pads s so it sits in the middle of a line of width runes.
func centered(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
