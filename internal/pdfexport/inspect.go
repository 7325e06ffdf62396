// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Info summarizes a written PDF.
type Info struct {
	Pages int
	Text  string
}

// Inspect reads a PDF back and extracts its plain text, page by page.
// Pages whose text cannot be extracted are counted but contribute nothing.
func Inspect(r io.ReaderAt, size int64) (Info, error) {
	rd, err := pdf.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("opening PDF: %w", err)
	}

	info := Info{Pages: rd.NumPage()}
	var b strings.Builder
	for i := 1; i <= info.Pages; i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	info.Text = b.String()
	return info, nil
}
