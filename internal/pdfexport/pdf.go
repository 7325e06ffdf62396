// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfexport lays the canonical report text out as an A4 document.
// It is a projection: every line of the text appears in the PDF, with
// separator lines drawn as rules and section headers set in bold.
package pdfexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Defaults used when a Document leaves a field empty.
const (
	DefaultTitle    = "Patent Analysis"
	DefaultFilename = "patent-analysis"
	AppName         = "Patent Analysis System"
)

const (
	margin       = 20.0
	lineHeight   = 6.0
	bodySize     = 11.0
	bandHeight   = 35.0
	bandHeightN  = 15.0
	footerOffset = 15.0
)

var (
	primary = [3]int{59, 130, 246}
	body    = [3]int{30, 41, 59}
	muted   = [3]int{100, 116, 139}
)

// Document is one export request.
type Document struct {
	// Text is the canonical report text, written line by line.
	Text string

	// Title is printed in the header band.
	Title string

	// Generated is printed under the title on the first page.
	Generated time.Time
}

// Filename returns "<base>-YYYY-MM-DD.pdf" for the day of now.
func Filename(base string, now time.Time) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), ".pdf")
	if base == "" {
		base = DefaultFilename
	}
	return fmt.Sprintf("%s-%s.pdf", base, now.Format("2006-01-02"))
}

// Write renders doc as a PDF into w.
func Write(w io.Writer, doc Document) error {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = DefaultTitle
	}
	generated := doc.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*margin

	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+footerOffset)
	pdf.AliasNbPages("{nb}")
	pdf.SetTitle(title, true)
	pdf.SetCreator(AppName, true)

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(primary[0], primary[1], primary[2])
		pdf.SetTextColor(255, 255, 255)
		if pdf.PageNo() == 1 {
			pdf.Rect(0, 0, pageW, bandHeight, "F")
			pdf.SetFont("Helvetica", "B", 22)
			pdf.SetXY(0, 13)
			pdf.CellFormat(pageW, 10, tr(title), "", 1, "C", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetX(0)
			pdf.CellFormat(pageW, 6, tr("Generated on "+generated.Format("January 2, 2006 15:04")), "", 1, "C", false, 0, "")

			pdf.SetDrawColor(primary[0], primary[1], primary[2])
			pdf.SetLineWidth(0.5)
			pdf.Line(margin, 50, pageW-margin, 50)
			pdf.SetY(60)
		} else {
			pdf.Rect(0, 0, pageW, bandHeightN, "F")
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetXY(0, 5)
			pdf.CellFormat(pageW, 6, tr(title), "", 1, "C", false, 0, "")
			pdf.SetY(25)
		}
		setBody(pdf)
	})

	pdf.SetFooterFunc(func() {
		y := pageH - footerOffset
		pdf.SetDrawColor(muted[0], muted[1], muted[2])
		pdf.SetLineWidth(0.3)
		pdf.Line(margin, y, pageW-margin, y)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(muted[0], muted[1], muted[2])
		pdf.SetXY(margin, pageH-10)
		pdf.CellFormat(contentW, 4, tr(AppName), "", 0, "L", false, 0, "")
		pdf.SetXY(margin, pageH-10)
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	for _, line := range strings.Split(strings.ReplaceAll(doc.Text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(lineHeight / 2)

		case isSeparator(trimmed):
			ensureSpace(pdf, lineHeight)
			y := pdf.GetY()
			pdf.SetDrawColor(muted[0], muted[1], muted[2])
			pdf.SetLineWidth(0.3)
			pdf.Line(margin, y, pageW-margin, y)
			pdf.Ln(lineHeight)

		case isSectionHeader(trimmed):
			ensureSpace(pdf, lineHeight+5)
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetTextColor(primary[0], primary[1], primary[2])
			pdf.CellFormat(contentW, lineHeight, tr(strings.TrimSpace(stripEmoji(trimmed))), "", 1, "L", false, 0, "")
			pdf.Ln(2)
			setBody(pdf)

		default:
			pdf.MultiCell(contentW, lineHeight, tr(mapGlyphs(stripEmoji(line))), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

func setBody(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.SetTextColor(body[0], body[1], body[2])
}

// ensureSpace starts a new page when h millimetres would run into the
// footer. MultiCell breaks pages itself; rules and headers do not.
func ensureSpace(pdf *fpdf.Fpdf, h float64) {
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+h > pageH-bottom {
		pdf.AddPage()
	}
}

func isSeparator(s string) bool {
	return strings.HasPrefix(s, "═") || strings.HasPrefix(s, "─")
}

func isSectionHeader(s string) bool {
	for _, p := range []string{"📋", "📊", "📝", "🖼", "⚠"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// glyphs maps box-drawing characters outside the core font code page to
// ASCII look-alikes.
var glyphs = strings.NewReplacer(
	"├──", "|--",
	"└──", "`--",
	"│", "|",
	"─", "-",
	"═", "=",
)

func mapGlyphs(s string) string {
	return glyphs.Replace(s)
}

// stripEmoji removes pictographs and their variation selectors.
func stripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F000,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x2B00 && r <= 0x2BFF,
			r == 0xFE0F, r == 0x200D:
			return -1
		}
		return r
	}, s)
}
