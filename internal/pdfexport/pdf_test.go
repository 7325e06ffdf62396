// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfexport

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleText(items int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("═", 63) + "\n")
	b.WriteString("                    TEXT SIMILARITY SEARCH\n")
	b.WriteString(strings.Repeat("═", 63) + "\n\n")
	b.WriteString("📊 SEARCH SUMMARY\n")
	b.WriteString(strings.Repeat("─", 61) + "\n")
	b.WriteString("• Total found: 1\n\n")
	b.WriteString("📋 SIMILAR PATENTS\n")
	b.WriteString(strings.Repeat("─", 61) + "\n")
	for i := 1; i <= items; i++ {
		fmt.Fprintf(&b, "%d. Widget %d\n├── Publication No.: US%d\n└── Abstract: %s\n\n", i, i, i, strings.Repeat("dispositivo de filtração ", 12))
	}
	return strings.TrimRight(b.String(), "\n")
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		base string
		want string
	}{
		{"", "patent-analysis-2026-03-07.pdf"},
		{"report", "report-2026-03-07.pdf"},
		{"report.pdf", "report-2026-03-07.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.base, now))
	}
}

func TestWrite_ReadsBack(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Document{Text: sampleText(1), Title: "Patent Analysis", Generated: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	info, err := Inspect(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.Contains(t, info.Text, "Widget 1")
	assert.Contains(t, info.Text, "SEARCH SUMMARY")
}

func TestWrite_Paginates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Document{Text: sampleText(40)}))

	info, err := Inspect(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Greater(t, info.Pages, 1)
}

func TestWrite_EmptyText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Document{}))
	assert.NotZero(t, buf.Len())
}

func TestMapGlyphs(t *testing.T) {
	assert.Equal(t, "|-- Similarity: 87.0%", mapGlyphs("├── Similarity: 87.0%"))
	assert.Equal(t, "`-- Abstract: N/A", mapGlyphs("└── Abstract: N/A"))
	assert.Equal(t, `   |-- 1. "excerpt"`, mapGlyphs(`   ├── 1. "excerpt"`))
}

func TestStripEmoji(t *testing.T) {
	assert.Equal(t, " SEARCH SUMMARY", stripEmoji("📊 SEARCH SUMMARY"))
	assert.Equal(t, " SIMILAR IMAGES", stripEmoji("🖼️ SIMILAR IMAGES"))
	assert.Equal(t, "Organização", stripEmoji("Organização"))
}

func TestInspect_NotPDF(t *testing.T) {
	_, err := Inspect(strings.NewReader("hello"), 5)
	assert.Error(t, err)
}
