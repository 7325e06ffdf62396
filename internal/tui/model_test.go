// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/pkg/types"
)

type stubGallery struct {
	err error
}

func (g stubGallery) Gallery(_ context.Context, pub string, _ int) ([]types.PatentImage, error) {
	if g.err != nil {
		return nil, g.err
	}
	return []types.PatentImage{{PublicationNumber: pub, ImageFilename: "fig1.png", DataURL: "data:image/png;base64,AA=="}}, nil
}

type recorder struct {
	got string
	err error
}

func (r *recorder) WriteAll(text string) error {
	r.got = text
	return r.err
}

func response() *types.SearchResponse {
	return &types.SearchResponse{
		Variant:             types.VariantSimilarity,
		TotalFound:          2,
		SimilarityThreshold: 0.5,
		Patents: []types.RankedPatent{
			{PublicationNumber: "US1", Title: "Hinge", SimilarityScore: 0.9,
				Abstract: strings.Repeat("A hinge assembly with a damper. ", 8)},
			{PublicationNumber: "US2", Title: "Latch", SimilarityScore: 0.7, Abstract: "Short."},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T, g report.GalleryFetcher, opts Options) (Model, *report.Session) {
	t.Helper()
	s := report.NewSession(g, nil)
	r := response()
	s.Load(r)
	m := New(context.Background(), s, report.Text(r), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), s
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNavigation(t *testing.T) {
	m, _ := newModel(t, nil, Options{})
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 0, m.cursor, "wraps around")
	m, _ = update(t, m, key("up"))
	assert.Equal(t, 1, m.cursor)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestToggleAbstract(t *testing.T) {
	m, s := newModel(t, nil, Options{})
	assert.Contains(t, Render(s, 0, 100), "[enter: see more]")

	m, _ = update(t, m, key("enter"))
	assert.True(t, s.Expanded("US1"))
	assert.Contains(t, Render(s, m.cursor, 100), "[enter: see less]")
}

func TestGallery(t *testing.T) {
	m, s := newModel(t, stubGallery{}, Options{})

	m, cmd := update(t, m, key("i"))
	require.NotNil(t, cmd)
	msg := cmd()
	m, _ = update(t, m, msg)

	g := s.Gallery("US1")
	assert.Equal(t, report.GalleryReady, g.Status)
	assert.Contains(t, Render(s, m.cursor, 100), "fig1.png (ok)")

	// Closing does not start another fetch.
	_, cmd = update(t, m, key("i"))
	assert.Nil(t, cmd)
}

func TestGalleryFailure(t *testing.T) {
	m, s := newModel(t, stubGallery{err: errors.New("timeout")}, Options{})

	m, cmd := update(t, m, key("i"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Images unavailable: timeout", m.status)
	out := Render(s, m.cursor, 100)
	assert.Contains(t, out, "Images unavailable: timeout")
	assert.Contains(t, out, "Latch", "other cards still render")
}

func TestCopy(t *testing.T) {
	rec := &recorder{}
	m, _ := newModel(t, nil, Options{Clipboard: rec})

	m, _ = update(t, m, key("c"))
	assert.Equal(t, "Copied to clipboard", m.status)
	assert.Equal(t, m.text, rec.got)

	rec.err = errors.New("no xclip")
	m, _ = update(t, m, key("c"))
	assert.Equal(t, "Copy failed: no xclip", m.status)
}

func TestPDF(t *testing.T) {
	var saved string
	m, _ := newModel(t, nil, Options{SavePDF: func(text string) (string, error) {
		saved = text
		return "out/patent-analysis-2026-01-01.pdf", nil
	}})

	m, _ = update(t, m, key("p"))
	assert.Equal(t, "Saved out/patent-analysis-2026-01-01.pdf", m.status)
	assert.Equal(t, m.text, saved)

	m.opts.SavePDF = func(string) (string, error) { return "", errors.New("disk full") }
	m, _ = update(t, m, key("p"))
	assert.Equal(t, "PDF export failed: disk full", m.status)

	m.opts.SavePDF = nil
	m, _ = update(t, m, key("p"))
	assert.Equal(t, "PDF export not available", m.status)
}

func TestRender_States(t *testing.T) {
	s := report.NewSession(nil, nil)
	assert.Contains(t, Render(s, 0, 80), report.Placeholder)

	s.LoadTree(report.ParseLegacy("just some notes"))
	assert.Equal(t, "just some notes", Render(s, 0, 80))

	s.Load(&types.SearchResponse{Variant: types.VariantChunks})
	assert.Contains(t, Render(s, 0, 80), "No results.")
}

func TestClamp(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := clamp(long, 20, 2)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Less(t, len(got), len(long))

	assert.Equal(t, "short", clamp("short", 20, 2))
}
