// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report projects a SearchResponse into its two presentations: the
// structured Tree that drives interactive views, and the canonical flattened
// Text shared by clipboard and PDF export. It also recovers an approximate
// Tree from persisted text when no structured payload was stored.
package report

import (
	"strconv"
	"strings"

	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/pkg/types"
)

// Placeholder is shown when there is no response to render.
const Placeholder = "No result to display"

// ExpandableLimit is the abstract length above which the abstract is
// collapsed to a two-line clamp with a "see more" toggle.
const ExpandableLimit = 80

// ClampLines is the number of lines a collapsed abstract shows.
const ClampLines = 2

// Source records where a Tree came from.
type Source string

const (
	SourceEmpty      Source = "empty"
	SourceStructured Source = "structured"
	SourceLegacy     Source = "legacy"
	SourceRaw        Source = "raw"
)

// Tree is the presentation model for one result. It is rebuilt on every
// render and holds no UI state; expansion lives in Session.
type Tree struct {
	Source  Source        `json:"source"`
	Variant types.Variant `json:"variant,omitempty"`
	Title   string        `json:"title,omitempty"`
	Summary []KeyValue    `json:"summary,omitempty"`
	Cards   []Card        `json:"cards,omitempty"`

	// Raw holds unrecognized text, shown verbatim as preformatted text.
	Raw string `json:"raw,omitempty"`

	// Skipped counts legacy item blocks that could not be parsed.
	Skipped int `json:"skipped,omitempty"`
}

// KeyValue is one summary line.
type KeyValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is one ranked result.
type Card struct {
	// Index is the 1-based rank in the order the API returned.
	Index int `json:"index"`

	// Key identifies the card across renders: the publication number, or
	// "#<index>" when there is none.
	Key string `json:"key"`

	Title             string        `json:"title"`
	Fields            []DetailField `json:"fields"`
	Chunks            []string      `json:"chunks,omitempty"`
	PublicationNumber string        `json:"publication_number,omitempty"`
	ImagesExpandable  bool          `json:"images_expandable"`
}

// DetailField is one labelled value on a card.
type DetailField struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Highlighted bool   `json:"highlighted"`
	Expandable  bool   `json:"expandable"`
}

// IsEmpty reports whether the tree shows the empty-state placeholder.
func (t Tree) IsEmpty() bool { return t.Source == SourceEmpty }

// Card returns the card with the given key.
func (t Tree) Card(key string) (Card, bool) {
	for _, c := range t.Cards {
		if c.Key == key {
			return c, true
		}
	}
	return Card{}, false
}

// Field returns the first field with the given label.
func (c Card) Field(label string) (DetailField, bool) {
	for _, f := range c.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return DetailField{}, false
}

// Render builds the presentation tree for r. It never fails: missing item
// fields render as format.NA and a nil response yields the empty state.
func Render(r *types.SearchResponse) Tree {
	if r == nil {
		return Tree{Source: SourceEmpty}
	}

	t := Tree{
		Source:  SourceStructured,
		Variant: r.Variant,
		Title:   Title(r.Variant),
	}
	for _, s := range summaryRows(r) {
		t.Summary = append(t.Summary, KeyValue{Label: Label(s.field), Value: s.value})
	}

	if r.Variant == types.VariantImages {
		for i, img := range r.Images {
			t.Cards = append(t.Cards, newCard(i+1, img.Title, img.PublicationNumber, imageRows(img), nil))
		}
		dedupKeys(t.Cards)
		return t
	}

	for i, p := range r.Patents {
		var chunks []string
		if r.Variant == types.VariantChunks {
			chunks = chunkExcerpts(p.Chunks)
		}
		t.Cards = append(t.Cards, newCard(i+1, p.Title, p.PublicationNumber, patentRows(p), chunks))
	}
	dedupKeys(t.Cards)
	return t
}

func newCard(index int, title, publication string, rows []row, chunks []string) Card {
	c := Card{
		Index:             index,
		Key:               cardKey(index, publication),
		Title:             itemTitle(title),
		Chunks:            chunks,
		PublicationNumber: publication,
		ImagesExpandable:  publication != "",
	}
	for _, r := range rows {
		c.Fields = append(c.Fields, DetailField{
			Label:       Label(r.field),
			Value:       r.value,
			Highlighted: r.field == FieldPublication || r.field == FieldSimilarity,
			Expandable:  r.field == FieldAbstract && isExpandable(r.value),
		})
	}
	return c
}

func cardKey(index int, publication string) string {
	if publication != "" && publication != format.NA {
		return publication
	}
	return "#" + strconv.Itoa(index)
}

// dedupKeys suffixes repeated keys with the card index. Image results often
// share a publication number.
func dedupKeys(cards []Card) {
	seen := make(map[string]bool, len(cards))
	for i := range cards {
		if seen[cards[i].Key] {
			cards[i].Key += "#" + strconv.Itoa(cards[i].Index)
		}
		seen[cards[i].Key] = true
	}
}

// isExpandable reports whether an abstract value is long enough, or was
// already cut by an earlier export, to warrant a "see more" toggle.
func isExpandable(v string) bool {
	return format.CharCount(v) > ExpandableLimit || strings.HasSuffix(v, format.Ellipsis)
}
