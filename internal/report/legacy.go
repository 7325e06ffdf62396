// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/pkg/types"
)

// ErrUnrecognizedFormat is returned by Recover when the text carries no
// banner and summary header, so no structure can be recovered.
var ErrUnrecognizedFormat = errors.New("unrecognized report format")

var (
	titlePattern     = regexp.MustCompile(`(?s)═{5,}[^\n]*\n(.*?)\n[ \t]*═{5,}`)
	itemStartPattern = regexp.MustCompile(`\n[ \t]*\d+\.\s`)
	itemTitlePattern = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)
	chunkLinePattern = regexp.MustCompile(`^[│\s]*[├└]──\s*\d+\.\s*(.*)$`)
)

// IsReport reports whether text looks like a flattened report: it needs
// the banner marker and a summary header in either language.
func IsReport(text string) bool {
	if !strings.Contains(text, bannerMarker) {
		return false
	}
	for _, h := range summaryHeaders {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

// ParseLegacy recovers a presentation tree from a flattened report. Text
// that is not a recognized report comes back as a raw tree holding the
// input verbatim. Item blocks that cannot be parsed are skipped and
// counted in Tree.Skipped.
func ParseLegacy(text string) Tree {
	if strings.TrimSpace(text) == "" {
		return Tree{Source: SourceEmpty}
	}
	if !IsReport(text) {
		return Tree{Source: SourceRaw, Raw: text}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	t := Tree{Source: SourceLegacy}
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		t.Title = strings.TrimSpace(m[1])
	}
	t.Variant = variantFromTitle(t.Title)

	summaryPart, resultsPart, header := splitSections(text)
	if v, ok := variantFromHeader(header); ok && t.Title == "" {
		t.Variant = v
	}
	if t.Title == "" {
		t.Title = Title(t.Variant)
	}

	t.Summary = parseSummary(summaryPart)

	for _, block := range splitItems(resultsPart) {
		card, ok := parseItem(block, len(t.Cards)+1)
		if !ok {
			t.Skipped++
			continue
		}
		t.Cards = append(t.Cards, card)
	}
	dedupKeys(t.Cards)
	return t
}

// splitSections returns the text between the summary header and the
// results header, the text after the results header, and the results
// header that matched.
func splitSections(text string) (summary, results, header string) {
	start := -1
	for _, h := range summaryHeaders {
		if i := strings.Index(text, h); i >= 0 {
			start = i + len(h)
			break
		}
	}
	if start < 0 {
		return "", "", ""
	}
	rest := text[start:]

	end := -1
	for _, h := range allResultsHeaders() {
		if i := strings.Index(rest, h); i >= 0 && (end < 0 || i < end) {
			end = i
			header = h
		}
	}
	if end < 0 {
		return rest, "", ""
	}
	return rest[:end], rest[end+len(header):], header
}

func parseSummary(part string) []KeyValue {
	var out []KeyValue
	for _, line := range strings.Split(part, "\n") {
		if !strings.Contains(line, "•") {
			continue
		}
		line = strings.TrimSpace(strings.Replace(line, "•", "", 1))
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if f, known := lookupField(label); known {
			label = Label(f)
		}
		out = append(out, KeyValue{Label: label, Value: strings.TrimSpace(value)})
	}
	return out
}

// splitItems cuts the results section at each numbered item start. A
// numbered line starts an item when it follows a blank line or a tree row
// follows it; otherwise it belongs to the previous item's value.
func splitItems(part string) []string {
	part = "\n" + part
	var idx [][]int
	for _, loc := range itemStartPattern.FindAllStringIndex(part, -1) {
		if followsBlank(part[:loc[0]]) || startsItem(part[loc[0]+1:]) {
			idx = append(idx, loc)
		}
	}
	var blocks []string
	for i, loc := range idx {
		end := len(part)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		if b := strings.TrimSpace(part[loc[0]:end]); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// startsItem reports whether the first non-blank line after the item
// title line is a tree row.
func startsItem(rest string) bool {
	_, rest, ok := strings.Cut(rest, "\n")
	if !ok {
		return false
	}
	for _, line := range strings.Split(rest, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return isTreeRow(line)
	}
	return false
}

func followsBlank(before string) bool {
	before = strings.TrimRight(before, " \t")
	return before == "" || strings.HasSuffix(before, "\n")
}

func isTreeRow(line string) bool {
	l := strings.TrimLeft(line, " \t│")
	return strings.HasPrefix(l, "├") || strings.HasPrefix(l, "└")
}

func parseItem(block string, fallbackIndex int) (Card, bool) {
	lines := strings.Split(block, "\n")
	m := itemTitlePattern.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return Card{}, false
	}

	index, err := strconv.Atoi(m[1])
	if err != nil || index <= 0 {
		index = fallbackIndex
	}
	card := Card{Index: index, Title: itemTitle(strings.TrimSpace(m[2]))}

	var inChunks, afterAbstract bool
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" || isRule(line) {
			continue
		}
		if inChunks {
			if cm := chunkLinePattern.FindStringSubmatch(line); cm != nil {
				card.Chunks = append(card.Chunks, unquote(cm[1]))
				continue
			}
		}

		label, value, ok := strings.Cut(line, ":")
		clean := normalizeLabel(label)
		if !ok || clean == "" || strings.ContainsAny(clean, "\"") {
			appendContinuation(&card, line)
			continue
		}

		value = strings.TrimSpace(value)
		f, known := lookupField(clean)
		if !known && afterAbstract && !isTreeRow(line) {
			appendContinuation(&card, line)
			continue
		}
		if known && f == FieldChunks {
			inChunks = true
			continue
		}
		if known {
			clean = Label(f)
		}
		card.Fields = append(card.Fields, DetailField{
			Label:       clean,
			Value:       value,
			Highlighted: isHighlighted(label),
			Expandable:  known && f == FieldAbstract && isExpandable(value),
		})
		if known && f == FieldAbstract {
			afterAbstract = true
		}
		if known && f == FieldPublication && value != format.NA {
			card.PublicationNumber = value
		}
	}

	if len(card.Fields) == 0 {
		return Card{}, false
	}
	card.Key = cardKey(card.Index, card.PublicationNumber)
	card.ImagesExpandable = card.PublicationNumber != ""
	return card, true
}

// appendContinuation folds a line without a label into the previous value,
// which happens when an exported value itself contained newlines.
func appendContinuation(card *Card, line string) {
	if len(card.Fields) == 0 {
		return
	}
	last := &card.Fields[len(card.Fields)-1]
	last.Value += "\n" + strings.TrimSpace(line)
	if f, ok := lookupField(last.Label); ok && f == FieldAbstract {
		last.Expandable = isExpandable(last.Value)
	}
}

func isRule(line string) bool {
	l := strings.TrimSpace(line)
	return l != "" && strings.Trim(l, "─═") == ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// Recover rebuilds an approximate SearchResponse from a flattened report.
// Scores come back at the one-decimal precision of the text and truncated
// values keep their ellipsis.
func Recover(text string) (*types.SearchResponse, error) {
	t := ParseLegacy(text)
	if t.Source != SourceLegacy {
		return nil, ErrUnrecognizedFormat
	}
	return responseFromTree(t), nil
}

func responseFromTree(t Tree) *types.SearchResponse {
	r := &types.SearchResponse{Variant: t.Variant}

	for _, kv := range t.Summary {
		f, ok := lookupField(kv.Label)
		if !ok {
			continue
		}
		switch f {
		case SummaryTotal:
			r.TotalFound = atoi(kv.Value)
		case SummaryThreshold:
			r.SimilarityThreshold, _ = format.ParsePercent(kv.Value)
		case SummaryMaxResults:
			if n, err := strconv.Atoi(strings.TrimSpace(kv.Value)); err == nil {
				r.MaxResults = types.IntPtr(n)
			}
		case SummaryDimension:
			if n, err := strconv.Atoi(strings.TrimSpace(kv.Value)); err == nil {
				r.EmbeddingDimension = types.IntPtr(n)
			}
		}
	}

	for _, c := range t.Cards {
		vals := cardValues(c)
		title := c.Title
		if title == NoTitle {
			title = ""
		}
		score, _ := format.ParsePercent(vals[FieldSimilarity])

		if r.Variant == types.VariantImages {
			r.Images = append(r.Images, types.RankedImage{
				ImageID:           atoi(vals[FieldImageID]),
				ImageFilename:     vals[FieldFile],
				PublicationNumber: vals[FieldPublication],
				PublicationDate:   vals[FieldDate],
				Title:             title,
				Abstract:          vals[FieldAbstract],
				Organization:      vals[FieldOrganization],
				SimilarityScore:   score,
			})
			continue
		}
		r.Patents = append(r.Patents, types.RankedPatent{
			PublicationNumber: vals[FieldPublication],
			ApplicationNumber: vals[FieldApplication],
			PublicationDate:   vals[FieldDate],
			Title:             title,
			Abstract:          vals[FieldAbstract],
			IPCCodes:          format.SplitCodes(vals[FieldIPCCodes]),
			Organization:      vals[FieldOrganization],
			SimilarityScore:   score,
			Chunks:            c.Chunks,
		})
	}
	return r
}

// cardValues maps a card's fields to canonical names, turning the NA
// placeholder back into an empty value.
func cardValues(c Card) map[Field]string {
	vals := make(map[Field]string, len(c.Fields))
	for _, fd := range c.Fields {
		f, ok := lookupField(fd.Label)
		if !ok {
			continue
		}
		if _, dup := vals[f]; dup {
			continue
		}
		if fd.Value == format.NA {
			vals[f] = ""
			continue
		}
		vals[f] = fd.Value
	}
	return vals
}

func atoi(s string) int {
	s = strings.NewReplacer(".", "", ",", "").Replace(strings.TrimSpace(s))
	n, _ := strconv.Atoi(s)
	return n
}
