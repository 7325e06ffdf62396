// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"github.com/pdiddy/patent-report/internal/format"
	"github.com/pdiddy/patent-report/pkg/types"
)

// ChunkLimit is the number of characters kept from each matched excerpt.
const ChunkLimit = 150

// NoTitle replaces an empty item title.
const NoTitle = "No title"

// row is one formatted detail line of an item. Both the renderer and the
// text exporter walk the SearchResponse through these so the two views can
// never disagree on field order or formatting.
type row struct {
	field Field
	value string
}

func summaryRows(r *types.SearchResponse) []row {
	rows := []row{
		{SummaryTotal, format.Int(r.TotalFound)},
		{SummaryThreshold, format.Percent(r.SimilarityThreshold)},
	}
	if r.MaxResults != nil {
		rows = append(rows, row{SummaryMaxResults, format.Int(*r.MaxResults)})
	}
	if r.EmbeddingDimension != nil {
		rows = append(rows, row{SummaryDimension, format.Int(*r.EmbeddingDimension)})
	}
	return rows
}

func patentRows(p types.RankedPatent) []row {
	return []row{
		{FieldPublication, format.OrNA(p.PublicationNumber)},
		{FieldApplication, format.OrNA(p.ApplicationNumber)},
		{FieldDate, format.OrNA(p.PublicationDate)},
		{FieldSimilarity, format.Percent(p.SimilarityScore)},
		{FieldOrganization, format.OrNA(p.Organization)},
		{FieldIPCCodes, format.JoinCodes(p.IPCCodes)},
		{FieldAbstract, format.OrNA(p.Abstract)},
	}
}

func imageRows(img types.RankedImage) []row {
	return []row{
		{FieldImageID, format.Int(img.ImageID)},
		{FieldPublication, format.OrNA(img.PublicationNumber)},
		{FieldFile, format.OrNA(img.ImageFilename)},
		{FieldSimilarity, format.Percent(img.SimilarityScore)},
		{FieldDate, format.OrNA(img.PublicationDate)},
		{FieldOrganization, format.OrNA(img.Organization)},
		{FieldAbstract, format.OrNA(img.Abstract)},
	}
}

func chunkExcerpts(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, format.Truncate(c, ChunkLimit))
	}
	return out
}

func itemTitle(title string) string {
	if title == "" {
		return NoTitle
	}
	return title
}
