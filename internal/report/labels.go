// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"strings"

	"github.com/pdiddy/patent-report/pkg/types"
)

// Field is the canonical name of an item detail line, independent of the
// language the report was written in.
type Field string

const (
	FieldImageID      Field = "image_id"
	FieldPublication  Field = "publication_number"
	FieldApplication  Field = "application_number"
	FieldFile         Field = "image_filename"
	FieldDate         Field = "publication_date"
	FieldSimilarity   Field = "similarity"
	FieldOrganization Field = "organization"
	FieldIPCCodes     Field = "ipc_codes"
	FieldAbstract     Field = "abstract"
	FieldChunks       Field = "chunks"

	SummaryTotal      Field = "total_found"
	SummaryThreshold  Field = "similarity_threshold"
	SummaryMaxResults Field = "max_results"
	SummaryDimension  Field = "embedding_dimension"
)

// labelTable maps every canonical field to the label this package writes
// (first entry) followed by every spelling found in older reports.
var labelTable = map[Field][]string{
	FieldImageID:      {"Image ID", "ID da Imagem"},
	FieldPublication:  {"Publication No.", "Publication Number", "Nº Publicação", "N° Publicação", "Número de Publicação", "Publicação"},
	FieldApplication:  {"Application No.", "Application Number", "Nº Aplicação", "N° Aplicação", "Nº Pedido", "Número do Pedido"},
	FieldFile:         {"File", "Arquivo"},
	FieldDate:         {"Date", "Data"},
	FieldSimilarity:   {"Similarity", "Similaridade"},
	FieldOrganization: {"Organization", "Organização", "Empresa"},
	FieldIPCCodes:     {"IPC Codes", "Códigos IPC", "IPC"},
	FieldAbstract:     {"Abstract", "Resumo", "Summary", "Description", "Descrição"},
	FieldChunks:       {"Related Chunks", "Trechos Relacionados"},

	SummaryTotal: {"Total found", "Total patents found", "Total chunks found", "Total images found",
		"Total encontrado", "Total de patentes encontradas", "Total de trechos encontrados", "Total de imagens encontradas"},
	SummaryThreshold:  {"Similarity Threshold", "Limiar de Similaridade", "Threshold de Similaridade"},
	SummaryMaxResults: {"Max results", "Requested results (Max)", "Resultados solicitados (Máx)", "Máximo de resultados"},
	SummaryDimension:  {"Embedding dimension", "Dimensão do embedding", "Dimensão do Embedding"},
}

// highlightTokens mark a detail line as high value when its label contains
// any of them.
var highlightTokens = []string{"similarity", "similaridade", "publication", "publicação"}

// Report markers. The first entry of each list is the one Text writes.
var (
	bannerMarker = "════════════"

	summaryHeaders = []string{"📊 SEARCH SUMMARY", "📊 RESUMO DA BUSCA"}

	resultsHeaders = map[types.Variant][]string{
		types.VariantSimilarity: {"📋 SIMILAR PATENTS", "📋 PATENTES SIMILARES"},
		types.VariantChunks:     {"📋 SIMILAR EXCERPTS", "📋 SIMILAR CHUNKS", "📋 TRECHOS SIMILARES"},
		types.VariantImages:     {"🖼️ SIMILAR IMAGES", "🖼️ IMAGENS SIMILARES"},
	}

	titles = map[types.Variant][]string{
		types.VariantSimilarity: {"TEXT SIMILARITY SEARCH", "BUSCA POR SIMILARIDADE DE TEXTO"},
		types.VariantChunks:     {"CHUNK SEARCH", "BUSCA POR TRECHOS"},
		types.VariantImages:     {"IMAGE SIMILARITY SEARCH", "BUSCA POR SIMILARIDADE DE IMAGEM"},
	}
)

// variantOrder fixes iteration order over the per-variant tables.
var variantOrder = []types.Variant{types.VariantImages, types.VariantChunks, types.VariantSimilarity}

// Label returns the label written for f.
func Label(f Field) string {
	if l, ok := labelTable[f]; ok {
		return l[0]
	}
	return string(f)
}

// Title returns the report title line for a variant.
func Title(v types.Variant) string {
	if t, ok := titles[v]; ok {
		return t[0]
	}
	return titles[types.VariantSimilarity][0]
}

func resultsHeader(v types.Variant) string {
	if h, ok := resultsHeaders[v]; ok {
		return h[0]
	}
	return resultsHeaders[types.VariantSimilarity][0]
}

// lookupField resolves a label in either language to its canonical field.
func lookupField(label string) (Field, bool) {
	label = normalizeLabel(label)
	for f, spellings := range labelTable {
		for _, s := range spellings {
			if strings.EqualFold(label, s) {
				return f, true
			}
		}
	}
	return "", false
}

// isHighlighted reports whether a label names a high-value field.
func isHighlighted(label string) bool {
	l := strings.ToLower(label)
	for _, tok := range highlightTokens {
		if strings.Contains(l, tok) {
			return true
		}
	}
	return false
}

// variantFromTitle infers the variant of a legacy report from its title line.
func variantFromTitle(title string) types.Variant {
	t := strings.ToUpper(title)
	switch {
	case strings.Contains(t, "IMAGE") || strings.Contains(t, "IMAGEM"):
		return types.VariantImages
	case strings.Contains(t, "CHUNK") || strings.Contains(t, "TRECHO"):
		return types.VariantChunks
	}
	return types.VariantSimilarity
}

// variantFromHeader infers the variant from the results section header.
func variantFromHeader(header string) (types.Variant, bool) {
	for _, v := range variantOrder {
		for _, h := range resultsHeaders[v] {
			if h == header {
				return v, true
			}
		}
	}
	return "", false
}

func allResultsHeaders() []string {
	var out []string
	for _, v := range variantOrder {
		out = append(out, resultsHeaders[v]...)
	}
	return out
}

// normalizeLabel strips tree glyphs, bullets, and surrounding space.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	for {
		prev := s
		for _, g := range []string{"├──", "└──", "│", "•"} {
			s = strings.TrimSpace(strings.TrimPrefix(s, g))
		}
		if s == prev {
			return s
		}
	}
}
