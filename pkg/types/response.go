// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for patent-report: the
// normalized search responses returned by the patent API, gallery images,
// persisted history records, and configuration.
package types

import (
	"encoding/json"
	"fmt"
)

// Variant discriminates the three SearchResponse shapes. It is set once by
// the API client from the endpoint that produced the response.
type Variant string

const (
	VariantSimilarity Variant = "similarity"
	VariantChunks     Variant = "chunks"
	VariantImages     Variant = "images"
)

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantSimilarity, VariantChunks, VariantImages:
		return true
	}
	return false
}

// SearchResponse is the normalized root result of a patent or image
// similarity query. Patents is populated for the similarity and chunks
// variants; Images for the images variant.
type SearchResponse struct {
	// Variant is the discriminant; never inferred from the populated lists.
	Variant Variant `json:"variant" yaml:"variant"`

	// TotalFound is the number of matches reported by the API.
	TotalFound int `json:"total_found" yaml:"total_found"`

	// SimilarityThreshold is the minimum score in [0,1] used for the query.
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// MaxResults is the requested result cap, when the API echoed it.
	MaxResults *int `json:"max_results,omitempty" yaml:"max_results,omitempty"`

	// EmbeddingDimension is the query embedding size, when reported.
	EmbeddingDimension *int `json:"embedding_dimension,omitempty" yaml:"embedding_dimension,omitempty"`

	Patents []RankedPatent `json:"patents,omitempty" yaml:"patents,omitempty"`
	Images  []RankedImage  `json:"images,omitempty" yaml:"images,omitempty"`
}

// RankedPatent is one ranked result of a text or chunk similarity query.
// Empty strings mean the upstream value was null.
type RankedPatent struct {
	PublicationNumber string   `json:"publication_number,omitempty" yaml:"publication_number,omitempty"`
	ApplicationNumber string   `json:"application_number,omitempty" yaml:"application_number,omitempty"`
	PublicationDate   string   `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	PublicationYear   int      `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	Title             string   `json:"title" yaml:"title"`
	Abstract          string   `json:"abstract" yaml:"abstract"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	IPCCodes          []string `json:"ipc_codes" yaml:"ipc_codes"`
	Organization      string   `json:"organization,omitempty" yaml:"organization,omitempty"`
	MainGroup         string   `json:"maingroup,omitempty" yaml:"maingroup,omitempty"`
	Subgroup          string   `json:"subgroup,omitempty" yaml:"subgroup,omitempty"`
	SimilarityScore   float64  `json:"similarity_score" yaml:"similarity_score"`

	// Chunks holds the matched excerpts; only set for the chunks variant.
	Chunks []string `json:"chunks,omitempty" yaml:"chunks,omitempty"`
}

// RankedImage is one ranked result of an image similarity query.
type RankedImage struct {
	ImageID           int      `json:"image_id" yaml:"image_id"`
	ImageFilename     string   `json:"image_filename,omitempty" yaml:"image_filename,omitempty"`
	ImagePath         string   `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	PublicationNumber string   `json:"publication_number,omitempty" yaml:"publication_number,omitempty"`
	ApplicationNumber string   `json:"application_number,omitempty" yaml:"application_number,omitempty"`
	PublicationDate   string   `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	PublicationYear   int      `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	Title             string   `json:"title" yaml:"title"`
	Abstract          string   `json:"abstract" yaml:"abstract"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	IPCCodes          []string `json:"ipc_codes" yaml:"ipc_codes"`
	Organization      string   `json:"organization,omitempty" yaml:"organization,omitempty"`
	SimilarityScore   float64  `json:"similarity_score" yaml:"similarity_score"`
}

// Len returns the number of ranked items regardless of variant.
func (r *SearchResponse) Len() int {
	if r == nil {
		return 0
	}
	if r.Variant == VariantImages {
		return len(r.Images)
	}
	return len(r.Patents)
}

// Validate checks the invariants every consumer relies on: a known
// variant and scores in [0,1].
func (r *SearchResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("nil search response")
	}
	if !r.Variant.Valid() {
		return fmt.Errorf("unknown response variant %q", r.Variant)
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range [0,1]", r.SimilarityThreshold)
	}
	for i, p := range r.Patents {
		if p.SimilarityScore < 0 || p.SimilarityScore > 1 {
			return fmt.Errorf("item %d: similarity score %v out of range [0,1]", i+1, p.SimilarityScore)
		}
	}
	for i, img := range r.Images {
		if img.SimilarityScore < 0 || img.SimilarityScore > 1 {
			return fmt.Errorf("item %d: similarity score %v out of range [0,1]", i+1, img.SimilarityScore)
		}
	}
	return nil
}

// IntPtr returns a pointer to n, for populating optional envelope fields.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// Patent API wire structures. The API names the item list per endpoint and
// uses "orgname" for the organization.
type wireEnvelope struct {
	TotalFound          int     `json:"total_found"`
	EmbeddingDimension  *int    `json:"query_embedding_dimension"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MaxResults          *int    `json:"max_results"`
}

type wirePatent struct {
	PublicationNumber *string  `json:"publication_number"`
	PublicationDate   *string  `json:"publication_date"`
	PublicationYear   *int     `json:"publication_year"`
	ApplicationNumber *string  `json:"application_number"`
	Title             string   `json:"title"`
	Abstract          string   `json:"abstract"`
	Description       string   `json:"description"`
	IPCCodes          []string `json:"ipc_codes"`
	Orgname           *string  `json:"orgname"`
	MainGroup         *string  `json:"maingroup"`
	Subgroup          *string  `json:"subgroup"`
	Chunks            []string `json:"chunks"`
	SimilarityScore   float64  `json:"similarity_score"`
}

type wireImage struct {
	ImageID           int      `json:"image_id"`
	PublicationNumber *string  `json:"publication_number"`
	ImagePath         *string  `json:"image_path"`
	ImageFilename     *string  `json:"image_filename"`
	Title             string   `json:"title"`
	Abstract          string   `json:"abstract"`
	Description       string   `json:"description"`
	PublicationDate   *string  `json:"publication_date"`
	PublicationYear   *int     `json:"publication_year"`
	ApplicationNumber *string  `json:"application_number"`
	IPCCodes          []string `json:"ipc_codes"`
	Orgname           *string  `json:"orgname"`
	SimilarityScore   float64  `json:"similarity_score"`
}

// DecodeWire decodes a raw patent API body into a SearchResponse of the
// given variant. The caller knows the variant from the endpoint it called.
func DecodeWire(v Variant, data []byte) (*SearchResponse, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("unknown response variant %q", v)
	}

	var env struct {
		wireEnvelope
		SimilarPatents []wirePatent `json:"similar_patents"`
		SimilarImages  []wireImage  `json:"similar_images"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", v, err)
	}

	resp := &SearchResponse{
		Variant:             v,
		TotalFound:          env.TotalFound,
		SimilarityThreshold: env.SimilarityThreshold,
		MaxResults:          env.MaxResults,
		EmbeddingDimension:  env.EmbeddingDimension,
	}

	if v == VariantImages {
		for _, w := range env.SimilarImages {
			resp.Images = append(resp.Images, RankedImage{
				ImageID:           w.ImageID,
				ImageFilename:     deref(w.ImageFilename),
				ImagePath:         deref(w.ImagePath),
				PublicationNumber: deref(w.PublicationNumber),
				ApplicationNumber: deref(w.ApplicationNumber),
				PublicationDate:   deref(w.PublicationDate),
				PublicationYear:   derefInt(w.PublicationYear),
				Title:             w.Title,
				Abstract:          w.Abstract,
				Description:       w.Description,
				IPCCodes:          w.IPCCodes,
				Organization:      deref(w.Orgname),
				SimilarityScore:   w.SimilarityScore,
			})
		}
		return resp, nil
	}

	for _, w := range env.SimilarPatents {
		p := RankedPatent{
			PublicationNumber: deref(w.PublicationNumber),
			ApplicationNumber: deref(w.ApplicationNumber),
			PublicationDate:   deref(w.PublicationDate),
			PublicationYear:   derefInt(w.PublicationYear),
			Title:             w.Title,
			Abstract:          w.Abstract,
			Description:       w.Description,
			IPCCodes:          w.IPCCodes,
			Organization:      deref(w.Orgname),
			MainGroup:         deref(w.MainGroup),
			Subgroup:          deref(w.Subgroup),
			SimilarityScore:   w.SimilarityScore,
		}
		if v == VariantChunks {
			p.Chunks = w.Chunks
		}
		resp.Patents = append(resp.Patents, p)
	}
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
