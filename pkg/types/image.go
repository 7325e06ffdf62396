// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PatentImage describes one drawing attached to a patent, as listed by the
// patent API gallery endpoint.
type PatentImage struct {
	ID                int    `json:"id" yaml:"id"`
	PublicationNumber string `json:"publication_number" yaml:"publication_number"`
	ImagePath         string `json:"image_path" yaml:"image_path"`
	ImageFilename     string `json:"image_filename" yaml:"image_filename"`
	ImageURL          string `json:"image_url" yaml:"image_url"`
	Description       string `json:"description" yaml:"description"`
	CreatedAt         string `json:"created_at" yaml:"created_at"`

	// DataURL is the fetched binary as a data: URL. Empty when the binary
	// fetch for this image failed.
	DataURL string `json:"data_url,omitempty" yaml:"-"`
}

// PatentImagesResponse is the body of GET /v1/patents/{publication_number}/images.
type PatentImagesResponse struct {
	PublicationNumber string        `json:"publication_number"`
	Images            []PatentImage `json:"images"`
	TotalCount        int           `json:"total_count"`
}

// Patent is one row of the paginated patent listing.
type Patent struct {
	PublicationNumber string   `json:"publication_number" yaml:"publication_number"`
	PublicationDate   string   `json:"publication_date" yaml:"publication_date"`
	PublicationYear   int      `json:"publication_year" yaml:"publication_year"`
	ApplicationNumber string   `json:"application_number" yaml:"application_number"`
	Title             string   `json:"title" yaml:"title"`
	Abstract          string   `json:"abstract" yaml:"abstract"`
	IPCCodes          []string `json:"ipc_codes" yaml:"ipc_codes"`
	Orgname           string   `json:"orgname" yaml:"orgname"`
	HasEmbedding      bool     `json:"has_embedding" yaml:"has_embedding"`
}

// ListPatentsResponse is the body of GET /v1/patents/.
type ListPatentsResponse struct {
	Patents     []Patent `json:"patents"`
	TotalCount  int      `json:"total_count"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
}
