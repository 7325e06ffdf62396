// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patentapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-report/internal/httputil"
	"github.com/pdiddy/patent-report/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const similarityBody = `{
  "similar_patents": [
    {"publication_number": "US123", "application_number": null, "publication_date": "2020-01-02",
     "title": "Widget A", "abstract": "An abstract.", "description": "", "ipc_codes": ["A01B 1/00"],
     "orgname": "Acme", "maingroup": null, "subgroup": null, "similarity_score": 0.87,
     "chunks": ["matched excerpt"]}
  ],
  "total_found": 1,
  "query_embedding_dimension": 768,
  "similarity_threshold": 0.5,
  "max_results": 10
}`

const imagesBody = `{
  "similar_images": [
    {"image_id": 7, "publication_number": "US555", "image_path": "US555/fig1.tif", "image_filename": "fig1.tif",
     "title": "Valve", "abstract": "", "description": "", "publication_date": null, "publication_year": null,
     "application_number": null, "ipc_codes": [], "orgname": null, "similarity_score": 0.66}
  ],
  "total_found": 1,
  "query_embedding_dimension": 512,
  "similarity_threshold": 0.3,
  "max_results": 5
}`

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := New(types.APIConfig{BaseURL: ts.URL + "/", Token: "secret", MaxRetries: 2}, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(types.APIConfig{}, nil)
	assert.Error(t, err)
}

func TestSearch_VariantFromEndpoint(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	for _, p := range []string{PathSimilarity, PathChunks, PathSearchByText} {
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = io.WriteString(w, similarityBody)
		})
	}
	c := newTestClient(t, mux)
	ctx := context.Background()
	p := SearchParams{Threshold: 0.5, MaxResults: 10}

	tests := []struct {
		name string
		call func() (*types.SearchResponse, error)
		want types.Variant
	}{
		{"similarity", func() (*types.SearchResponse, error) { return c.SimilarPatents(ctx, []float64{0.1}, p) }, types.VariantSimilarity},
		{"chunks", func() (*types.SearchResponse, error) { return c.SimilarChunks(ctx, []float64{0.1}, p) }, types.VariantChunks},
		{"by text", func() (*types.SearchResponse, error) { return c.SearchByText(ctx, "filter", false, p) }, types.VariantSimilarity},
		{"by text chunks", func() (*types.SearchResponse, error) { return c.SearchByText(ctx, "filter", true, p) }, types.VariantChunks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Variant)
			assert.Equal(t, 1, resp.TotalFound)
			require.NotNil(t, resp.EmbeddingDimension)
			assert.Equal(t, 768, *resp.EmbeddingDimension)
			require.Len(t, resp.Patents, 1)
			assert.Equal(t, "Acme", resp.Patents[0].Organization)
			assert.Equal(t, "", resp.Patents[0].ApplicationNumber)
		})
	}
	assert.Len(t, seen, 4)
}

func TestSearchByText_Body(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "valve", body["text"])
		assert.Equal(t, true, body["use_chunks"])
		assert.InDelta(t, 0.7, body["similarity_threshold"], 1e-9)
		assert.EqualValues(t, 3, body["max_results"])
		_, _ = io.WriteString(w, similarityBody)
	}))

	_, err := c.SearchByText(context.Background(), "valve", true, SearchParams{Threshold: 0.7, MaxResults: 3})
	require.NoError(t, err)
}

func TestWithText_EmbedsFirst(t *testing.T) {
	var order []string
	mux := http.NewServeMux()
	mux.HandleFunc(PathEmbed, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "embed")
		_, _ = io.WriteString(w, `{"chunks":["a"],"embeddings":[[0.1,0.2,0.3]]}`)
	})
	mux.HandleFunc(PathChunks, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "chunks")
		var body embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []float64{0.1, 0.2, 0.3}, body.Embedding)
		_, _ = io.WriteString(w, similarityBody)
	})
	c := newTestClient(t, mux)

	resp, err := c.SimilarChunksWithText(context.Background(), "text", SearchParams{Threshold: 0.5, MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, types.VariantChunks, resp.Variant)
	assert.Equal(t, []string{"embed", "chunks"}, order)
}

func TestWithText_NoEmbedding(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"chunks":[],"embeddings":[]}`)
	}))
	_, err := c.SimilarPatentsWithText(context.Background(), "text", SearchParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding returned")
}

func TestSearchImages_Multipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathImageSearch, r.URL.Path)
		assert.Equal(t, "0.3", r.URL.Query().Get("similarity_threshold"))
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "drawing.png", hdr.Filename)
		assert.Equal(t, []byte("PNGDATA"), data)

		_, _ = io.WriteString(w, imagesBody)
	}))

	resp, err := c.SearchImages(context.Background(), "drawing.png", []byte("PNGDATA"), SearchParams{Threshold: 0.3, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, types.VariantImages, resp.Variant)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, 7, resp.Images[0].ImageID)
	assert.Empty(t, resp.Patents)
}

func TestSearch_RejectsOutOfRangeScores(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(c *Client) (*types.SearchResponse, error)
	}{
		{
			name: "patent score above one",
			body: strings.Replace(similarityBody, `"similarity_score": 0.87`, `"similarity_score": 1.2`, 1),
			call: func(c *Client) (*types.SearchResponse, error) {
				return c.SearchByText(context.Background(), "valve", false, SearchParams{Threshold: 0.5})
			},
		},
		{
			name: "negative image score",
			body: strings.Replace(imagesBody, `"similarity_score": 0.66`, `"similarity_score": -0.1`, 1),
			call: func(c *Client) (*types.SearchResponse, error) {
				return c.SearchImages(context.Background(), "a.png", []byte("x"), SearchParams{Threshold: 0.3})
			},
		},
		{
			name: "threshold above one",
			body: strings.Replace(similarityBody, `"similarity_threshold": 0.5`, `"similarity_threshold": 50`, 1),
			call: func(c *Client) (*types.SearchResponse, error) {
				return c.SimilarPatents(context.Background(), []float64{1}, SearchParams{})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))

			resp, err := tt.call(c)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ErrInvalidResponse)
			assert.Contains(t, err.Error(), "out of range [0,1]")
		})
	}
}

func TestAPIError_NotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":"bad embedding"}`)
	}))

	_, err := c.SimilarPatents(context.Background(), nil, SearchParams{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad embedding")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimited_BacksOff(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, similarityBody)
	}))

	resp, err := c.SimilarPatents(context.Background(), []float64{1}, SearchParams{})
	require.NoError(t, err)
	assert.Len(t, resp.Patents, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListPatents_Query(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathListPatents, r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		_, _ = io.WriteString(w, `{"patents":[{"publication_number":"US1","title":"T"}],"total_count":1,"page":2,"page_size":20,"total_pages":2,"has_next":false,"has_previous":true}`)
	}))

	out, err := c.ListPatents(context.Background(), ListParams{Page: 2, SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page)
	assert.True(t, out.HasPrevious)
	require.Len(t, out.Patents, 1)
}

func TestGallery(t *testing.T) {
	var binaryCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/patents/US555/images", func(w http.ResponseWriter, r *http.Request) {
		var imgs []string
		for _, name := range []string{"a", "b", "broken", "d", "e", "f"} {
			imgs = append(imgs, `{"id":1,"publication_number":"US555","image_path":"US555/`+name+`.tif","image_filename":"`+name+`.tif"}`)
		}
		_, _ = io.WriteString(w, `{"publication_number":"US555","total_count":6,"images":[`+strings.Join(imgs, ",")+`]}`)
	})
	mux.HandleFunc("/v1/patents/images/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&binaryCalls, 1)
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	c := newTestClient(t, mux)

	imgs, err := c.Gallery(context.Background(), "US555", 4)
	require.NoError(t, err)
	require.Len(t, imgs, 4)
	assert.Equal(t, int32(4), atomic.LoadInt32(&binaryCalls))

	assert.Equal(t, DataURL("image/png", []byte{0x89, 'P', 'N', 'G'}), imgs[0].DataURL)
	assert.True(t, strings.HasPrefix(imgs[1].DataURL, "data:image/png;base64,"))
	assert.Empty(t, imgs[2].DataURL, "failed download leaves the image without data")
	assert.NotEmpty(t, imgs[3].DataURL)
}

func TestGallery_ListingFailureSingleAttempt(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Gallery(context.Background(), "US1", 4)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "US1/fig%201.png", escapePath("/US1/fig 1.png"))
}
