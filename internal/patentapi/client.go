// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patentapi is the client for the remote patent search API. Every
// search call tags its normalized response with the Variant of the endpoint
// it hit, so downstream code never has to guess a response's shape.
package patentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/httputil"
	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// API paths, relative to the configured base URL.
const (
	PathEmbed          = "/v1/embed/"
	PathSimilarity     = "/v1/patents/similarity"
	PathChunks         = "/v1/patents/chunks/similarity"
	PathSearchByText   = "/v1/patents/search/by-text"
	PathImageSearch    = "/v1/patents/images/search"
	PathListPatents    = "/v1/patents/"
	pathPatentImages   = "/v1/patents/%s/images"
	pathImageBinary    = "/v1/patents/images/"
	defaultTimeout     = 60 * time.Second
	maxErrorBodyLength = 2048
)

// ErrInvalidResponse wraps a 2xx response that breaks the response
// invariants, such as a similarity score outside [0,1].
var ErrInvalidResponse = errors.New("invalid patent API response")

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("patent API %s returned HTTP %d", e.Path, e.Status)
	}
	return fmt.Sprintf("patent API %s returned HTTP %d: %s", e.Path, e.Status, e.Body)
}

// Client calls the patent API with a bearer token. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	retry      httputil.RetryPolicy
	logger     *zap.Logger
}

// New creates a Client from configuration. Requests are paced at
// cfg.RatePerSecond; a zero rate means unpaced.
func New(cfg types.APIConfig, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("patent API base URL is not configured")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing patent API base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: httputil.NewLimitedTransport(nil, cfg.RatePerSecond),
		},
		retry:  httputil.RetryPolicy{MaxRetries: cfg.MaxRetries, Logger: logger},
		logger: logger,
	}, nil
}

// SearchParams are the common knobs of every similarity search.
type SearchParams struct {
	Threshold  float64
	MaxResults int
}

// EmbedResponse is the body of POST /v1/embed/.
type EmbedResponse struct {
	Chunks     []string    `json:"chunks"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the embeddings of text.
func (c *Client) Embed(ctx context.Context, text string) (*EmbedResponse, error) {
	var out EmbedResponse
	if err := c.postJSON(ctx, PathEmbed, map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type embeddingRequest struct {
	Embedding           []float64 `json:"embedding"`
	MaxResults          int       `json:"max_results"`
	SimilarityThreshold float64   `json:"similarity_threshold"`
}

// SimilarPatents ranks whole patents against an embedding.
func (c *Client) SimilarPatents(ctx context.Context, embedding []float64, p SearchParams) (*types.SearchResponse, error) {
	return c.search(ctx, PathSimilarity, types.VariantSimilarity, embeddingRequest{embedding, p.MaxResults, p.Threshold})
}

// SimilarChunks ranks patents by their best matching excerpts.
func (c *Client) SimilarChunks(ctx context.Context, embedding []float64, p SearchParams) (*types.SearchResponse, error) {
	return c.search(ctx, PathChunks, types.VariantChunks, embeddingRequest{embedding, p.MaxResults, p.Threshold})
}

// SearchByText lets the API embed text itself. useChunks selects the
// chunk variant.
func (c *Client) SearchByText(ctx context.Context, text string, useChunks bool, p SearchParams) (*types.SearchResponse, error) {
	body := struct {
		Text                string  `json:"text"`
		SimilarityThreshold float64 `json:"similarity_threshold"`
		MaxResults          int     `json:"max_results"`
		UseChunks           bool    `json:"use_chunks"`
	}{text, p.Threshold, p.MaxResults, useChunks}

	v := types.VariantSimilarity
	if useChunks {
		v = types.VariantChunks
	}
	return c.search(ctx, PathSearchByText, v, body)
}

// SimilarPatentsWithText embeds text and ranks whole patents against it.
func (c *Client) SimilarPatentsWithText(ctx context.Context, text string, p SearchParams) (*types.SearchResponse, error) {
	emb, err := c.firstEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.SimilarPatents(ctx, emb, p)
}

// SimilarChunksWithText embeds text and ranks patent excerpts against it.
func (c *Client) SimilarChunksWithText(ctx context.Context, text string, p SearchParams) (*types.SearchResponse, error) {
	emb, err := c.firstEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.SimilarChunks(ctx, emb, p)
}

func (c *Client) firstEmbedding(ctx context.Context, text string) ([]float64, error) {
	e, err := c.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(e.Embeddings) == 0 || len(e.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("generating embeddings: no embedding returned")
	}
	return e.Embeddings[0], nil
}

// SearchImages uploads an image and ranks patent drawings against it.
func (c *Client) SearchImages(ctx context.Context, filename string, data []byte, p SearchParams) (*types.SearchResponse, error) {
	body, contentType, err := multipartImage(filename, data)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("similarity_threshold", formatFloat(p.Threshold))
	q.Set("max_results", fmt.Sprint(p.MaxResults))

	req, err := c.newRequest(ctx, http.MethodPost, PathImageSearch+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	raw, err := c.do(req, PathImageSearch, true)
	metrics.SearchDuration.WithLabelValues(string(types.VariantImages)).Observe(time.Since(start).Seconds())
	metrics.SearchRequestsTotal.WithLabelValues(string(types.VariantImages), metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	return c.decode(PathImageSearch, types.VariantImages, raw)
}

// ListParams paginates GET /v1/patents/.
type ListParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ListPatents pages through the indexed patents.
func (c *Client) ListPatents(ctx context.Context, p ListParams) (*types.ListPatentsResponse, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(p.PageSize))
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	path := PathListPatents
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out types.ListPatentsResponse
	if err := c.getJSON(ctx, path, PathListPatents, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatentImages lists the drawings attached to a patent.
func (c *Client) PatentImages(ctx context.Context, publicationNumber string) (*types.PatentImagesResponse, error) {
	path := fmt.Sprintf(pathPatentImages, url.PathEscape(publicationNumber))
	var out types.PatentImagesResponse
	if err := c.getJSON(ctx, path, path, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImageBinary downloads one drawing and returns it as a data URL. The API
// converts TIFF drawings to PNG before serving them.
func (c *Client) ImageBinary(ctx context.Context, imagePath string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathImageBinary+escapePath(imagePath), nil)
	if err != nil {
		return "", err
	}
	raw, err := c.do(req, pathImageBinary, false)
	if err != nil {
		return "", err
	}
	return DataURL("image/png", raw), nil
}

func (c *Client) search(ctx context.Context, path string, v types.Variant, body any) (*types.SearchResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", path, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	raw, err := c.do(req, path, true)
	metrics.SearchDuration.WithLabelValues(string(v)).Observe(time.Since(start).Seconds())
	metrics.SearchRequestsTotal.WithLabelValues(string(v), metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	return c.decode(path, v, raw)
}

// decode normalizes a search body and rejects responses whose scores or
// threshold fall outside [0,1].
func (c *Client) decode(path string, v types.Variant, raw []byte) (*types.SearchResponse, error) {
	resp, err := types.DecodeWire(v, raw)
	if err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		c.logger.Warn("rejecting patent API response",
			zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w from %s: %w", ErrInvalidResponse, path, err)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	raw, err := c.do(req, path, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path, label string, retry bool, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	raw, err := c.do(req, label, retry)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", label, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and returns the body of a 2xx response. Search calls back
// off on 429; gallery calls make a single attempt.
func (c *Client) do(req *http.Request, label string, retry bool) ([]byte, error) {
	start := time.Now()

	var resp *http.Response
	var err error
	if retry {
		resp, err = httputil.DoWithRetry(req.Context(), c.httpClient, req, c.retry)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		return nil, fmt.Errorf("patent API %s request: %w", label, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", label, err)
	}

	c.logger.Debug("patent API call",
		zap.String("method", req.Method),
		zap.String("path", label),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := strings.TrimSpace(string(raw))
		if len(body) > maxErrorBodyLength {
			body = body[:maxErrorBodyLength]
		}
		return nil, &APIError{Status: resp.StatusCode, Path: label, Body: body}
	}
	return raw, nil
}

// escapePath escapes each segment of a relative image path, keeping the
// separators.
func escapePath(p string) string {
	segs := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
