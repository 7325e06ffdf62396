// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis runs one search end to end: it calls the patent API,
// flattens the response to the canonical report text, and records the
// request in history whether it succeeded or not.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/history"
	"github.com/pdiddy/patent-report/internal/patentapi"
	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/pkg/types"
)

// Mode selects the search endpoint.
type Mode string

const (
	ModeText   Mode = "text"
	ModeChunks Mode = "chunks"
	ModeImage  Mode = "image"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeText, ModeChunks, ModeImage:
		return true
	}
	return false
}

// SummaryLimit is the number of characters of the input kept in a record's
// input summary.
const SummaryLimit = 60

const maxResultsCap = 100

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Searcher is the part of the patent API the service calls.
type Searcher interface {
	SearchByText(ctx context.Context, text string, useChunks bool, p patentapi.SearchParams) (*types.SearchResponse, error)
	SearchImages(ctx context.Context, filename string, data []byte, p patentapi.SearchParams) (*types.SearchResponse, error)
}

// Recorder persists history records. history.Store satisfies it.
type Recorder interface {
	Save(ctx context.Context, rec *types.HistoryRecord) error
}

// Request is one search submitted by the user.
type Request struct {
	Mode           Mode
	Text           string
	ImageName      string
	ImageData      []byte
	// Threshold is nil to use the configured default; zero is a valid
	// threshold.
	Threshold      *float64
	MaxResults     int
	ConversationID string
}

// Result is a completed search.
type Result struct {
	Record   types.HistoryRecord
	Response *types.SearchResponse
	Text     string
	// Saved is false when the history write failed; the result is still valid.
	Saved bool
}

// Service runs searches.
type Service struct {
	api        Searcher
	recorder   Recorder
	defaults   types.SearchConfig
	maxPayload int
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the API client and history store. recorder may be nil to
// disable history.
func NewService(api Searcher, recorder Recorder, defaults types.SearchConfig, maxPayload int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:        api,
		recorder:   recorder,
		defaults:   defaults,
		maxPayload: maxPayload,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes req. A failed search is still written to history with its
// error and latency before the error is returned.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if err := s.normalize(&req); err != nil {
		return Result{}, err
	}

	threshold := *req.Threshold
	params := patentapi.SearchParams{Threshold: threshold, MaxResults: req.MaxResults}
	rec := types.HistoryRecord{
		InputType:           types.InputText,
		InputSummary:        Summarize(req.Text),
		SimilarityThreshold: threshold,
		MaxResults:          req.MaxResults,
		ConversationID:      req.ConversationID,
	}

	start := s.now()
	var (
		resp *types.SearchResponse
		err  error
	)
	switch req.Mode {
	case ModeImage:
		rec.Endpoint = patentapi.PathImageSearch
		rec.InputType = types.InputImage
		rec.InputSummary = req.ImageName
		rec.FileName = req.ImageName
		resp, err = s.api.SearchImages(ctx, req.ImageName, req.ImageData, params)
	default:
		rec.Endpoint = patentapi.PathSearchByText
		resp, err = s.api.SearchByText(ctx, req.Text, req.Mode == ModeChunks, params)
	}
	rec.LatencyMS = s.now().Sub(start).Milliseconds()

	if err != nil {
		rec.Status = types.StatusError
		rec.ErrorMessage = err.Error()
		s.save(ctx, &rec)
		return Result{}, fmt.Errorf("%s search: %w", req.Mode, err)
	}

	text := report.Text(resp)
	rec.Status = types.StatusSuccess
	rec.TotalReturned = resp.Len()
	rec.CanonicalText = text
	payload, perr := history.EncodePayload(resp, s.maxPayload)
	if perr != nil {
		s.logger.Warn("structured payload not stored", zap.Error(perr))
	} else if payload == nil {
		s.logger.Info("structured payload over size limit, storing text only",
			zap.Int("max_payload_bytes", s.maxPayload))
	}
	rec.Payload = payload

	saved := s.save(ctx, &rec)
	return Result{Record: rec, Response: resp, Text: text, Saved: saved}, nil
}

func (s *Service) save(ctx context.Context, rec *types.HistoryRecord) bool {
	if s.recorder == nil {
		return false
	}
	if err := s.recorder.Save(ctx, rec); err != nil {
		s.logger.Warn("saving history record failed",
			zap.String("endpoint", rec.Endpoint),
			zap.String("status", string(rec.Status)),
			zap.Error(err))
		return false
	}
	return true
}

func (s *Service) normalize(req *Request) error {
	if req.Mode == "" {
		req.Mode = ModeText
	}
	if !req.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
	switch req.Mode {
	case ModeImage:
		if len(req.ImageData) == 0 {
			return fmt.Errorf("%w: image data is empty", ErrInvalidRequest)
		}
		if req.ImageName == "" {
			req.ImageName = "image"
		}
	default:
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			return fmt.Errorf("%w: text is empty", ErrInvalidRequest)
		}
	}

	threshold := s.defaults.SimilarityThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: similarity threshold %.2f outside [0,1]", ErrInvalidRequest, threshold)
	}
	req.Threshold = &threshold
	if req.MaxResults == 0 {
		req.MaxResults = s.defaults.MaxResults
	}
	if req.MaxResults < 1 || req.MaxResults > maxResultsCap {
		return fmt.Errorf("%w: max results %d outside [1,%d]", ErrInvalidRequest, req.MaxResults, maxResultsCap)
	}
	return nil
}

// Summarize shortens text to the history preview: the first SummaryLimit
// characters followed by "..." when longer.
func Summarize(text string) string {
	r := []rune(text)
	if len(r) <= SummaryLimit {
		return text
	}
	return strings.TrimSpace(string(r[:SummaryLimit])) + "..."
}
