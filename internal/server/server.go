// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes searches, history, report projections, and chat
// over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/analysis"
	"github.com/pdiddy/patent-report/internal/chat"
	"github.com/pdiddy/patent-report/internal/history"
	"github.com/pdiddy/patent-report/internal/logger"
	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/internal/patentapi"
	"github.com/pdiddy/patent-report/internal/pdfexport"
	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/pkg/types"
)

const maxUploadBytes = 10 << 20

// Runner executes a search. *analysis.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

// Asker answers chat messages. *chat.Assistant satisfies it.
type Asker interface {
	Ask(ctx context.Context, conversationID, message, contextText string) (string, error)
}

// Deps are the collaborators behind the HTTP surface. Chat and Gallery
// may be nil; their routes then answer 503.
type Deps struct {
	Search  Runner
	History history.Store
	Gallery report.GalleryFetcher
	Chat    Asker
	PDF     types.PDFConfig
	Logger  *zap.Logger
}

// Server holds the handlers.
type Server struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

// New creates a server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{deps: deps, logger: deps.Logger, now: time.Now}
}

// Routes returns the router with middleware installed.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Get("/history", s.listHistory)
		r.Route("/history/{id}", func(r chi.Router) {
			r.Get("/", s.getHistory)
			r.Delete("/", s.deleteHistory)
			r.Get("/report", s.historyReport)
			r.Get("/text", s.historyText)
			r.Get("/pdf", s.historyPDF)
		})
		r.Get("/patents/{pub}/images", s.patentImages)
		r.Post("/chat", s.chat)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Mode           analysis.Mode `json:"mode"`
	Text           string        `json:"text"`
	Threshold      *float64      `json:"similarity_threshold"`
	MaxResults     int           `json:"max_results"`
	ConversationID string        `json:"conversation_id"`
}

type searchResponse struct {
	RecordID string                `json:"record_id,omitempty"`
	Saved    bool                  `json:"saved"`
	Text     string                `json:"text"`
	Report   report.Tree           `json:"report"`
	Response *types.SearchResponse `json:"response"`
}

// search accepts JSON for text searches and multipart/form-data with a
// "file" part for image searches.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Search.Run(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	out := searchResponse{
		Saved:    res.Saved,
		Text:     res.Text,
		Report:   report.Render(res.Response),
		Response: res.Response,
	}
	if res.Saved {
		out.RecordID = res.Record.ID
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeSearch(r *http.Request) (analysis.Request, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return analysis.Request{}, fmt.Errorf("invalid multipart body: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return analysis.Request{}, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return analysis.Request{}, fmt.Errorf("reading upload: %w", err)
		}
		req := analysis.Request{
			Mode:           analysis.ModeImage,
			ImageName:      header.Filename,
			ImageData:      data,
			ConversationID: r.FormValue("conversation_id"),
		}
		if v := r.FormValue("similarity_threshold"); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return analysis.Request{}, fmt.Errorf("invalid similarity_threshold: %w", err)
			}
			req.Threshold = &t
		}
		if v := r.FormValue("max_results"); v != "" {
			if req.MaxResults, err = strconv.Atoi(v); err != nil {
				return analysis.Request{}, fmt.Errorf("invalid max_results: %w", err)
			}
		}
		return req, nil
	}

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return analysis.Request{}, fmt.Errorf("invalid request body: %w", err)
	}
	return analysis.Request{
		Mode:           body.Mode,
		Text:           body.Text,
		Threshold:      body.Threshold,
		MaxResults:     body.MaxResults,
		ConversationID: body.ConversationID,
	}, nil
}

// recordSummary is a history entry without its text and payload.
type recordSummary struct {
	ID                  string             `json:"id"`
	CreatedAt           time.Time          `json:"created_at"`
	Endpoint            string             `json:"endpoint"`
	InputType           types.InputType    `json:"input_type"`
	InputSummary        string             `json:"input_summary"`
	FileName            string             `json:"file_name,omitempty"`
	SimilarityThreshold float64            `json:"similarity_threshold"`
	MaxResults          int                `json:"max_results"`
	TotalReturned       int                `json:"total_returned"`
	Status              types.RecordStatus `json:"status"`
	Structured          bool               `json:"structured"`
}

func summarize(rec types.HistoryRecord) recordSummary {
	return recordSummary{
		ID:                  rec.ID,
		CreatedAt:           rec.CreatedAt,
		Endpoint:            rec.Endpoint,
		InputType:           rec.InputType,
		InputSummary:        rec.InputSummary,
		FileName:            rec.FileName,
		SimilarityThreshold: rec.SimilarityThreshold,
		MaxResults:          rec.MaxResults,
		TotalReturned:       rec.TotalReturned,
		Status:              rec.Status,
		Structured:          rec.HasPayload(),
	}
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := history.ListOptions{Query: q.Get("q"), Endpoint: q.Get("endpoint")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	recs, err := s.deps.History.List(r.Context(), opts)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	items := make([]recordSummary, len(recs))
	for i, rec := range recs {
		items[i] = summarize(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) (types.HistoryRecord, bool) {
	rec, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return rec, false
	}
	return rec, true
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.record(w, r); ok {
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) historyReport(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.record(w, r); ok {
		writeJSON(w, http.StatusOK, report.FromRecord(rec, logger.FromContext(r.Context())))
	}
}

func (s *Server) historyText(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rec.CanonicalText)
}

func (s *Server) historyPDF(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := pdfexport.Write(&buf, pdfexport.Document{Text: rec.CanonicalText, Title: s.deps.PDF.Title, Generated: now}); err != nil {
		s.handleError(w, r, fmt.Errorf("exporting PDF: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfexport.Filename(s.deps.PDF.Filename, now)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) patentImages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gallery == nil {
		writeError(w, http.StatusServiceUnavailable, "image gallery not configured")
		return
	}
	images, err := s.deps.Gallery.Gallery(r.Context(), chi.URLParam(r, "pub"), report.GalleryLimit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if images == nil {
		images = []types.PatentImage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	RecordID       string `json:"record_id"`
	Context        string `json:"context"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat not configured")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" || req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id and message are required")
		return
	}

	contextText := req.Context
	if req.RecordID != "" {
		rec, err := s.deps.History.Get(r.Context(), req.RecordID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		contextText = rec.CanonicalText
	}

	reply, err := s.deps.Chat.Ask(r.Context(), req.ConversationID, req.Message, contextText)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// handleError maps package sentinels to status codes. Unknown errors are
// logged and reported as 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	var apiErr *patentapi.APIError
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, patentapi.ErrInvalidResponse):
		log.Warn("upstream error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &apiErr):
		log.Warn("upstream error", zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("patent API returned %d", apiErr.Status))
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
