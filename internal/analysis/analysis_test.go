// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-report/internal/patentapi"
	"github.com/pdiddy/patent-report/internal/report"
	"github.com/pdiddy/patent-report/pkg/types"
)

type fakeAPI struct {
	resp      *types.SearchResponse
	err       error
	useChunks bool
	params    patentapi.SearchParams
	image     string
	calls     int
}

func (f *fakeAPI) SearchByText(_ context.Context, text string, useChunks bool, p patentapi.SearchParams) (*types.SearchResponse, error) {
	f.calls++
	f.useChunks = useChunks
	f.params = p
	return f.resp, f.err
}

func (f *fakeAPI) SearchImages(_ context.Context, filename string, data []byte, p patentapi.SearchParams) (*types.SearchResponse, error) {
	f.calls++
	f.image = filename
	f.params = p
	return f.resp, f.err
}

type fakeRecorder struct {
	saved []types.HistoryRecord
	err   error
}

func (f *fakeRecorder) Save(_ context.Context, rec *types.HistoryRecord) error {
	if f.err != nil {
		return f.err
	}
	rec.ID = "rec-1"
	f.saved = append(f.saved, *rec)
	return nil
}

var defaults = types.SearchConfig{SimilarityThreshold: 0.5, MaxResults: 10}

func patentResponse() *types.SearchResponse {
	return &types.SearchResponse{
		Variant:             types.VariantSimilarity,
		TotalFound:          1,
		SimilarityThreshold: 0.5,
		Patents:             []types.RankedPatent{{PublicationNumber: "US1", Title: "Widget", SimilarityScore: 0.8}},
	}
}

// steppedClock advances by step on every call.
func steppedClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestRun_Text(t *testing.T) {
	api := &fakeAPI{resp: patentResponse()}
	rec := &fakeRecorder{}
	s := NewService(api, rec, defaults, 0, nil)
	s.now = steppedClock(250 * time.Millisecond)

	res, err := s.Run(context.Background(), Request{Text: "  a robotic lawn mower  ", ConversationID: "conv"})
	require.NoError(t, err)

	assert.False(t, api.useChunks)
	assert.Equal(t, patentapi.SearchParams{Threshold: 0.5, MaxResults: 10}, api.params)
	assert.Equal(t, report.Text(api.resp), res.Text)
	assert.True(t, res.Saved)

	require.Len(t, rec.saved, 1)
	got := rec.saved[0]
	assert.Equal(t, "rec-1", res.Record.ID)
	assert.Equal(t, patentapi.PathSearchByText, got.Endpoint)
	assert.Equal(t, types.InputText, got.InputType)
	assert.Equal(t, "a robotic lawn mower", got.InputSummary)
	assert.Equal(t, types.StatusSuccess, got.Status)
	assert.Equal(t, 1, got.TotalReturned)
	assert.Equal(t, int64(250), got.LatencyMS)
	assert.Equal(t, "conv", got.ConversationID)
	assert.Equal(t, res.Text, got.CanonicalText)
	assert.True(t, got.HasPayload())

	// The stored record renders the same tree as the live response.
	assert.Equal(t, report.Render(res.Response).Cards, report.FromRecord(got, nil).Cards)
}

func TestRun_Chunks(t *testing.T) {
	api := &fakeAPI{resp: &types.SearchResponse{Variant: types.VariantChunks}}
	s := NewService(api, &fakeRecorder{}, defaults, 0, nil)

	_, err := s.Run(context.Background(), Request{Mode: ModeChunks, Text: "x", Threshold: types.FloatPtr(0.7), MaxResults: 3})
	require.NoError(t, err)
	assert.True(t, api.useChunks)
	assert.Equal(t, patentapi.SearchParams{Threshold: 0.7, MaxResults: 3}, api.params)
}

func TestRun_ThresholdDefaults(t *testing.T) {
	tests := []struct {
		name      string
		threshold *float64
		want      float64
	}{
		{"unset uses default", nil, 0.5},
		{"explicit zero", types.FloatPtr(0), 0},
		{"explicit value", types.FloatPtr(0.8), 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{resp: patentResponse()}
			rec := &fakeRecorder{}
			s := NewService(api, rec, defaults, 0, nil)

			res, err := s.Run(context.Background(), Request{Text: "x", Threshold: tt.threshold})
			require.NoError(t, err)
			assert.Equal(t, tt.want, api.params.Threshold)
			assert.Equal(t, tt.want, res.Record.SimilarityThreshold)
		})
	}
}

func TestRun_Image(t *testing.T) {
	api := &fakeAPI{resp: &types.SearchResponse{Variant: types.VariantImages}}
	rec := &fakeRecorder{}
	s := NewService(api, rec, defaults, 0, nil)

	_, err := s.Run(context.Background(), Request{Mode: ModeImage, ImageName: "drawing.png", ImageData: []byte{0x89, 'P'}})
	require.NoError(t, err)
	assert.Equal(t, "drawing.png", api.image)

	require.Len(t, rec.saved, 1)
	assert.Equal(t, patentapi.PathImageSearch, rec.saved[0].Endpoint)
	assert.Equal(t, types.InputImage, rec.saved[0].InputType)
	assert.Equal(t, "drawing.png", rec.saved[0].FileName)
}

func TestRun_ErrorIsRecorded(t *testing.T) {
	apiErr := &patentapi.APIError{Status: 502, Path: patentapi.PathSearchByText, Body: "bad gateway"}
	api := &fakeAPI{err: apiErr}
	rec := &fakeRecorder{}
	s := NewService(api, rec, defaults, 0, nil)

	_, err := s.Run(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	var target *patentapi.APIError
	assert.True(t, errors.As(err, &target))

	require.Len(t, rec.saved, 1)
	assert.Equal(t, types.StatusError, rec.saved[0].Status)
	assert.Equal(t, apiErr.Error(), rec.saved[0].ErrorMessage)
	assert.Empty(t, rec.saved[0].CanonicalText)
	assert.Zero(t, rec.saved[0].TotalReturned)
}

func TestRun_PayloadLimit(t *testing.T) {
	rec := &fakeRecorder{}
	s := NewService(&fakeAPI{resp: patentResponse()}, rec, defaults, 16, nil)

	res, err := s.Run(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	require.Len(t, rec.saved, 1)
	assert.False(t, rec.saved[0].HasPayload())
	assert.Equal(t, res.Text, rec.saved[0].CanonicalText)

	// Text-only records still render through the legacy parser.
	tree := report.FromRecord(rec.saved[0], nil)
	assert.Equal(t, report.SourceLegacy, tree.Source)
	require.Len(t, tree.Cards, 1)
	assert.Equal(t, "Widget", tree.Cards[0].Title)
}

func TestRun_SaveFailureKeepsResult(t *testing.T) {
	s := NewService(&fakeAPI{resp: patentResponse()}, &fakeRecorder{err: errors.New("disk full")}, defaults, 0, nil)

	res, err := s.Run(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.NotEmpty(t, res.Text)
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty text", Request{Text: "   "}},
		{"unknown mode", Request{Mode: "audio", Text: "x"}},
		{"image without data", Request{Mode: ModeImage, ImageName: "a.png"}},
		{"threshold above one", Request{Text: "x", Threshold: types.FloatPtr(1.5)}},
		{"negative threshold", Request{Text: "x", Threshold: types.FloatPtr(-0.1)}},
		{"too many results", Request{Text: "x", MaxResults: 101}},
		{"negative results", Request{Text: "x", MaxResults: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{resp: patentResponse()}
			rec := &fakeRecorder{}
			s := NewService(api, rec, defaults, 0, nil)

			_, err := s.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, api.calls)
			assert.Empty(t, rec.saved)
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "solar panel", "solar panel"},
		{"exactly limit", strings.Repeat("a", SummaryLimit), strings.Repeat("a", SummaryLimit)},
		{"long", strings.Repeat("b", SummaryLimit+5), strings.Repeat("b", SummaryLimit) + "..."},
		{"trailing space trimmed", strings.Repeat("c", SummaryLimit-1) + " tail", strings.Repeat("c", SummaryLimit-1) + "..."},
		{"multibyte", strings.Repeat("ç", SummaryLimit+1), strings.Repeat("ç", SummaryLimit) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.in))
		})
	}
}
