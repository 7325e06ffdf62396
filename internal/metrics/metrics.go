// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors shared by the API client,
// the report renderer, the history store, and the HTTP server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "patent_report"

var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search API calls by variant and outcome",
		},
		[]string{"variant", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search API call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"variant"},
	)

	GalleryFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_fetches_total",
			Help:      "Per-card image gallery fetches by outcome",
		},
		[]string{"status"},
	)

	// RenderSourceTotal counts how history records were presented:
	// structured, legacy (recovered from text), or raw.
	RenderSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_source_total",
			Help:      "Rendered results by source",
		},
		[]string{"source"},
	)

	LegacySkippedBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_skipped_blocks_total",
			Help:      "Legacy report item blocks that could not be parsed",
		},
	)

	HistoryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_operations_total",
			Help:      "History store operations by backend, operation, and outcome",
		},
		[]string{"backend", "op", "status"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Analysis chat calls by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		GalleryFetchesTotal,
		RenderSourceTotal,
		LegacySkippedBlocksTotal,
		HistoryOperationsTotal,
		ChatRequestsTotal,
	)
}

// Status maps an error to the "ok"/"error" label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
