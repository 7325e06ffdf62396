// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// FromRecord builds the tree for a persisted history record. A stored
// structured payload is rendered directly; otherwise the canonical text is
// parsed as a legacy report, falling back to raw display.
func FromRecord(rec types.HistoryRecord, logger *zap.Logger) Tree {
	if logger == nil {
		logger = zap.NewNop()
	}

	if rec.HasPayload() {
		resp, err := rec.Response()
		if err == nil && resp != nil {
			t := Render(resp)
			metrics.RenderSourceTotal.WithLabelValues(string(t.Source)).Inc()
			return t
		}
		logger.Warn("stored payload unreadable, falling back to text",
			zap.String("record_id", rec.ID), zap.Error(err))
	}

	t := ParseLegacy(rec.CanonicalText)
	metrics.RenderSourceTotal.WithLabelValues(string(t.Source)).Inc()
	switch t.Source {
	case SourceRaw:
		logger.Debug("history text not recognized as a report",
			zap.String("record_id", rec.ID), zap.Int("length", len(rec.CanonicalText)))
	case SourceLegacy:
		if t.Skipped > 0 {
			metrics.LegacySkippedBlocksTotal.Add(float64(t.Skipped))
			logger.Debug("skipped unparseable report items",
				zap.String("record_id", rec.ID), zap.Int("skipped", t.Skipped))
		}
	}
	return t
}
