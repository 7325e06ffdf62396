// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/patent-report/internal/analysis"
	"github.com/pdiddy/patent-report/pkg/types"
)

func TestWriteSaveStatus(t *testing.T) {
	rec := types.HistoryRecord{ID: "rec-1"}
	tests := []struct {
		name    string
		res     analysis.Result
		want    string
		notWant string
	}{
		{"saved", analysis.Result{Record: rec, Saved: true}, "Saved as rec-1", "warning"},
		{"not saved", analysis.Result{Record: rec}, "not saved to history", "Saved as"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeSaveStatus(&buf, tt.res)
			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), tt.notWant)
		})
	}
}
