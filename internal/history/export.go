// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/patent-report/pkg/types"
)

// ExportEntry is one record as written by ExportYAML. The structured
// payload is reduced to a flag; the canonical text carries the content.
type ExportEntry struct {
	types.HistoryRecord `yaml:",inline"`
	Structured          bool `yaml:"structured"`
}

const exportLimit = 100000

// ExportYAML writes the records matching opts to w as a YAML list, newest
// first. A zero opts.Limit exports every record.
func ExportYAML(ctx context.Context, store Store, opts ListOptions, w io.Writer) (int, error) {
	if opts.Limit <= 0 {
		opts.Limit = exportLimit
	}
	records, err := store.List(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, rec := range records {
		entries[i] = ExportEntry{HistoryRecord: rec, Structured: rec.HasPayload()}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	return len(entries), nil
}
