package auditor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"loan_audit/internal/ports"
	"loan_audit/internal/services/auditor/pipeline"
	"loan_audit/internal/table"
)

var ErrUnknownLookup = errors.New("unknown lookup kind")

// ImportLookup reads a code-mapping spreadsheet and stores it as the
// current content of kind.
func (s *Service) ImportLookup(ctx context.Context, w ports.LookupWriter, kind, path string) (int, error) {
	var header []string
	switch kind {
	case ports.LookupCollateralTypes:
		header = pipeline.CollateralTypesHeader
	case ports.LookupPurposeGroups:
		header = pipeline.PurposeGroupsHeader
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLookup, kind)
	}

	t, _, err := s.loadOne(ctx, job{slot: kind, path: path})
	if err != nil {
		return 0, err
	}
	if c := t.HasAll(header...); c != "" {
		return 0, fmt.Errorf("%w: %s.%s", pipeline.ErrMissingColumn, kind, c)
	}
	rows := mappings(t, header[0], header[1])
	n, err := w.Replace(ctx, kind, rows)
	if err != nil {
		return 0, err
	}
	log.Printf("[AUDIT][LOOKUP][IMPORT] kind=%s path=%q rows=%d stored=%d", kind, path, len(rows), n)
	return n, nil
}

func mappings(t *table.Table, keyCol, valCol string) []ports.CodeMapping {
	out := make([]ports.CodeMapping, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, ports.CodeMapping{Code: r.Get(keyCol), Value: r.Get(valCol)})
	}
	return out
}
