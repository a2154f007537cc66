package auditor

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"loan_audit/internal/ports"
	"loan_audit/internal/services/auditor/pipeline"
	"loan_audit/internal/table"
)

// slotOrder fixes the order inputs are reported in.
var slotOrder = []string{
	pipeline.TableCollateral,
	pipeline.TableLoanTerms,
	pipeline.TableCollateralTypes,
	pipeline.TablePurposeGroups,
	pipeline.TableRegistry,
	pipeline.TableCashDisbursements,
	pipeline.TableSettlements,
	pipeline.TableDisbursements,
	pipeline.TableLatePayments,
}

type job struct {
	slot string
	path string
}

func required(slot string) bool {
	return slot == pipeline.TableCollateral || slot == pipeline.TableLoanTerms
}

// loadAll opens and parses every input file, at most Parallel at a time, and
// stacks the files of each slot in the order they were given. Only the two
// ledgers are required: an auxiliary file that cannot be read leaves its slot
// empty and comes back as a warning.
func (s *Service) loadAll(ctx context.Context, in Inputs) (map[string]*table.Table, []ports.InputInfo, []string, error) {
	t0 := time.Now()
	paths := in.Paths()
	var jobs []job
	for _, slot := range slotOrder {
		for _, p := range paths[slot] {
			jobs = append(jobs, job{slot: slot, path: p})
		}
	}

	parsed := make([]*table.Table, len(jobs))
	infos := make([]ports.InputInfo, len(jobs))
	skipped := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if s.Parallel > 0 {
		g.SetLimit(s.Parallel)
	}
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			t, info, err := s.loadOne(gctx, j)
			if err != nil {
				if required(j.slot) || gctx.Err() != nil {
					return err
				}
				skipped[i] = err
				return nil
			}
			parsed[i], infos[i] = t, info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var warnings []string
	loaded := make([]ports.InputInfo, 0, len(jobs))
	bySlot := make(map[string][]*table.Table)
	for i, j := range jobs {
		if skipped[i] != nil {
			msg := fmt.Sprintf("optional input %s skipped: %v", j.slot, skipped[i])
			log.Printf("[AUDIT][LOAD][WARN] %s", msg)
			warnings = append(warnings, msg)
			continue
		}
		loaded = append(loaded, infos[i])
		bySlot[j.slot] = append(bySlot[j.slot], parsed[i])
	}
	out := make(map[string]*table.Table, len(bySlot))
	for slot, parts := range bySlot {
		if len(parts) == 1 {
			out[slot] = parts[0]
			continue
		}
		out[slot] = table.Concat(slot, parts...)
	}
	log.Printf("[AUDIT][LOAD] files=%d slots=%d duration=%s", len(jobs), len(out), time.Since(t0))
	return out, loaded, warnings, nil
}

func (s *Service) loadOne(ctx context.Context, j job) (*table.Table, ports.InputInfo, error) {
	rc, meta, err := s.Opener.Open(ctx, j.path)
	if err != nil {
		return nil, ports.InputInfo{}, fmt.Errorf("open %s (%s): %w", j.slot, j.path, err)
	}
	defer rc.Close()

	name := meta.Path
	if name == "" {
		name = j.path
	}
	l, err := table.Load(ctx, j.slot, rc, name, meta.ContentType)
	if err != nil {
		return nil, ports.InputInfo{}, fmt.Errorf("load %s (%s): %w", j.slot, j.path, err)
	}
	return l.Table, ports.InputInfo{
		Slot:   j.slot,
		Path:   j.path,
		Source: meta.Source,
		Format: l.Format,
		SHA256: l.SHA256,
		Rows:   l.Table.Len(),
		Bytes:  l.Bytes,
	}, nil
}
