package auditor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan_audit/internal/export"
	"loan_audit/internal/ports"
	"loan_audit/internal/services/auditor/pipeline"
	"loan_audit/internal/table"
)

// Inputs names the file paths of every input slot. The two ledgers accept
// several files each; they are stacked before the audit.
type Inputs struct {
	Collateral        []string `json:"collateral"`
	LoanTerms         []string `json:"loan_terms"`
	CollateralTypes   string   `json:"collateral_types,omitempty"`
	PurposeGroups     string   `json:"purpose_groups,omitempty"`
	Registry          string   `json:"registry,omitempty"`
	CashDisbursements string   `json:"cash_disbursements,omitempty"`
	Settlements       string   `json:"settlements,omitempty"`
	Disbursements     string   `json:"disbursements,omitempty"`
	LatePayments      string   `json:"late_payments,omitempty"`
}

// Paths lists the non-empty paths per slot.
func (in Inputs) Paths() map[string][]string {
	out := make(map[string][]string)
	add := func(slot string, paths ...string) {
		for _, p := range paths {
			if p = strings.TrimSpace(p); p != "" {
				out[slot] = append(out[slot], p)
			}
		}
	}
	add(pipeline.TableCollateral, in.Collateral...)
	add(pipeline.TableLoanTerms, in.LoanTerms...)
	add(pipeline.TableCollateralTypes, in.CollateralTypes)
	add(pipeline.TablePurposeGroups, in.PurposeGroups)
	add(pipeline.TableRegistry, in.Registry)
	add(pipeline.TableCashDisbursements, in.CashDisbursements)
	add(pipeline.TableSettlements, in.Settlements)
	add(pipeline.TableDisbursements, in.Disbursements)
	add(pipeline.TableLatePayments, in.LatePayments)
	return out
}

type Request struct {
	RunID          string
	Branch         string
	AuditedRegion  string
	AssessmentDate time.Time
	Inputs         Inputs
	OutputName     string
}

type Result struct {
	RunID     string
	Output    string
	Customers int
	Warnings  []string
	Inputs    []ports.InputInfo
	Duration  time.Duration
}

type Service struct {
	Opener   ports.FileOpener
	Store    ports.ResultStore
	Lookups  ports.LookupSource
	Recorder ports.RunRecorder

	Rules          pipeline.Rules
	AssessmentDate time.Time
	// Parallel bounds how many input files are read at once.
	Parallel int
}

func NewService(opener ports.FileOpener, store ports.ResultStore, lookups ports.LookupSource, recorder ports.RunRecorder, rules pipeline.Rules) *Service {
	return &Service{
		Opener:   opener,
		Store:    store,
		Lookups:  lookups,
		Recorder: recorder,
		Rules:    rules,
		Parallel: 4,
	}
}

// Validate checks what can be checked before any file is opened.
func (req Request) Validate() error {
	if strings.TrimSpace(req.Branch) == "" {
		return pipeline.ErrBranchRequired
	}
	paths := req.Inputs.Paths()
	for _, slot := range []string{pipeline.TableCollateral, pipeline.TableLoanTerms} {
		if len(paths[slot]) == 0 {
			return &pipeline.MissingTableError{Table: slot}
		}
	}
	return nil
}

// Run performs one audit: load every input, run the pipeline, write the
// workbook and record the outcome.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	t0 := time.Now()
	ctx = context.WithValue(ctx, ports.CtxRunID, req.RunID)
	log.Printf("[AUDIT][RUN][START] run_id=%s branch=%q region=%q", req.RunID, req.Branch, req.AuditedRegion)

	if err := req.Validate(); err != nil {
		s.finish(ctx, req.RunID, Result{RunID: req.RunID}, err)
		return Result{RunID: req.RunID}, err
	}
	if s.Recorder != nil {
		if err := s.Recorder.Start(ctx, req.RunID); err != nil {
			log.Printf("[AUDIT][RUN][WARN] run_id=%s mark running: %v", req.RunID, err)
		}
	}

	res, err := s.run(ctx, req)
	s.finish(ctx, req.RunID, res, err)
	if err != nil {
		log.Printf("[AUDIT][RUN][ERR] run_id=%s err=%v took=%s", req.RunID, err, time.Since(t0))
		return res, err
	}
	log.Printf("[AUDIT][RUN][DONE] run_id=%s customers=%d warnings=%d output=%q took=%s",
		req.RunID, res.Customers, len(res.Warnings), res.Output, res.Duration)
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request) (Result, error) {
	t0 := time.Now()
	res := Result{RunID: req.RunID}

	tables, infos, loadWarnings, err := s.loadAll(ctx, req.Inputs)
	res.Inputs = infos
	res.Warnings = append(res.Warnings, loadWarnings...)
	if err != nil {
		res.Duration = time.Since(t0)
		return res, err
	}

	in := pipeline.Inputs{
		Collateral:        tables[pipeline.TableCollateral],
		LoanTerms:         tables[pipeline.TableLoanTerms],
		CollateralTypes:   tables[pipeline.TableCollateralTypes],
		PurposeGroups:     tables[pipeline.TablePurposeGroups],
		Registry:          tables[pipeline.TableRegistry],
		CashDisbursements: tables[pipeline.TableCashDisbursements],
		Settlements:       tables[pipeline.TableSettlements],
		Disbursements:     tables[pipeline.TableDisbursements],
		LatePayments:      tables[pipeline.TableLatePayments],
	}
	res.Warnings = append(res.Warnings, s.fillLookups(ctx, &in)...)

	date := req.AssessmentDate
	if date.IsZero() {
		date = s.AssessmentDate
	}
	params := pipeline.Params{
		Branch:         req.Branch,
		AuditedRegion:  req.AuditedRegion,
		AssessmentDate: date,
		Rules:          s.Rules,
	}
	if s.Recorder != nil {
		params.Inspect = func(stage string, sheet table.Sheet) {
			s.Recorder.Item(ctx, req.RunID, stage, ports.ItemInspect, sheet.Name, len(sheet.Rows))
		}
	}

	out, err := pipeline.Run(in, params)
	if err != nil {
		res.Duration = time.Since(t0)
		return res, err
	}
	res.Customers = len(out.Master)
	res.Warnings = append(res.Warnings, out.Warnings...)
	if err := ctx.Err(); err != nil {
		res.Duration = time.Since(t0)
		return res, err
	}

	data, err := export.Workbook(out.Sheets())
	switch {
	case errors.Is(err, export.ErrNothingToWrite):
		res.Warnings = append(res.Warnings, "every result table is empty; no workbook written")
	case err != nil:
		res.Duration = time.Since(t0)
		return res, fmt.Errorf("export: %w", err)
	default:
		name := req.OutputName
		if name == "" {
			name = OutputName(out.Branch, out.AssessmentDate, req.RunID)
		}
		loc, err := s.Store.Save(ctx, name, data)
		if err != nil {
			res.Duration = time.Since(t0)
			return res, fmt.Errorf("save result: %w", err)
		}
		res.Output = loc
	}

	res.Duration = time.Since(t0)
	return res, nil
}

// OutputName is the default workbook name of a run.
func OutputName(branch string, date time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("KQ_KH_%s_%s_%s.xlsx", strings.ToUpper(strings.TrimSpace(branch)), date.Format("20060102"), short)
}

// fillLookups reads the code maps from the lookup source when no file was
// given for them.
func (s *Service) fillLookups(ctx context.Context, in *pipeline.Inputs) []string {
	if s.Lookups == nil {
		return nil
	}
	var warnings []string
	fill := func(dst **table.Table, name string, header []string, get func(context.Context) ([]ports.CodeMapping, error)) {
		if *dst != nil {
			return
		}
		rows, err := get(ctx)
		if err != nil {
			msg := fmt.Sprintf("lookup %q unavailable: %v", name, err)
			log.Printf("[AUDIT][LOOKUP][WARN] %s", msg)
			warnings = append(warnings, msg)
			return
		}
		if len(rows) == 0 {
			return
		}
		*dst = mappingTable(name, header, rows)
		log.Printf("[AUDIT][LOOKUP] table=%s rows=%d source=lookup", name, len(rows))
	}
	fill(&in.CollateralTypes, pipeline.TableCollateralTypes, pipeline.CollateralTypesHeader, s.Lookups.CollateralTypes)
	fill(&in.PurposeGroups, pipeline.TablePurposeGroups, pipeline.PurposeGroupsHeader, s.Lookups.PurposeGroups)
	return warnings
}

func mappingTable(name string, header []string, rows []ports.CodeMapping) *table.Table {
	t := table.New(name, header)
	for _, m := range rows {
		t.Rows = append(t.Rows, table.Row{header[0]: m.Code, header[1]: m.Value})
	}
	return t
}

// finish records the outcome. It runs on a fresh context so a run that timed
// out is still recorded.
func (s *Service) finish(ctx context.Context, runID string, res Result, runErr error) {
	if s.Recorder == nil {
		return
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	for _, w := range res.Warnings {
		s.Recorder.Item(fctx, runID, "warning", ports.ItemWarning, w, 0)
	}
	out := ports.RunOutcome{
		Status:    ports.RunDone,
		Output:    res.Output,
		Customers: res.Customers,
		Warnings:  len(res.Warnings),
		Inputs:    res.Inputs,
	}
	if runErr != nil {
		out.Status = ports.RunFailed
		out.Error = runErr.Error()
	}
	if err := s.Recorder.Finish(fctx, runID, out); err != nil {
		log.Printf("[AUDIT][RUN][WARN] run_id=%s record outcome: %v", runID, err)
	}
}
