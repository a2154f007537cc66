package pipeline

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"loan_audit/internal/models"
	"loan_audit/internal/table"
)

// Input slots. The names double as the labels used in error messages.
const (
	TableCollateral        = "collateral"
	TableLoanTerms         = "loan_terms"
	TableCollateralTypes   = "collateral_types"
	TablePurposeGroups     = "purpose_groups"
	TableRegistry          = "registry"
	TableCashDisbursements = "cash_disbursements"
	TableSettlements       = "settlements"
	TableDisbursements     = "disbursements"
	TableLatePayments      = "late_payments"
)

var (
	ErrMissingTable   = errors.New("required table missing")
	ErrMissingColumn  = errors.New("required column missing")
	ErrBranchRequired = errors.New("branch filter is required")
)

type MissingTableError struct{ Table string }

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("required table %q is missing or unreadable", e.Table)
}

func (e *MissingTableError) Unwrap() error { return ErrMissingTable }

// Inputs are the tables of one run. Only Collateral and LoanTerms are required.
type Inputs struct {
	Collateral        *table.Table
	LoanTerms         *table.Table
	CollateralTypes   *table.Table
	PurposeGroups     *table.Table
	Registry          *table.Table
	CashDisbursements *table.Table
	Settlements       *table.Table
	Disbursements     *table.Table
	LatePayments      *table.Table
}

// InspectFunc receives the intermediate table of a stage once it completes.
type InspectFunc func(stage string, sheet table.Sheet)

type Params struct {
	// Branch is matched case-insensitively as a substring of the branch code.
	Branch string
	// AuditedRegion is the province under audit; empty disables the
	// off-region check.
	AuditedRegion string
	// AssessmentDate anchors valuation and lateness arithmetic.
	AssessmentDate time.Time
	Rules          Rules
	Inspect        InspectFunc
}

// DefaultAssessmentDate is the reference date of the 2025 audit cycle.
var DefaultAssessmentDate = time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

type Result struct {
	Branch         string
	AuditedRegion  string
	AssessmentDate time.Time
	TopN           int

	Master []*models.CustomerMaster
	Layout Layout

	Collateral       []models.LoanCollateralRow
	CollateralHeader []string
	ExposurePivot    *Pivot
	ValuePivot       *Pivot

	LoanTerms       []models.LoanTermsRow
	LoanTermsHeader []string
	PurposePivot    *Pivot

	Valuations     []models.ValuationRow
	RegionMatches  []models.RealEstateCollateralRow
	RegistryHeader []string
	Events         []models.DisbursementSettlementEvent
	EventCounts    []models.SameDayCount
	Delays         []models.PaymentDelayRecord

	Warnings []string
}

// Layout is the ordered set of data-dependent master columns.
type Layout struct {
	ExposureCategories []string
	ValueCategories    []string
	PurposeGroups      []string
}

type run struct {
	in    Inputs
	p     Params
	rules Rules
	res   *Result
	index map[models.CustomerID]*models.CustomerMaster
}

// Run executes the whole audit over in-memory tables. Missing required input
// aborts with an error; missing auxiliary input degrades the affected flag to
// its neutral value and adds a warning.
func Run(in Inputs, p Params) (*Result, error) {
	t0 := time.Now()
	p.Branch = strings.ToUpper(strings.TrimSpace(p.Branch))
	p.AuditedRegion = lower(p.AuditedRegion)
	if p.Branch == "" {
		return nil, ErrBranchRequired
	}
	if p.AssessmentDate.IsZero() {
		p.AssessmentDate = DefaultAssessmentDate
	}
	if p.Rules.BlankLabel == "" {
		p.Rules = DefaultRules()
	}
	if err := p.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if in.Collateral == nil {
		return nil, &MissingTableError{Table: TableCollateral}
	}
	if in.LoanTerms == nil {
		return nil, &MissingTableError{Table: TableLoanTerms}
	}
	if c := in.Collateral.HasAll(colCollBranch, colCollCustomer, colCollFacility, colCollCode, colCollValue, colCollExposure); c != "" {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingColumn, TableCollateral, c)
	}
	if c := in.LoanTerms.HasAll(colTermsBranch, colTermsCustomer, colTermsExposure); c != "" {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingColumn, TableLoanTerms, c)
	}

	r := &run{
		in:    in,
		p:     p,
		rules: p.Rules,
		res: &Result{
			Branch:         p.Branch,
			AuditedRegion:  p.AuditedRegion,
			AssessmentDate: p.AssessmentDate,
			TopN:           p.Rules.TopN,
		},
		index: make(map[models.CustomerID]*models.CustomerMaster),
	}
	log.Printf("[AUDIT][START] branch=%q region=%q assessment_date=%s collateral_rows=%d loan_terms_rows=%d",
		p.Branch, p.AuditedRegion, p.AssessmentDate.Format("2006-01-02"), in.Collateral.Len(), in.LoanTerms.Len())

	r.filterBranch()
	r.classifyCollateral()
	r.pivotCollateral()
	r.buildMaster()
	r.classifyPurpose()
	r.mergePurpose()
	r.reconcileBlankPurpose()

	r.flagDebtGroups()
	r.flagApprovalAuthority()
	r.flagRestructured()
	r.sumGuaranteeAndLC()
	r.flagCashDisbursement()
	r.flagCrossPledge()
	r.flagTopExposure()
	r.flagStaleValuation()
	r.flagOffRegion()
	r.flagSameDay()
	r.flagLatePayment()
	r.inspect("flags", r.res.MasterSheet())

	log.Printf("[AUDIT][DONE] customers=%d warnings=%d duration=%s", len(r.res.Master), len(r.res.Warnings), time.Since(t0))
	return r.res, nil
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[AUDIT][WARN] %s", msg)
	r.res.Warnings = append(r.res.Warnings, msg)
}

func (r *run) inspect(stage string, sheet table.Sheet) {
	if r.p.Inspect == nil {
		return
	}
	r.p.Inspect(stage, sheet)
}

// customerSet flags every master row whose customer is in ids.
func (r *run) customerSet(ids map[models.CustomerID]bool, set func(*models.Flags)) int {
	n := 0
	for _, m := range r.res.Master {
		if ids[m.Customer] {
			set(&m.Flags)
			n++
		}
	}
	return n
}
