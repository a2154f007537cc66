package pipeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan_audit/internal/models"
	"loan_audit/internal/table"
)

// Workbook sheet names.
const (
	SheetCollateral      = "df_crm4_LOAI_TS"
	SheetCollateralKQ    = "KQ_CRM4"
	SheetCollateralPivot = "Pivot_crm4"
	SheetLoanTerms       = "df_crm32_MUC_DICH"
	SheetMaster          = "KQ_KH"
	SheetPurposePivot    = "Pivot_crm32"
	SheetDelays          = "tieu chi 4 (cham tra)"
	SheetEvents          = "tieu chi 3 (gop GN TT)"
	SheetEventCounts     = "tieu chi 3 (dem GN TT)"
	SheetRegion          = "tieu chi 2 (BDS khac DB)"
	SheetValuation       = "tieu chi 1"
)

// Sheets returns every output table in workbook order. Empty tables are
// included; the exporter decides whether to skip them.
func (res *Result) Sheets() []table.Sheet {
	return []table.Sheet{
		res.CollateralSheet(),
		res.CollateralMasterSheet(),
		res.CollateralPivotSheet(),
		res.LoanTermsSheet(),
		res.MasterSheet(),
		res.PurposePivotSheet(),
		res.DelaySheet(),
		res.EventSheet(),
		res.EventCountSheet(),
		res.RegionSheet(),
		res.ValuationSheet(),
	}
}

func mark(b bool) string {
	if b {
		return "x"
	}
	return ""
}

func dateCell(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// withDerived appends derived columns to a source header, dropping source
// columns of the same name so the derived value wins.
func withDerived(src []string, derived ...string) []string {
	drop := make(map[string]bool, len(derived))
	for _, d := range derived {
		drop[d] = true
	}
	out := make([]string, 0, len(src)+len(derived))
	for _, h := range src {
		if !drop[h] {
			out = append(out, h)
		}
	}
	return append(out, derived...)
}

func sourceCells(header []string, row table.Row, n int) []any {
	cells := make([]any, 0, len(header))
	for _, h := range header[:n] {
		cells = append(cells, row[h])
	}
	return cells
}

func (res *Result) CollateralSheet() table.Sheet {
	h := withDerived(res.CollateralHeader, colCollType, colCollNote)
	s := table.Sheet{Name: SheetCollateral, Header: h}
	for _, lc := range res.Collateral {
		cells := sourceCells(h, lc.Source, len(h)-2)
		var typ any
		if lc.CollateralType != "" {
			typ = lc.CollateralType
		}
		s.Rows = append(s.Rows, append(cells, typ, lc.Note))
	}
	return s
}

func (res *Result) LoanTermsSheet() table.Sheet {
	h := withDerived(res.LoanTermsHeader, colTermsApprCode, colTermsGroup, colTermsNote)
	s := table.Sheet{Name: SheetLoanTerms, Header: h}
	for _, lt := range res.LoanTerms {
		cells := sourceCells(h, lt.Source, len(h)-3)
		s.Rows = append(s.Rows, append(cells, approvalPrefix(lt.ApprovalCode), lt.PurposeGroup, lt.Note))
	}
	return s
}

func pivotSheet(name, key string, parts ...pivotPart) table.Sheet {
	h := []string{key}
	for _, p := range parts {
		for _, c := range p.pivot.Categories() {
			h = append(h, c+p.suffix)
		}
	}
	for _, p := range parts {
		if p.total != "" {
			h = append(h, p.total)
		}
	}
	s := table.Sheet{Name: name, Header: h}
	if len(parts) == 0 {
		return s
	}
	for _, id := range parts[0].pivot.Customers() {
		row := []any{id.String()}
		for _, p := range parts {
			for _, c := range p.pivot.Categories() {
				row = append(row, p.pivot.Get(id, c))
			}
		}
		for _, p := range parts {
			if p.total != "" {
				row = append(row, p.pivot.Total(id))
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

type pivotPart struct {
	pivot  *Pivot
	suffix string
	total  string
}

func (res *Result) CollateralPivotSheet() table.Sheet {
	if res.ExposurePivot == nil {
		return table.Sheet{Name: SheetCollateralPivot, Header: []string{colCollCustomer, outTotalValue, outTotalExposure}}
	}
	return pivotSheet(SheetCollateralPivot, colCollCustomer,
		pivotPart{pivot: res.ExposurePivot, total: outTotalExposure},
		pivotPart{pivot: res.ValuePivot, suffix: outValueSuffix, total: outTotalValue},
	)
}

func (res *Result) PurposePivotSheet() table.Sheet {
	if res.PurposePivot == nil {
		return table.Sheet{Name: SheetPurposePivot, Header: []string{colTermsCustomer, outPurposeTotal}}
	}
	return pivotSheet(SheetPurposePivot, colTermsCustomer, pivotPart{pivot: res.PurposePivot, total: outPurposeTotal})
}

// purposeColumns names purpose-group columns, suffixing any label that would
// clash with a collateral-side column.
func (res *Result) purposeColumns(taken map[string]bool) []string {
	out := make([]string, 0, len(res.Layout.PurposeGroups))
	for _, g := range res.Layout.PurposeGroups {
		if taken[g] {
			g += outPurposeSuffix
		}
		out = append(out, g)
	}
	return out
}

func (res *Result) collateralHeader() []string {
	h := []string{outSeq, colCollSegment, colCollCustomer, colCollName, colCollDebtGroup}
	h = append(h, res.Layout.ExposureCategories...)
	for _, c := range res.Layout.ValueCategories {
		h = append(h, c+outValueSuffix)
	}
	return append(h, outTotalExposure, outTotalValue)
}

func (res *Result) collateralCells(m *models.CustomerMaster) []any {
	row := []any{m.Seq, m.Segment, m.Customer.String(), m.Name, m.DebtGroup}
	for _, c := range res.Layout.ExposureCategories {
		row = append(row, m.Exposure[c])
	}
	for _, c := range res.Layout.ValueCategories {
		row = append(row, m.CollateralValue[c])
	}
	return append(row, m.TotalExposure, m.TotalCollateralValue)
}

// CollateralMasterSheet is the customer table as it stands after the
// collateral-side merge, before purpose data and flags.
func (res *Result) CollateralMasterSheet() table.Sheet {
	s := table.Sheet{Name: SheetCollateralKQ, Header: res.collateralHeader()}
	for _, m := range res.Master {
		s.Rows = append(s.Rows, res.collateralCells(m))
	}
	return s
}

func (res *Result) topLabel(segment string) string {
	n := res.TopN
	if n == 0 {
		n = DefaultRules().TopN
	}
	return fmt.Sprintf("Top %d dư nợ %s", n, segment)
}

func (res *Result) MasterSheet() table.Sheet {
	h := res.collateralHeader()
	taken := make(map[string]bool, len(h))
	for _, c := range h {
		taken[c] = true
	}
	h = append(h, res.purposeColumns(taken)...)
	h = append(h,
		outPurposeTotal, outMismatch,
		outDebtGroup2, outBadDebt, outApprovalC, outRestructured,
		outGuarantee, outLC, outCash, outCrossPledge,
		res.topLabel("KHCN"), res.topLabel("KHDN"),
		outStale, outOffRegion, outSameDay, outLateOver10, outLate4to9,
	)

	s := table.Sheet{Name: SheetMaster, Header: h}
	for _, m := range res.Master {
		row := res.collateralCells(m)
		for _, g := range res.Layout.PurposeGroups {
			row = append(row, m.PurposeExposure[g])
		}
		f := m.Flags
		row = append(row,
			m.PurposeTotal, m.Mismatch,
			mark(f.DebtGroup2), mark(f.BadDebt), mark(f.ApprovalC), mark(f.Restructured),
			m.GuaranteeExposure, m.LCExposure, mark(f.CashDisbursement), mark(f.CrossPledge),
			mark(f.TopIndividual), mark(f.TopCorporate),
			mark(f.StaleValuation), mark(f.OffRegion), mark(f.SameDay), mark(f.LateOver10), mark(f.Late4to9),
		)
		s.Rows = append(s.Rows, row)
	}
	return s
}

func (res *Result) ValuationSheet() table.Sheet {
	s := table.Sheet{
		Name:   SheetValuation,
		Header: []string{colCollCustomer, colCollSerial, colCollType, colCollValuation, colCollDaysStale, outStale},
	}
	for _, v := range res.Valuations {
		var days any
		if v.DaysOverdue != nil {
			days = *v.DaysOverdue
		}
		s.Rows = append(s.Rows, []any{v.Customer.String(), v.Serial, v.CollateralType, dateCell(v.ValuationDate), days, mark(v.Stale)})
	}
	return s
}

func (res *Result) RegionSheet() table.Sheet {
	h := withDerived(res.RegistryHeader, outProvince, outOffRegionRow)
	s := table.Sheet{Name: SheetRegion, Header: h}
	for _, m := range res.RegionMatches {
		cells := sourceCells(h, m.Source, len(h)-2)
		s.Rows = append(s.Rows, append(cells, m.Province, mark(m.OffRegion)))
	}
	return s
}

func (res *Result) EventSheet() table.Sheet {
	s := table.Sheet{
		Name: SheetEvents,
		Header: []string{
			colDisbCustomer, colDisbName, colDisbContract, colDisbAmount,
			colDisbDate, colDisbMaturity, colSettleDate, colDisbCurrency, outEventKind, outEventDate,
		},
	}
	for _, ev := range res.Events {
		s.Rows = append(s.Rows, []any{
			ev.Customer.String(), ev.CustomerName, ev.ContractRef, ev.Amount,
			dateCell(ev.DisbursedOn), dateCell(ev.MaturesOn), dateCell(ev.SettledOn), ev.Currency,
			string(ev.Type), ev.Date,
		})
	}
	return s
}

func (res *Result) EventCountSheet() table.Sheet {
	s := table.Sheet{
		Name:   SheetEventCounts,
		Header: []string{colDisbCustomer, outEventDate, string(models.EventDisbursement), string(models.EventSettlement), outBothSameDay},
	}
	for _, c := range res.EventCounts {
		both := 0
		if c.Both() {
			both = 1
		}
		s.Rows = append(s.Rows, []any{c.Customer.String(), c.Date, c.Disbursements, c.Settlements, both})
	}
	return s
}

func (res *Result) DelaySheet() table.Sheet {
	s := table.Sheet{
		Name: SheetDelays,
		Header: []string{
			colDelayCustomer, colDelayDue, colDelayPaid, outEffectivePaid,
			outDaysLate, outTier, colCollDebtGroup, outTotalExposure, outKept,
		},
	}
	for _, d := range res.Delays {
		var tier any
		if d.Tier != models.TierNone {
			tier = string(d.Tier)
		}
		s.Rows = append(s.Rows, []any{
			d.Customer.String(), d.DueDate, dateCell(d.PaidOn), d.EffectivePaid,
			d.DaysLate, tier, d.DebtGroup, d.TotalExposure, mark(d.Kept),
		})
	}
	return s
}

// Amount converts a sheet cell written by this package back to a decimal.
// Non-amount cells give zero.
func Amount(v any) decimal.Decimal {
	if d, ok := v.(decimal.Decimal); ok {
		return d
	}
	return decimal.Zero
}
