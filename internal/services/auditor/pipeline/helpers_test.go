package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"loan_audit/internal/models"
	"loan_audit/internal/table"
)

var collateralHeader = []string{
	colCollBranch, colCollCustomer, colCollName, colCollSegment, colCollDebtGroup, colCollFacility,
	colCollCode, colCollValue, colCollExposure, colCollValuation, colCollSerial,
}

type coll struct {
	branch, cif, name, segment, group, facility, code, value, exposure, valuation, serial string
}

func (c coll) cells() []string {
	branch := c.branch
	if branch == "" {
		branch = "HANOI01"
	}
	facility := c.facility
	if facility == "" {
		facility = "Cho vay"
	}
	if facility == "-" {
		facility = ""
	}
	return []string{branch, c.cif, c.name, c.segment, c.group, facility, c.code, c.value, c.exposure, c.valuation, c.serial}
}

var termsHeader = []string{
	colTermsBranch, colTermsCustomer, colTermsApproval, colTermsScheme, colTermsPurpose, colTermsExposure, colTermsContract,
}

type terms struct {
	branch, cif, approval, scheme, purpose, exposure, contract string
}

func (t terms) cells() []string {
	branch := t.branch
	if branch == "" {
		branch = "HANOI01"
	}
	return []string{branch, t.cif, t.approval, t.scheme, t.purpose, t.exposure, t.contract}
}

func tbl(name string, header []string, rows ...[]string) *table.Table {
	t := table.New(name, header)
	for _, r := range rows {
		row := make(table.Row, len(header))
		for i, h := range header {
			if i < len(r) {
				row[h] = r[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func collateralTable(rows ...coll) *table.Table {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.cells())
	}
	return tbl(TableCollateral, collateralHeader, cells...)
}

func termsTable(rows ...terms) *table.Table {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.cells())
	}
	return tbl(TableLoanTerms, termsHeader, cells...)
}

func typeMap(pairs ...string) *table.Table {
	var rows [][]string
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}
	return tbl(TableCollateralTypes, []string{colMapCollCode, colMapCollType}, rows...)
}

func purposeMap(pairs ...string) *table.Table {
	var rows [][]string
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}
	return tbl(TablePurposeGroups, []string{colMapPurposeKey, colMapPurposeGrp}, rows...)
}

func params() Params {
	return Params{
		Branch:         "hanoi",
		AuditedRegion:  "Bạc Liêu",
		AssessmentDate: DefaultAssessmentDate,
		Rules:          DefaultRules(),
	}
}

func mustRun(t *testing.T, in Inputs, p Params) *Result {
	t.Helper()
	res, err := Run(in, p)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func customer(t *testing.T, res *Result, id string) *models.CustomerMaster {
	t.Helper()
	for _, m := range res.Master {
		if m.Customer == models.CustomerID(id) {
			return m
		}
	}
	t.Fatalf("customer %q not in master", id)
	return nil
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func requireDec(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	require.Truef(t, got.Equal(dec(want)), "%s: want %d, got %s", msg, want, got)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
