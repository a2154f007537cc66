package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomerID is a CIF normalised at the ingestion boundary. Every join across
// ledgers compares CustomerIDs, never raw cell text.
type CustomerID string

var integralFloat = regexp.MustCompile(`^(\d+)\.0+$`)

// NewCustomerID trims the raw cell and drops a zero fraction that spreadsheet
// tools add to numeric CIF columns ("12345.0" -> "12345").
func NewCustomerID(raw string) CustomerID {
	s := strings.TrimSpace(raw)
	if m := integralFloat.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return CustomerID(s)
}

func (c CustomerID) String() string { return string(c) }
func (c CustomerID) Empty() bool    { return c == "" }

// Flags are the rule outcomes attached to one customer.
type Flags struct {
	DebtGroup2       bool
	BadDebt          bool
	ApprovalC        bool
	Restructured     bool
	CashDisbursement bool
	CrossPledge      bool
	TopIndividual    bool
	TopCorporate     bool
	StaleValuation   bool
	OffRegion        bool
	SameDay          bool
	LateOver10       bool
	Late4to9         bool
}

// CustomerMaster is one row of the consolidated audit table. Category maps are
// keyed by the labels found in the data; the column layout is decided at export.
type CustomerMaster struct {
	Seq       int
	Segment   string
	Customer  CustomerID
	Name      string
	DebtGroup string

	Exposure        map[string]decimal.Decimal
	CollateralValue map[string]decimal.Decimal

	TotalExposure        decimal.Decimal
	TotalCollateralValue decimal.Decimal

	PurposeExposure map[string]decimal.Decimal
	PurposeTotal    decimal.Decimal
	Mismatch        decimal.Decimal

	GuaranteeExposure decimal.Decimal
	LCExposure        decimal.Decimal

	Flags Flags
}

// RankingExposure is the figure top-N rankings sort by: the collateral-side
// loan exposure, which excludes guarantee and LC amounts and is not touched by
// purpose-side reconciliation.
func (m *CustomerMaster) RankingExposure() decimal.Decimal {
	return m.TotalExposure
}
