package models

import (
	"time"

	"github.com/shopspring/decimal"

	"loan_audit/internal/table"
)

// LoanCollateralRow is one (facility, collateral) pairing of the collateral ledger.
type LoanCollateralRow struct {
	Branch          string
	Customer        CustomerID
	CustomerName    string
	Segment         string
	DebtGroup       string
	Facility        string
	CollateralCode  string
	CollateralValue decimal.Decimal
	Exposure        decimal.Decimal
	ValuationDate   *time.Time
	SerialNumber    string

	// CollateralType is "" when the code is present but has no mapping.
	CollateralType string
	Note           string

	Source table.Row
}

// LoanTermsRow is one facility of the loan-terms ledger.
type LoanTermsRow struct {
	Branch       string
	Customer     CustomerID
	ApprovalCode string
	SchemeCode   string
	PurposeCode  string
	Exposure     decimal.Decimal
	ContractRef  string

	PurposeGroup string
	Note         string

	Source table.Row
}

// RealEstateCollateralRow is a registry entry for real-estate collateral that
// backs a filtered ledger row.
type RealEstateCollateralRow struct {
	Serial    string
	AssetType string
	Address   string
	Province  string
	OffRegion bool

	Source table.Row
}

// ValuationRow is the stale-valuation working record for one collateral row.
type ValuationRow struct {
	Customer       CustomerID
	CollateralType string
	Serial         string
	ValuationDate  *time.Time
	DaysOverdue    *int
	Stale          bool
}
