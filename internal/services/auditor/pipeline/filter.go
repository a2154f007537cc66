package pipeline

import (
	"log"
	"strings"

	"loan_audit/internal/table"
)

// filterBranch keeps ledger rows whose upper-cased branch code contains the
// requested branch. An empty result is valid and flows through as empty pivots.
func (r *run) filterBranch() {
	match := func(col string) func(table.Row) bool {
		return func(row table.Row) bool {
			return strings.Contains(strings.ToUpper(row.Get(col)), r.p.Branch)
		}
	}

	r.in.Collateral = r.in.Collateral.Filter(match(colCollBranch))
	r.in.LoanTerms = r.in.LoanTerms.Filter(match(colTermsBranch))

	log.Printf("[AUDIT][FILTER] branch=%q collateral_rows=%d loan_terms_rows=%d",
		r.p.Branch, r.in.Collateral.Len(), r.in.LoanTerms.Len())

	if r.in.Collateral.Len() == 0 {
		r.warn("no collateral ledger rows match branch %q", r.p.Branch)
	}
	if r.in.LoanTerms.Len() == 0 {
		r.warn("no loan-terms ledger rows match branch %q", r.p.Branch)
	}
}
