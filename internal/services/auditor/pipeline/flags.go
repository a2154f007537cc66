package pipeline

import (
	"log"
	"sort"
	"strings"

	"loan_audit/internal/models"
)

func (r *run) flagDebtGroups() {
	watch := setOf(r.rules.DebtGroup2, strings.TrimSpace)
	bad := setOf(r.rules.BadDebtGroups, strings.TrimSpace)
	for _, m := range r.res.Master {
		g := strings.TrimSpace(m.DebtGroup)
		m.Flags.DebtGroup2 = watch.has(g)
		m.Flags.BadDebt = bad.has(g)
	}
}

// approvalPrefix takes the segment before the first dash and pads it to two
// digits ("5-Chuyen gia" -> "05").
func approvalPrefix(raw string) string {
	s := strings.TrimSpace(strings.SplitN(raw, "-", 2)[0])
	for len(s) < 2 {
		s = "0" + s
	}
	return s
}

func (r *run) flagApprovalAuthority() {
	codes := setOf(r.rules.ApprovalCodes, nil)
	ids := make(map[models.CustomerID]bool)
	for _, lt := range r.res.LoanTerms {
		if codes.has(approvalPrefix(lt.ApprovalCode)) {
			ids[lt.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.ApprovalC = true })
	log.Printf("[AUDIT][FLAG] approval_c=%d", n)
}

func (r *run) flagRestructured() {
	schemes := setOf(r.rules.RestructuringSchemes, strings.TrimSpace)
	ids := make(map[models.CustomerID]bool)
	for _, lt := range r.res.LoanTerms {
		if schemes.has(lt.SchemeCode) {
			ids[lt.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.Restructured = true })
	log.Printf("[AUDIT][FLAG] restructured=%d", n)
}

func (r *run) sumGuaranteeAndLC() {
	for _, lc := range r.res.Collateral {
		m, ok := r.index[lc.Customer]
		if !ok {
			continue
		}
		switch lc.Facility {
		case r.rules.FacilityGuarantee:
			m.GuaranteeExposure = m.GuaranteeExposure.Add(lc.Exposure)
		case r.rules.FacilityLC:
			m.LCExposure = m.LCExposure.Add(lc.Exposure)
		}
	}
}

func (r *run) flagCashDisbursement() {
	t := r.in.CashDisbursements
	if t == nil || !t.Has(colCashRef) {
		r.warn("cash-disbursement list not supplied or has no %s column; flag left blank", colCashRef)
		return
	}
	refs := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		if ref := code(row.Get(colCashRef)); ref != "" {
			refs[ref] = true
		}
	}
	ids := make(map[models.CustomerID]bool)
	for _, lt := range r.res.LoanTerms {
		if lt.ContractRef != "" && refs[lt.ContractRef] {
			ids[lt.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.CashDisbursement = true })
	log.Printf("[AUDIT][FLAG] cash_disbursement=%d", n)
}

func (r *run) flagCrossPledge() {
	marker := lower(r.rules.CrossPledgeMarker)
	if marker == "" {
		return
	}
	ids := make(map[models.CustomerID]bool)
	for _, lc := range r.res.Collateral {
		if strings.Contains(lower(lc.CollateralCode), marker) {
			ids[lc.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.CrossPledge = true })
	log.Printf("[AUDIT][FLAG] cross_pledge=%d", n)
}

// topExposure returns the customers of one segment with the largest ranking
// exposure. Ties keep master order.
func (r *run) topExposure(segment string) map[models.CustomerID]bool {
	seg := lower(segment)
	var cands []*models.CustomerMaster
	for _, m := range r.res.Master {
		if lower(m.Segment) == seg {
			cands = append(cands, m)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].RankingExposure().GreaterThan(cands[j].RankingExposure())
	})
	if len(cands) > r.rules.TopN {
		cands = cands[:r.rules.TopN]
	}
	ids := make(map[models.CustomerID]bool, len(cands))
	for _, m := range cands {
		ids[m.Customer] = true
	}
	return ids
}

func (r *run) flagTopExposure() {
	ni := r.customerSet(r.topExposure(r.rules.SegmentIndividual), func(f *models.Flags) { f.TopIndividual = true })
	nc := r.customerSet(r.topExposure(r.rules.SegmentCorporate), func(f *models.Flags) { f.TopCorporate = true })
	log.Printf("[AUDIT][FLAG] top_individual=%d top_corporate=%d", ni, nc)
}
