package pipeline

import (
	"log"

	"github.com/shopspring/decimal"

	"loan_audit/internal/models"
)

// pivotCollateral sums exposure and collateral value per customer and
// collateral type. Guarantee and LC facilities are summed separately later.
func (r *run) pivotCollateral() {
	r.res.ExposurePivot = NewPivot()
	r.res.ValuePivot = NewPivot()

	for _, lc := range r.res.Collateral {
		if lc.Facility == r.rules.FacilityGuarantee || lc.Facility == r.rules.FacilityLC {
			continue
		}
		if lc.Customer.Empty() {
			continue
		}
		cat := lc.CollateralType
		if cat == "" {
			cat = r.rules.BlankLabel
		}
		r.res.ExposurePivot.Add(lc.Customer, cat, lc.Exposure)
		r.res.ValuePivot.Add(lc.Customer, cat, lc.CollateralValue)
	}

	if r.res.ExposurePivot.Len() == 0 {
		r.warn("no loan rows left after excluding guarantee and LC facilities; collateral pivot is empty")
	}
	log.Printf("[AUDIT][PIVOT] customers=%d categories=%d", r.res.ExposurePivot.Len(), len(r.res.ExposurePivot.Categories()))
	r.inspect("collateral_pivot", r.res.CollateralPivotSheet())
}

// buildMaster creates one row per pivot customer and left-joins the static
// attributes of the customer's first ledger row.
func (r *run) buildMaster() {
	type info struct{ name, segment, debtGroup string }
	attrs := make(map[models.CustomerID]info)
	for _, lc := range r.res.Collateral {
		if _, seen := attrs[lc.Customer]; seen {
			continue
		}
		attrs[lc.Customer] = info{name: lc.CustomerName, segment: lc.Segment, debtGroup: lc.DebtGroup}
	}

	r.res.Layout.ExposureCategories = r.res.ExposurePivot.Categories()
	r.res.Layout.ValueCategories = r.res.ValuePivot.Categories()

	ids := r.res.ExposurePivot.Customers()
	master := make([]*models.CustomerMaster, 0, len(ids))
	for i, id := range ids {
		a := attrs[id]
		m := &models.CustomerMaster{
			Seq:                  i + 1,
			Segment:              a.segment,
			Customer:             id,
			Name:                 a.name,
			DebtGroup:            a.debtGroup,
			Exposure:             r.res.ExposurePivot.Row(id),
			CollateralValue:      r.res.ValuePivot.Row(id),
			TotalExposure:        r.res.ExposurePivot.Total(id),
			TotalCollateralValue: r.res.ValuePivot.Total(id),
			PurposeExposure:      make(map[string]decimal.Decimal),
		}
		master = append(master, m)
		r.index[id] = m
	}
	r.res.Master = master
	log.Printf("[AUDIT][MASTER] customers=%d", len(master))
	r.inspect("master", r.res.MasterSheet())
}

// mergePurpose left-joins the purpose pivot onto the master; customers absent
// from it get zero purpose exposure.
func (r *run) mergePurpose() {
	pp := r.res.PurposePivot
	r.res.Layout.PurposeGroups = pp.Categories()

	matched := 0
	for _, m := range r.res.Master {
		if pp.Has(m.Customer) {
			matched++
		}
		m.PurposeExposure = pp.Row(m.Customer)
		m.PurposeTotal = pp.Total(m.Customer)
		m.Mismatch = m.TotalExposure.Sub(m.PurposeTotal)
	}
	if len(r.res.Master) > 0 && matched == 0 {
		r.warn("no master customer appears in the purpose pivot")
	}
}

// reconcileBlankPurpose explains mismatches with ledger rows whose facility
// type is neither loan, guarantee nor LC. Their exposure is counted on the
// collateral side but has no purpose code on the loan-terms side, so it is
// added to the purpose side under the blank group.
func (r *run) reconcileBlankPurpose() {
	gaps := make(map[models.CustomerID]bool)
	for _, m := range r.res.Master {
		if !m.Mismatch.IsZero() {
			gaps[m.Customer] = true
		}
	}

	extra := make(map[models.CustomerID]decimal.Decimal)
	if len(gaps) > 0 {
		for _, lc := range r.res.Collateral {
			switch lc.Facility {
			case r.rules.FacilityLoan, r.rules.FacilityGuarantee, r.rules.FacilityLC:
				continue
			}
			if gaps[lc.Customer] {
				extra[lc.Customer] = extra[lc.Customer].Add(lc.Exposure)
			}
		}
	}

	blank := r.rules.BlankLabel
	adjusted := 0
	for _, m := range r.res.Master {
		add, ok := extra[m.Customer]
		if ok {
			m.PurposeExposure[blank] = m.PurposeExposure[blank].Add(add)
			m.PurposeTotal = m.PurposeTotal.Add(add)
			adjusted++
		}
		m.Mismatch = m.TotalExposure.Sub(m.PurposeTotal)
	}

	// The blank group always exists and sits right before the purpose total.
	groups := make([]string, 0, len(r.res.Layout.PurposeGroups)+1)
	for _, g := range r.res.Layout.PurposeGroups {
		if g != blank {
			groups = append(groups, g)
		}
	}
	r.res.Layout.PurposeGroups = append(groups, blank)

	log.Printf("[AUDIT][RECONCILE] mismatched=%d adjusted=%d", len(gaps), adjusted)
	r.inspect("reconcile", r.res.MasterSheet())
}
