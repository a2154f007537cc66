package pipeline

import (
	"log"

	"loan_audit/internal/models"
)

// flagStaleValuation marks customers holding real estate, machinery or
// vehicles whose last valuation is more than the grace period past the
// yearly revaluation cycle.
func (r *run) flagStaleValuation() {
	types := setOf(r.rules.StaleTypes, label)
	ids := make(map[models.CustomerID]bool)
	rows := make([]models.ValuationRow, 0, len(r.res.Collateral))

	for _, lc := range r.res.Collateral {
		v := models.ValuationRow{
			Customer:       lc.Customer,
			CollateralType: lc.CollateralType,
			Serial:         lc.SerialNumber,
			ValuationDate:  lc.ValuationDate,
		}
		if types.has(lc.CollateralType) && lc.ValuationDate != nil {
			days := daysBetween(*lc.ValuationDate, r.p.AssessmentDate) - r.rules.ValuationCycleDays
			v.DaysOverdue = &days
			v.Stale = days > r.rules.StaleGraceDays
			if v.Stale {
				ids[lc.Customer] = true
			}
		}
		rows = append(rows, v)
	}
	r.res.Valuations = rows

	n := r.customerSet(ids, func(f *models.Flags) { f.StaleValuation = true })
	log.Printf("[AUDIT][FLAG] stale_valuation=%d", n)
	r.inspect("stale_valuation", r.res.ValuationSheet())
}
