package pipeline

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"loan_audit/internal/models"
)

func (r *run) performing(debtGroup string) bool {
	g, err := strconv.ParseFloat(strings.TrimSpace(debtGroup), 64)
	return err == nil && g == r.rules.PerformingCode
}

// flagLatePayment tiers late installments of performing customers due inside
// the audit window. Unpaid installments are late up to the assessment date.
// Only the most severe record per customer and due date counts.
func (r *run) flagLatePayment() {
	t := r.in.LatePayments
	if t == nil {
		r.warn("late-payment ledger not supplied; late-payment flags left blank")
		return
	}
	custCol := colDelayCustomer
	if !t.Has(custCol) && t.Has(colDelayCustomerAlt) {
		custCol = colDelayCustomerAlt
	}
	if c := t.HasAll(custCol, colDelayDue); c != "" {
		r.warn("late-payment ledger has no column %q; late-payment flags left blank", c)
		return
	}

	var recs []models.PaymentDelayRecord
	for _, row := range t.Rows {
		due := parseDate(row.Get(colDelayDue))
		if due == nil || due.Year() < r.rules.DelayFromYear || due.Year() > r.rules.DelayToYear {
			continue
		}
		m, ok := r.index[models.NewCustomerID(row.Get(custCol))]
		if !ok || !r.performing(m.DebtGroup) {
			continue
		}
		paid := parseDate(row.Get(colDelayPaid))
		effective := r.p.AssessmentDate
		if paid != nil {
			effective = *paid
		}
		days := daysBetween(*due, effective)
		recs = append(recs, models.PaymentDelayRecord{
			Customer:      m.Customer,
			DueDate:       *due,
			PaidOn:        paid,
			EffectivePaid: effective,
			DaysLate:      days,
			Tier:          models.TierFor(days),
			DebtGroup:     m.DebtGroup,
			TotalExposure: m.TotalExposure,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Customer != b.Customer {
			return a.Customer < b.Customer
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.Tier.Severity() < b.Tier.Severity()
	})

	type key struct {
		id  models.CustomerID
		due time.Time
	}
	seen := make(map[key]bool)
	worst := make(map[models.CustomerID]int)
	for i := range recs {
		k := key{recs[i].Customer, recs[i].DueDate}
		if seen[k] {
			continue
		}
		seen[k] = true
		recs[i].Kept = true
		s := recs[i].Tier.Severity()
		if w, ok := worst[k.id]; !ok || s < w {
			worst[k.id] = s
		}
	}
	r.res.Delays = recs

	over10, mid := 0, 0
	for _, m := range r.res.Master {
		w, ok := worst[m.Customer]
		if !ok {
			continue
		}
		switch w {
		case models.TierSevere.Severity():
			m.Flags.LateOver10 = true
			over10++
		case models.TierModerate.Severity():
			m.Flags.Late4to9 = true
			mid++
		}
	}
	log.Printf("[AUDIT][FLAG] late_over_10=%d late_4_9=%d records=%d", over10, mid, len(recs))
	r.inspect("late_payment", r.res.DelaySheet())
}
