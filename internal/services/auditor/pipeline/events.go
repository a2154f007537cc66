package pipeline

import (
	"log"
	"sort"
	"time"

	"loan_audit/internal/models"
	"loan_audit/internal/table"
)

// eventColumns maps one source ledger onto the common event shape.
type eventColumns struct {
	customer, name, contract, amount, currency string
	disbursed, matures, settled                string
	date                                       string
}

var settlementColumns = eventColumns{
	customer:  colSettleCustomer,
	name:      colSettleName,
	contract:  colSettleContract,
	amount:    colSettleAmount,
	currency:  colSettleCurrency,
	disbursed: colSettleDisbDate,
	matures:   colSettleMaturity,
	settled:   colSettleDate,
	date:      colSettleDate,
}

var disbursementColumns = eventColumns{
	customer:  colDisbCustomer,
	name:      colDisbName,
	contract:  colDisbContract,
	amount:    colDisbAmount,
	currency:  colDisbCurrency,
	disbursed: colDisbDate,
	matures:   colDisbMaturity,
	date:      colDisbDate,
}

func (r *run) events(t *table.Table, name string, cols eventColumns, kind models.EventType) ([]models.DisbursementSettlementEvent, bool) {
	if c := t.HasAll(cols.customer, cols.date); c != "" {
		r.warn("%s ledger has no column %q; same-day flag left blank", name, c)
		return nil, false
	}
	out := make([]models.DisbursementSettlementEvent, 0, len(t.Rows))
	undated := 0
	for _, row := range t.Rows {
		d := parseDate(row.Get(cols.date))
		if d == nil {
			undated++
			continue
		}
		amount, _ := parseAmount(row.Get(cols.amount))
		ev := models.DisbursementSettlementEvent{
			Customer:     models.NewCustomerID(row.Get(cols.customer)),
			CustomerName: row.Get(cols.name),
			ContractRef:  code(row.Get(cols.contract)),
			Amount:       amount,
			Currency:     row.Get(cols.currency),
			DisbursedOn:  parseDate(row.Get(cols.disbursed)),
			MaturesOn:    parseDate(row.Get(cols.matures)),
			Type:         kind,
			Date:         *d,
		}
		if cols.settled != "" {
			ev.SettledOn = d
		}
		out = append(out, ev)
	}
	if undated > 0 {
		log.Printf("[AUDIT][EVENTS] ledger=%s skipped_undated=%d", name, undated)
	}
	return out, true
}

// flagSameDay marks customers with a disbursement and a settlement on the
// same calendar day.
func (r *run) flagSameDay() {
	if r.in.Settlements == nil || r.in.Disbursements == nil {
		r.warn("settlement or disbursement ledger not supplied; same-day flag left blank")
		return
	}
	settled, ok1 := r.events(r.in.Settlements, TableSettlements, settlementColumns, models.EventSettlement)
	disbursed, ok2 := r.events(r.in.Disbursements, TableDisbursements, disbursementColumns, models.EventDisbursement)
	if !ok1 || !ok2 {
		return
	}

	all := append(settled, disbursed...)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Customer != b.Customer {
			return a.Customer < b.Customer
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Type < b.Type
	})
	r.res.Events = all

	type key struct {
		id models.CustomerID
		d  time.Time
	}
	var counts []models.SameDayCount
	pos := make(map[key]int)
	for _, ev := range all {
		k := key{ev.Customer, ev.Date}
		i, ok := pos[k]
		if !ok {
			i = len(counts)
			pos[k] = i
			counts = append(counts, models.SameDayCount{Customer: ev.Customer, Date: ev.Date})
		}
		if ev.Type == models.EventDisbursement {
			counts[i].Disbursements++
		} else {
			counts[i].Settlements++
		}
	}
	r.res.EventCounts = counts

	ids := make(map[models.CustomerID]bool)
	for _, c := range counts {
		if c.Both() {
			ids[c.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.SameDay = true })
	log.Printf("[AUDIT][FLAG] same_day=%d events=%d", n, len(all))
	r.inspect("same_day", r.res.EventCountSheet())
}
