package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"loan_audit/internal/models"
)

// Pivot is a sparse customer x category sum. Customers and categories are
// both reported in sorted order so repeated runs produce identical tables.
type Pivot struct {
	cells map[models.CustomerID]map[string]decimal.Decimal
	cats  map[string]struct{}
}

func NewPivot() *Pivot {
	return &Pivot{
		cells: make(map[models.CustomerID]map[string]decimal.Decimal),
		cats:  make(map[string]struct{}),
	}
}

func (p *Pivot) Add(id models.CustomerID, category string, amount decimal.Decimal) {
	row, ok := p.cells[id]
	if !ok {
		row = make(map[string]decimal.Decimal)
		p.cells[id] = row
	}
	row[category] = row[category].Add(amount)
	p.cats[category] = struct{}{}
}

func (p *Pivot) Len() int { return len(p.cells) }

func (p *Pivot) Has(id models.CustomerID) bool {
	_, ok := p.cells[id]
	return ok
}

func (p *Pivot) Customers() []models.CustomerID {
	out := make([]models.CustomerID, 0, len(p.cells))
	for id := range p.cells {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Pivot) Categories() []string {
	out := make([]string, 0, len(p.cats))
	for c := range p.cats {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (p *Pivot) Get(id models.CustomerID, category string) decimal.Decimal {
	return p.cells[id][category]
}

// Row copies the category cells of one customer; absent customers give an
// empty map.
func (p *Pivot) Row(id models.CustomerID) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.cells[id]))
	for c, v := range p.cells[id] {
		out[c] = v
	}
	return out
}

// Total sums the category cells of one customer.
func (p *Pivot) Total(id models.CustomerID) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range p.cells[id] {
		sum = sum.Add(v)
	}
	return sum
}
