package report

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

var hundred = decimal.NewFromInt(100)

// DRE is a simplified income statement over a window.
type DRE struct {
	Revenue           decimal.Decimal            `json:"revenue"`
	Costs             decimal.Decimal            `json:"costs"`
	Profit            decimal.Decimal            `json:"profit"`
	Margin            decimal.Decimal            `json:"margin"` // percent of revenue, 2 places
	RevenueByCategory map[string]decimal.Decimal `json:"revenue_by_category"`
	CostsByCategory   map[string]decimal.Decimal `json:"costs_by_category"`
}

// ComputeDRE totals revenue and costs with their per-category lines. Margin is zero when
// there is no revenue.
func ComputeDRE(txs iter.Seq[*transaction.Transaction]) DRE {
	d := DRE{
		RevenueByCategory: make(map[string]decimal.Decimal),
		CostsByCategory:   make(map[string]decimal.Decimal),
	}

	for tx := range txs {
		name := tx.CategoryName()

		switch tx.Type {
		case transaction.TypeReceivable:
			d.Revenue = d.Revenue.Add(tx.Amount)
			d.RevenueByCategory[name] = d.RevenueByCategory[name].Add(tx.Amount)
		case transaction.TypePayable:
			d.Costs = d.Costs.Add(tx.Amount)
			d.CostsByCategory[name] = d.CostsByCategory[name].Add(tx.Amount)
		}
	}

	d.Profit = d.Revenue.Sub(d.Costs)

	if d.Revenue.IsPositive() {
		d.Margin = d.Profit.Mul(hundred).DivRound(d.Revenue, 2)
	}

	return d
}
