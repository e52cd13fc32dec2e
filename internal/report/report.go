// Package report derives financial views from a set of transactions. The Compute and
// GroupBy functions are pure and single-pass; an empty input yields zero values.
package report

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Unassigned labels transactions without a value for a breakdown dimension.
const Unassigned = "Unassigned"

type Stats struct {
	Revenues    decimal.Decimal `json:"revenues"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
	Receivables decimal.Decimal `json:"receivables"`
	Payables    decimal.Decimal `json:"payables"`
	Overdue     decimal.Decimal `json:"overdue"`
	Received    decimal.Decimal `json:"received"`
	Paid        decimal.Decimal `json:"paid"`
}

// ComputeStats totals the set by type and status. Revenues and expenses count every entry
// regardless of status; Received/Paid only paid ones and Receivables/Payables only pending
// ones. Overdue sums unpaid entries whose due date is strictly before today's calendar date.
func ComputeStats(txs iter.Seq[*transaction.Transaction], today time.Time) Stats {
	var s Stats

	cutoff := transaction.Day(today)

	for tx := range txs {
		switch tx.Type {
		case transaction.TypeReceivable:
			s.Revenues = s.Revenues.Add(tx.Amount)

			switch tx.Status {
			case transaction.StatusPaid:
				s.Received = s.Received.Add(tx.Amount)
			case transaction.StatusPending:
				s.Receivables = s.Receivables.Add(tx.Amount)
			}
		case transaction.TypePayable:
			s.Expenses = s.Expenses.Add(tx.Amount)

			switch tx.Status {
			case transaction.StatusPaid:
				s.Paid = s.Paid.Add(tx.Amount)
			case transaction.StatusPending:
				s.Payables = s.Payables.Add(tx.Amount)
			}
		}

		if tx.Status != transaction.StatusPaid && tx.DueDate != nil && transaction.Day(*tx.DueDate).Before(cutoff) {
			s.Overdue = s.Overdue.Add(tx.Amount)
		}
	}

	s.Balance = s.Revenues.Sub(s.Expenses)

	return s
}

// GroupByCategory sums amounts per category name, regardless of type. Entries without a
// category are reported under transaction.Uncategorized.
func GroupByCategory(txs iter.Seq[*transaction.Transaction]) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)

	for tx := range txs {
		name := tx.CategoryName()
		totals[name] = totals[name].Add(tx.Amount)
	}

	return totals
}

type DimensionTotals struct {
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
}

// GroupByDimension splits revenue and cost by the key dimension returns for each entry.
func GroupByDimension(txs iter.Seq[*transaction.Transaction], dimension func(*transaction.Transaction) string) map[string]DimensionTotals {
	totals := make(map[string]DimensionTotals)

	for tx := range txs {
		key := dimension(tx)
		t := totals[key]

		switch tx.Type {
		case transaction.TypeReceivable:
			t.Revenue = t.Revenue.Add(tx.Amount)
		case transaction.TypePayable:
			t.Cost = t.Cost.Add(tx.Amount)
		}

		totals[key] = t
	}

	return totals
}

// CostCenter and City are dimension functions for GroupByDimension.
func CostCenter(tx *transaction.Transaction) string {
	return labelOr(tx.CostCenter)
}

func City(tx *transaction.Transaction) string {
	return labelOr(tx.CityRef)
}

func labelOr(s *string) string {
	if s == nil || *s == "" {
		return Unassigned
	}

	return *s
}
