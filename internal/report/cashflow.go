package report

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type CashFlowDay struct {
	Date           time.Time       `json:"date"`
	Inflow         decimal.Decimal `json:"inflow"`
	Outflow        decimal.Decimal `json:"outflow"`
	DailyBalance   decimal.Decimal `json:"daily_balance"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// ComputeCashFlow groups the set by due day in ascending order. RunningBalance is the
// prefix sum of DailyBalance. Entries without a due date are skipped.
func ComputeCashFlow(txs iter.Seq[*transaction.Transaction]) []CashFlowDay {
	byDay := make(map[time.Time]*CashFlowDay)

	for tx := range txs {
		if tx.DueDate == nil {
			continue
		}

		date := transaction.Day(*tx.DueDate)

		day, ok := byDay[date]
		if !ok {
			day = &CashFlowDay{Date: date}
			byDay[date] = day
		}

		switch tx.Type {
		case transaction.TypeReceivable:
			day.Inflow = day.Inflow.Add(tx.Amount)
		case transaction.TypePayable:
			day.Outflow = day.Outflow.Add(tx.Amount)
		}
	}

	dates := slices.SortedFunc(maps.Keys(byDay), time.Time.Compare)
	flow := make([]CashFlowDay, 0, len(dates))

	var running decimal.Decimal

	for _, date := range dates {
		day := byDay[date]
		day.DailyBalance = day.Inflow.Sub(day.Outflow)
		running = running.Add(day.DailyBalance)
		day.RunningBalance = running

		flow = append(flow, *day)
	}

	return flow
}
