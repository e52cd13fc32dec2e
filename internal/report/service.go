package report

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Lister is the read side of transaction.Service.
type Lister interface {
	List(ctx context.Context, filter transaction.ListFilter) iter.Seq2[*transaction.Transaction, error]
}

type Service struct {
	txs Lister
	now func() time.Time
}

func NewService(txs Lister, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{txs: txs, now: now}
}

func (s *Service) load(ctx context.Context, filter transaction.ListFilter) (iter.Seq[*transaction.Transaction], error) {
	txs, err := transaction.Collect(s.txs.List(ctx, filter))
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	return slices.Values(txs), nil
}

// Stats evaluates overdue entries against the current local calendar date.
func (s *Service) Stats(ctx context.Context, filter transaction.ListFilter) (Stats, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return Stats{}, err
	}

	return ComputeStats(txs, s.now()), nil
}

func (s *Service) ByCategory(ctx context.Context, filter transaction.ListFilter) (map[string]decimal.Decimal, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	return GroupByCategory(txs), nil
}

func (s *Service) ByCostCenter(ctx context.Context, filter transaction.ListFilter) (map[string]DimensionTotals, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	return GroupByDimension(txs, CostCenter), nil
}

func (s *Service) ByCity(ctx context.Context, filter transaction.ListFilter) (map[string]DimensionTotals, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	return GroupByDimension(txs, City), nil
}

func (s *Service) CashFlow(ctx context.Context, filter transaction.ListFilter) ([]CashFlowDay, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	return ComputeCashFlow(txs), nil
}

func (s *Service) DRE(ctx context.Context, filter transaction.ListFilter) (DRE, error) {
	txs, err := s.load(ctx, filter)
	if err != nil {
		return DRE{}, err
	}

	return ComputeDRE(txs), nil
}
