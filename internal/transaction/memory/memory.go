// Package memory is an in-process transaction.Repository used by tests and the TUI demo mode.
package memory

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// record guards one transaction so lifecycle moves on different ids never contend.
type record struct {
	tenantID uuid.UUID
	mu       sync.Mutex
	tx       *transaction.Transaction
}

type Store struct {
	mu      sync.RWMutex // guards the index only
	records map[uuid.UUID]*record
}

func New() *Store {
	return &Store{records: make(map[uuid.UUID]*record)}
}

func (s *Store) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	s.insert(tx)
	return nil
}

func (s *Store) insert(tx *transaction.Transaction) {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now().UTC()
	tx.UpdatedAt = new(tx.CreatedAt)

	s.mu.Lock()
	s.records[tx.ID] = &record{tenantID: tx.TenantID, tx: tx.Clone()}
	s.mu.Unlock()
}

func (s *Store) lookup(tenantID, id uuid.UUID) (*record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok || rec.tenantID != tenantID {
		return nil, transaction.ErrNotFound
	}

	return rec, nil
}

func (s *Store) GetTransaction(_ context.Context, tenantID, id uuid.UUID) (*transaction.Transaction, error) {
	rec, err := s.lookup(tenantID, id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.tx.Clone(), nil
}

// UpdateTransaction writes every editable field but leaves the lifecycle columns alone.
func (s *Store) UpdateTransaction(_ context.Context, tx *transaction.Transaction) error {
	rec, err := s.lookup(tx.TenantID, tx.ID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := tx.Clone()
	next.Type = rec.tx.Type
	next.Status = rec.tx.Status
	next.PaidAt = rec.tx.PaidAt
	next.ExcludedAt = rec.tx.ExcludedAt
	next.CreatedAt = rec.tx.CreatedAt
	next.UpdatedAt = new(time.Now().UTC())
	rec.tx = next

	tx.Status = next.Status
	tx.PaidAt = next.PaidAt
	tx.ExcludedAt = next.ExcludedAt
	tx.UpdatedAt = next.UpdatedAt

	return nil
}

func (s *Store) TransitionStatus(_ context.Context, tr transaction.Transition) (*transaction.Transaction, transaction.Status, error) {
	rec, err := s.lookup(tr.TenantID, tr.ID)
	if err != nil {
		return nil, "", err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.tx.Clone()
	prev := next.Status

	if err := tr.Apply(next); err != nil {
		return nil, "", err
	}

	rec.tx = next

	return next.Clone(), prev, nil
}

func (s *Store) ListTransactions(_ context.Context, filter transaction.ListFilter) iter.Seq2[*transaction.Transaction, error] {
	return func(yield func(*transaction.Transaction, error) bool) {
		for _, tx := range s.snapshot(filter) {
			if !yield(tx, nil) {
				return
			}
		}
	}
}

func (s *Store) snapshot(filter transaction.ListFilter) []*transaction.Transaction {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	var txs []*transaction.Transaction

	for _, rec := range recs {
		rec.mu.Lock()
		tx := rec.tx.Clone()
		rec.mu.Unlock()

		if filter.Matches(tx) {
			txs = append(txs, tx)
		}
	}

	slices.SortFunc(txs, Compare)

	return txs
}

// Compare orders by due date ascending with undated entries last, then by id.
func Compare(a, b *transaction.Transaction) int {
	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}

	return bytes.Compare(a.ID[:], b.ID[:])
}

func (s *Store) BeginImport(_ context.Context, tenantID uuid.UUID, _, _ time.Time) (transaction.ImportTx, error) {
	return &importTx{store: s, tenantID: tenantID}, nil
}

type importTx struct {
	store    *Store
	tenantID uuid.UUID
	pending  []*transaction.Transaction
	done     bool
}

func (itx *importTx) FindDuplicates(_ context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	existing := itx.store.snapshot(transaction.ListFilter{TenantID: itx.tenantID})

	var duplicates []*transaction.Transaction

	for _, tx := range existing {
		if tx.Status.Inactive() {
			continue
		}

		for _, p := range params {
			if sameEntry(tx, p) {
				duplicates = append(duplicates, tx)
				break
			}
		}
	}

	return duplicates, nil
}

func sameEntry(tx *transaction.Transaction, p transaction.CreateParams) bool {
	if tx.Type != p.Type || !tx.Amount.Equal(p.Amount) {
		return false
	}

	if !strings.EqualFold(tx.Description, strings.TrimSpace(p.Description)) {
		return false
	}

	// Undated entries never conflict, as in the SQL store where NULL dates don't compare.
	if tx.DueDate == nil || p.DueDate == nil {
		return false
	}

	return tx.DueDate.Equal(transaction.Day(*p.DueDate))
}

func (itx *importTx) CreateTransactions(_ context.Context, txs []*transaction.Transaction) error {
	itx.pending = append(itx.pending, txs...)
	return nil
}

func (itx *importTx) Commit() error {
	if itx.done {
		return nil
	}

	itx.done = true

	for _, tx := range itx.pending {
		itx.store.insert(tx)
	}

	return nil
}

func (itx *importTx) Rollback() error {
	itx.done = true
	itx.pending = nil

	return nil
}
