package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Expected column order: see selectColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, statusStr string

	var issueDate, dueDate, paidAt, excludedAt, updatedAt sql.NullTime

	var category, costCenter, notes, cityRef sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.TenantID, &typeStr, &tx.Description, &tx.Amount, &statusStr,
		&issueDate, &dueDate, &paidAt, &excludedAt,
		&category, &costCenter, &notes, &cityRef,
		&tx.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Status = transaction.Status(statusStr)
	tx.IssueDate = dateOrNil(issueDate)
	tx.DueDate = dateOrNil(dueDate)
	tx.PaidAt = timeOrNil(paidAt)
	tx.ExcludedAt = timeOrNil(excludedAt)
	tx.UpdatedAt = timeOrNil(updatedAt)
	tx.Category = stringOrNil(category)
	tx.CostCenter = stringOrNil(costCenter)
	tx.Notes = stringOrNil(notes)
	tx.CityRef = stringOrNil(cityRef)

	return &tx, nil
}

func dateOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	return new(transaction.Day(t.Time))
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	return new(t.Time.UTC())
}

func stringOrNil(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}

var selectColumns = []string{
	"id", "tenant_id", "type", "description", "amount", "status",
	"issue_date", "due_date", "paid_at", "excluded_at",
	"category", "cost_center", "notes", "city_ref",
	"created_at", "updated_at",
}

const insertTransactionQuery = `
	INSERT INTO transactions (
		tenant_id, type, description, amount, status, issue_date, due_date, paid_at,
		category, cost_center, notes, city_ref, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

func insertTransaction(ctx context.Context, q queryer, tx *transaction.Transaction) error {
	var updatedAt time.Time

	err := q.QueryRowContext(ctx, insertTransactionQuery,
		tx.TenantID,
		tx.Type,
		tx.Description,
		tx.Amount,
		tx.Status,
		tx.IssueDate,
		tx.DueDate,
		tx.PaidAt,
		tx.Category,
		tx.CostCenter,
		tx.Notes,
		tx.CityRef,
	).Scan(&tx.ID, &tx.CreatedAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	tx.UpdatedAt = &updatedAt

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	return insertTransaction(ctx, s.db, tx)
}

func (s *Store) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*transaction.Transaction, error) {
	query, args, err := getQuery(tenantID, id, false)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

// ListTransactions returns a sequence that runs the query each time it is ranged over.
func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) iter.Seq2[*transaction.Transaction, error] {
	return func(yield func(*transaction.Transaction, error) bool) {
		query, args, err := listQuery(filter)
		if err != nil {
			yield(nil, fmt.Errorf("building query: %w", err))
			return
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("listing transactions: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			tx, err := scanTransaction(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scanning transaction: %w", err))
				return
			}

			if !yield(tx, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterating transaction rows: %w", err))
		}
	}
}

// UpdateTransaction writes the editable fields. Type and lifecycle columns are never touched.
func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET description = $1, amount = $2, issue_date = $3, due_date = $4,
			category = $5, cost_center = $6, notes = $7, city_ref = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
		RETURNING updated_at
	`

	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, query,
		tx.Description,
		tx.Amount,
		tx.IssueDate,
		tx.DueDate,
		tx.Category,
		tx.CostCenter,
		tx.Notes,
		tx.CityRef,
		tx.TenantID,
		tx.ID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	tx.UpdatedAt = &updatedAt

	return nil
}

// TransitionStatus locks the row, validates the source status and writes the new lifecycle
// columns in one database transaction. Concurrent callers on the same id queue on the row
// lock, so the loser sees the winner's status.
func (s *Store) TransitionStatus(ctx context.Context, tr transaction.Transition) (*transaction.Transaction, transaction.Status, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query, args, err := getQuery(tr.TenantID, tr.ID, true)
	if err != nil {
		return nil, "", fmt.Errorf("building query: %w", err)
	}

	tx, err := scanTransaction(dbTx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", transaction.ErrNotFound
		}

		return nil, "", fmt.Errorf("locking transaction: %w", err)
	}

	prev := tx.Status

	if err := tr.Apply(tx); err != nil {
		return nil, "", err
	}

	update := `
		UPDATE transactions
		SET status = $1, paid_at = $2, excluded_at = $3, updated_at = $4
		WHERE tenant_id = $5 AND id = $6
	`
	if _, err := dbTx.ExecContext(ctx, update,
		tx.Status, tx.PaidAt, tx.ExcludedAt, tx.UpdatedAt, tx.TenantID, tx.ID,
	); err != nil {
		return nil, "", fmt.Errorf("updating status: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, "", fmt.Errorf("committing transaction: %w", err)
	}

	return tx, prev, nil
}

func importLockKey(tenantID uuid.UUID, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write(tenantID[:])
	h.Write([]byte(minDate.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx       *sql.Tx
	tenantID uuid.UUID
	minDate  time.Time
	maxDate  time.Time
}

// BeginImport opens a database transaction holding an advisory lock for the tenant and
// date window, so two uploads of the same statement can't both pass the duplicate check.
func (s *Store) BeginImport(ctx context.Context, tenantID uuid.UUID, minDate, maxDate time.Time) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(tenantID, minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, tenantID: tenantID, minDate: minDate, maxDate: maxDate}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// FindDuplicates returns active entries in the import window that share due date, amount,
// type and description with one of params.
func (itx *importTx) FindDuplicates(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	query, args, err := duplicatesQuery(itx.tenantID, itx.minDate, itx.maxDate)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	keySet := make(map[lookupKey]struct{}, len(params))
	for _, p := range params {
		keySet[paramsKey(p)] = struct{}{}
	}

	rows, err := itx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		if _, found := keySet[transactionKey(tx)]; !found {
			continue
		}

		duplicates = append(duplicates, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := insertTransaction(ctx, itx.tx, tx); err != nil {
			return err
		}
	}

	return nil
}
