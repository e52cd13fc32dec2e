package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/ledger/internal/category"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

const uniqueViolation = "23505"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (tenant_id, name, type, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.TenantID, c.Name, c.Type).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, transaction.ErrDuplicateName)
		}

		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteRow(ctx, s.db, "categories", tenantID, id)
}

func categoriesQuery(tenantID uuid.UUID, typ *transaction.Type) (string, []any, error) {
	q := psql.Select("id", "tenant_id", "name", "type", "created_at").
		From("categories").
		Where(squirrel.Eq{"tenant_id": tenantID})

	if typ != nil {
		q = q.Where(squirrel.Eq{"type": string(*typ)})
	}

	return q.OrderBy("lower(name) ASC", "type ASC").ToSql()
}

func (s *Store) ListCategories(ctx context.Context, tenantID uuid.UUID, typ *transaction.Type) ([]category.Category, error) {
	query, args, err := categoriesQuery(tenantID, typ)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var list []category.Category

	for rows.Next() {
		var (
			c       category.Category
			typeStr string
		)

		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &typeStr, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		c.Type = transaction.Type(typeStr)
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return list, nil
}

func (s *Store) CreateCostCenter(ctx context.Context, c *category.CostCenter) error {
	query := `
		INSERT INTO cost_centers (tenant_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.TenantID, c.Name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cost center %q: %w", c.Name, transaction.ErrDuplicateName)
		}

		return fmt.Errorf("creating cost center: %w", err)
	}

	return nil
}

func (s *Store) DeleteCostCenter(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteRow(ctx, s.db, "cost_centers", tenantID, id)
}

func (s *Store) ListCostCenters(ctx context.Context, tenantID uuid.UUID) ([]category.CostCenter, error) {
	query := `
		SELECT id, tenant_id, name, created_at
		FROM cost_centers
		WHERE tenant_id = $1
		ORDER BY lower(name) ASC
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing cost centers: %w", err)
	}
	defer rows.Close()

	var list []category.CostCenter

	for rows.Next() {
		var c category.CostCenter
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning cost center: %w", err)
		}

		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cost center rows: %w", err)
	}

	return list, nil
}

func deleteRow(ctx context.Context, db *sql.DB, table string, tenantID, id uuid.UUID) error {
	query, args, err := psql.Delete(table).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}
