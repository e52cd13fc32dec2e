package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/transaction/memory"
)

func entry(tenant uuid.UUID, desc string, due *time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		TenantID:    tenant,
		Type:        transaction.TypePayable,
		Description: desc,
		Amount:      decimal.NewFromInt(100),
		Status:      transaction.StatusPending,
		DueDate:     due,
	}
}

func TestStore_ListOrderAndRestart(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	s := memory.New()

	for _, e := range []*transaction.Transaction{
		entry(tenant, "undated", nil),
		entry(tenant, "late", new(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))),
		entry(tenant, "early", new(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		entry(uuid.New(), "foreign", new(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
	} {
		require.NoError(t, s.CreateTransaction(ctx, e))
	}

	seq := s.ListTransactions(ctx, transaction.ListFilter{TenantID: tenant})

	var first []string
	for tx, err := range seq {
		require.NoError(t, err)
		first = append(first, tx.Description)
	}

	assert.Equal(t, []string{"early", "late", "undated"}, first)

	require.NoError(t, s.CreateTransaction(ctx, entry(tenant, "middle", new(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))))

	var second []string
	for tx, err := range seq {
		require.NoError(t, err)
		second = append(second, tx.Description)
	}

	assert.Equal(t, []string{"early", "middle", "late", "undated"}, second)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	s := memory.New()

	tx := entry(tenant, "Rent", nil)
	require.NoError(t, s.CreateTransaction(ctx, tx))

	tx.Description = "mutated"

	got, err := s.GetTransaction(ctx, tenant, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Description)
}

func TestStore_UpdateKeepsLifecycle(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	s := memory.New()

	tx := entry(tenant, "Rent", nil)
	require.NoError(t, s.CreateTransaction(ctx, tx))

	_, prev, err := s.TransitionStatus(ctx, transaction.Transition{
		TenantID: tenant,
		ID:       tx.ID,
		From:     []transaction.Status{transaction.StatusPending},
		To:       transaction.StatusPaid,
		At:       time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, prev)

	patch := tx.Clone()
	patch.Description = "Rent March"
	patch.Status = transaction.StatusPending
	patch.PaidAt = nil
	require.NoError(t, s.UpdateTransaction(ctx, patch))

	got, err := s.GetTransaction(ctx, tenant, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent March", got.Description)
	assert.Equal(t, transaction.StatusPaid, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	s := memory.New()
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	existing := entry(tenant, "Energy", &due)
	require.NoError(t, s.CreateTransaction(ctx, existing))

	itx, err := s.BeginImport(ctx, tenant, due, due)
	require.NoError(t, err)

	dups, err := itx.FindDuplicates(ctx, []transaction.CreateParams{{
		Type:        transaction.TypePayable,
		Description: " energy ",
		Amount:      decimal.RequireFromString("100.00"),
		DueDate:     &due,
	}})
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, existing.ID, dups[0].ID)

	require.NoError(t, itx.CreateTransactions(ctx, []*transaction.Transaction{entry(tenant, "Water", &due)}))
	require.NoError(t, itx.Rollback())

	all, err := transaction.Collect(s.ListTransactions(ctx, transaction.ListFilter{TenantID: tenant}))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_ImportIgnoresUndated(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	s := memory.New()

	require.NoError(t, s.CreateTransaction(ctx, entry(tenant, "Energy", nil)))

	itx, err := s.BeginImport(ctx, tenant, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer itx.Rollback()

	dups, err := itx.FindDuplicates(ctx, []transaction.CreateParams{{
		Type:        transaction.TypePayable,
		Description: "Energy",
		Amount:      decimal.NewFromInt(100),
	}})
	require.NoError(t, err)
	assert.Empty(t, dups)
}
