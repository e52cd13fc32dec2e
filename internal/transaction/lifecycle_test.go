package transaction_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/transaction/memory"
)

var clockAt = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func newMemoryService(t *testing.T, opts ...transaction.Option) (*transaction.Service, *transaction.Transaction) {
	t.Helper()

	opts = append([]transaction.Option{transaction.WithClock(func() time.Time { return clockAt })}, opts...)
	svc := transaction.NewService(memory.New(), opts...)

	tx, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)

	return svc, tx
}

func TestTransition_Apply(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	paidAt := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name    string
		start   transaction.Transaction
		tr      transaction.Transition
		wantErr bool
		check   func(t *testing.T, tx *transaction.Transaction)
	}

	tests := []testCase{
		{
			name:  "PendingToPaid",
			start: transaction.Transaction{Status: transaction.StatusPending},
			tr: transaction.Transition{
				From: []transaction.Status{transaction.StatusPending},
				To:   transaction.StatusPaid,
				At:   at,
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, transaction.StatusPaid, tx.Status)
				assert.Equal(t, at, *tx.PaidAt)
				assert.Equal(t, at, *tx.UpdatedAt)
			},
		},
		{
			name:  "PaidToExcludedKeepsPaidAt",
			start: transaction.Transaction{Status: transaction.StatusPaid, PaidAt: &paidAt},
			tr: transaction.Transition{
				From: []transaction.Status{transaction.StatusPending, transaction.StatusPaid},
				To:   transaction.StatusExcluded,
				At:   at,
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, paidAt, *tx.PaidAt)
				assert.Equal(t, at, *tx.ExcludedAt)
			},
		},
		{
			name: "ReactivateClearsMarkers",
			start: transaction.Transaction{
				Status:     transaction.StatusCancelled,
				PaidAt:     &paidAt,
				ExcludedAt: &at,
			},
			tr: transaction.Transition{
				From: []transaction.Status{transaction.StatusExcluded, transaction.StatusCancelled},
				To:   transaction.StatusPending,
				At:   at,
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, transaction.StatusPending, tx.Status)
				assert.Nil(t, tx.PaidAt)
				assert.Nil(t, tx.ExcludedAt)
			},
		},
		{
			name:  "WrongSourceStatus",
			start: transaction.Transaction{Status: transaction.StatusPaid, PaidAt: &paidAt},
			tr: transaction.Transition{
				From: []transaction.Status{transaction.StatusPending},
				To:   transaction.StatusPaid,
				At:   at,
			},
			wantErr: true,
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, paidAt, *tx.PaidAt)
				assert.Nil(t, tx.UpdatedAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.start

			err := tt.tr.Apply(&tx)
			if tt.wantErr {
				assert.ErrorIs(t, err, transaction.ErrInvalidTransition)

				var terr *transaction.TransitionError
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, tt.start.Status, terr.From)
			} else {
				require.NoError(t, err)
			}

			tt.check(t, &tx)
		})
	}
}

func TestService_MarkPaid(t *testing.T) {
	svc, tx := newMemoryService(t)
	ctx := context.Background()

	paid, err := svc.MarkPaid(ctx, tenantID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, clockAt, *paid.PaidAt)

	_, err = svc.MarkPaid(ctx, tenantID, tx.ID)
	assert.ErrorIs(t, err, transaction.ErrInvalidTransition)

	stored, err := svc.Get(ctx, tenantID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, clockAt, *stored.PaidAt)
}

func TestService_MarkPaid_NotFound(t *testing.T) {
	svc, tx := newMemoryService(t)

	_, err := svc.MarkPaid(context.Background(), tenantID, uuid.New())
	assert.ErrorIs(t, err, transaction.ErrNotFound)

	_, err = svc.MarkPaid(context.Background(), uuid.New(), tx.ID)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestService_ExcludeReactivate(t *testing.T) {
	svc, tx := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.MarkPaid(ctx, tenantID, tx.ID)
	require.NoError(t, err)

	excluded, err := svc.Exclude(ctx, tenantID, tx.ID, transaction.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCancelled, excluded.Status)
	assert.NotNil(t, excluded.PaidAt)
	assert.NotNil(t, excluded.ExcludedAt)

	_, err = svc.Exclude(ctx, tenantID, tx.ID, transaction.StatusExcluded)
	assert.ErrorIs(t, err, transaction.ErrInvalidTransition)

	reactivated, err := svc.Reactivate(ctx, tenantID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, reactivated.Status)
	assert.Nil(t, reactivated.PaidAt)
	assert.Nil(t, reactivated.ExcludedAt)

	_, err = svc.Reactivate(ctx, tenantID, tx.ID)
	assert.ErrorIs(t, err, transaction.ErrInvalidTransition)
}

func TestService_Exclude_InvalidReason(t *testing.T) {
	svc, tx := newMemoryService(t)

	_, err := svc.Exclude(context.Background(), tenantID, tx.ID, transaction.StatusPaid)
	assert.ErrorIs(t, err, transaction.ErrValidation)
}

func TestService_MarkPaid_Concurrent(t *testing.T) {
	svc, tx := newMemoryService(t)

	var (
		g         errgroup.Group
		succeeded atomic.Int32
		rejected  atomic.Int32
	)

	for range 16 {
		g.Go(func() error {
			_, err := svc.MarkPaid(context.Background(), tenantID, tx.ID)

			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, transaction.ErrInvalidTransition):
				rejected.Add(1)
			default:
				return err
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(15), rejected.Load())
}

func TestService_Transition_Publishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := transaction.NewMockEventPublisher(ctrl)
	svc, tx := newMemoryService(t, transaction.WithPublisher(publisher))

	publisher.EXPECT().
		PublishTransition(gomock.Any(), transaction.Event{
			TenantID:      tenantID,
			TransactionID: tx.ID,
			Type:          transaction.TypePayable,
			From:          transaction.StatusPending,
			To:            transaction.StatusPaid,
			At:            clockAt,
		}).
		Return(errors.New("broker down"))

	paid, err := svc.MarkPaid(context.Background(), tenantID, tx.ID)
	require.NoError(t, err, "publish failures must not fail the transition")
	assert.Equal(t, transaction.StatusPaid, paid.Status)
}

func TestService_Transition_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	publisher := transaction.NewMockEventPublisher(ctrl)
	svc := transaction.NewService(repo, transaction.WithPublisher(publisher))

	repo.EXPECT().
		TransitionStatus(gomock.Any(), gomock.Any()).
		Return(nil, transaction.Status(""), errors.New("connection reset"))

	_, err := svc.MarkPaid(context.Background(), tenantID, uuid.New())
	assert.ErrorContains(t, err, "transition to paid")
}

func TestService_Exclude_DropsFromActiveListing(t *testing.T) {
	svc, tx := newMemoryService(t)
	ctx := context.Background()

	other, err := svc.Create(ctx, transaction.CreateParams{
		TenantID:    tenantID,
		Type:        transaction.TypeReceivable,
		Description: "Retainer",
		Amount:      decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	_, err = svc.Exclude(ctx, tenantID, tx.ID, transaction.StatusExcluded)
	require.NoError(t, err)

	pending, err := transaction.Collect(svc.List(ctx, transaction.ListFilter{
		TenantID: tenantID,
		Status:   new(transaction.StatusPending),
	}))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
}
