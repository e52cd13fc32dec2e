package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Transition is a compare-and-set request: the store applies To only when the current
// status is one of From. Stores return the updated row and the status it replaced.
type Transition struct {
	TenantID uuid.UUID
	ID       uuid.UUID
	From     []Status
	To       Status
	At       time.Time
}

// Apply mutates tx according to the transition, stamping or clearing lifecycle markers.
// Stores call it once they hold the row.
func (tr Transition) Apply(tx *Transaction) error {
	if !slices.Contains(tr.From, tx.Status) {
		return &TransitionError{From: tx.Status, To: tr.To}
	}

	switch tr.To {
	case StatusPaid:
		tx.PaidAt = new(tr.At)
	case StatusExcluded, StatusCancelled:
		tx.ExcludedAt = new(tr.At)
	case StatusPending:
		tx.PaidAt = nil
		tx.ExcludedAt = nil
	}

	tx.Status = tr.To
	tx.UpdatedAt = new(tr.At)

	return nil
}

// Event describes a stored lifecycle transition.
type Event struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Type          Type      `json:"type"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	At            time.Time `json:"at"`
}

// MarkPaid settles a pending transaction.
func (s *Service) MarkPaid(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error) {
	return s.transition(ctx, tenantID, id, []Status{StatusPending}, StatusPaid)
}

// Exclude soft-deletes a pending or paid transaction. PaidAt is kept.
func (s *Service) Exclude(ctx context.Context, tenantID, id uuid.UUID, reason Status) (*Transaction, error) {
	if !reason.Inactive() {
		return nil, validationError("exclusion reason must be %s or %s", StatusExcluded, StatusCancelled)
	}

	return s.transition(ctx, tenantID, id, []Status{StatusPending, StatusPaid}, reason)
}

// Reactivate returns an excluded or cancelled transaction to pending, even if it had been paid.
func (s *Service) Reactivate(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error) {
	return s.transition(ctx, tenantID, id, []Status{StatusExcluded, StatusCancelled}, StatusPending)
}

func (s *Service) transition(ctx context.Context, tenantID, id uuid.UUID, from []Status, to Status) (*Transaction, error) {
	tr := Transition{
		TenantID: tenantID,
		ID:       id,
		From:     from,
		To:       to,
		At:       s.now().UTC(),
	}

	tx, prev, err := s.repo.TransitionStatus(ctx, tr)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("transition to %s: %w", to, err)
	}

	s.publish(ctx, tx, prev, to, tr.At)

	return tx, nil
}

func (s *Service) publish(ctx context.Context, tx *Transaction, from, to Status, at time.Time) {
	if s.publisher == nil {
		return
	}

	event := Event{
		TenantID:      tx.TenantID,
		TransactionID: tx.ID,
		Type:          tx.Type,
		From:          from,
		To:            to,
		At:            at,
	}

	if err := s.publisher.PublishTransition(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish transition", "transaction_id", tx.ID, "to", to, "error", err)
	}
}
