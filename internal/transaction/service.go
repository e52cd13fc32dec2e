package transaction

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	TransitionStatus(ctx context.Context, tr Transition) (*Transaction, Status, error)

	ListTransactions(ctx context.Context, filter ListFilter) iter.Seq2[*Transaction, error]

	BeginImport(ctx context.Context, tenantID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

// CategoryResolver lets the service check the registry when defaulting categories.
type CategoryResolver interface {
	HasCategory(ctx context.Context, tenantID uuid.UUID, name string, typ Type) (bool, error)
}

// EventPublisher receives lifecycle events after a transition has been stored.
type EventPublisher interface {
	PublishTransition(ctx context.Context, event Event) error
}

type Service struct {
	repo            Repository
	categories      CategoryResolver
	defaultCategory string
	publisher       EventPublisher
	now             func() time.Time
}

type Option func(*Service)

// WithCategoryDefault makes Create drop the form default category once it has been
// removed from the registry.
func WithCategoryDefault(resolver CategoryResolver, name string) Option {
	return func(s *Service) {
		s.categories = resolver
		s.defaultCategory = name
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	TenantID    uuid.UUID
	Type        Type
	Description string
	Amount      decimal.Decimal
	Status      Status
	IssueDate   *time.Time
	DueDate     *time.Time
	PaidAt      *time.Time
	Category    *string
	CostCenter  *string
	Notes       *string
	CityRef     *string
}

// UpdateParams is a partial patch. Nil fields are left untouched; an empty string clears
// an optional text field.
type UpdateParams struct {
	Type           *Type
	Status         *Status
	Description    *string
	Amount         *decimal.Decimal
	IssueDate      *time.Time
	DueDate        *time.Time
	ClearIssueDate bool
	ClearDueDate   bool
	Category       *string
	CostCenter     *string
	Notes          *string
	CityRef        *string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	tx, err := s.build(params)
	if err != nil {
		return nil, err
	}

	if err := s.applyCategoryDefault(ctx, tx); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, tenantID, id)
}

// List returns a lazy sequence over the filtered transactions ordered by due date
// (undated last) then id. Ranging over it again re-runs the query.
func (s *Service) List(ctx context.Context, filter ListFilter) iter.Seq2[*Transaction, error] {
	if err := filter.Validate(); err != nil {
		return func(yield func(*Transaction, error) bool) {
			yield(nil, err)
		}
	}

	return s.repo.ListTransactions(ctx, filter)
}

// Update applies the patch all-or-nothing. Type and status can't be changed here.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, patch UpdateParams) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != nil && *patch.Type != tx.Type {
		return nil, validationError("type is immutable")
	}

	if patch.Status != nil && *patch.Status != tx.Status {
		return nil, validationError("status changes go through pay, exclude or reactivate")
	}

	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			return nil, validationError("description is required")
		}

		tx.Description = desc
	}

	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}

		tx.Amount = *patch.Amount
	}

	switch {
	case patch.ClearIssueDate:
		tx.IssueDate = nil
	case patch.IssueDate != nil:
		tx.IssueDate = dayPtr(patch.IssueDate)
	}

	switch {
	case patch.ClearDueDate:
		tx.DueDate = nil
	case patch.DueDate != nil:
		tx.DueDate = dayPtr(patch.DueDate)
	}

	if patch.Category != nil {
		tx.Category = optional(*patch.Category)
	}

	if patch.CostCenter != nil {
		tx.CostCenter = optional(*patch.CostCenter)
	}

	if patch.Notes != nil {
		tx.Notes = optional(*patch.Notes)
	}

	if patch.CityRef != nil {
		tx.CityRef = optional(*patch.CityRef)
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// ImportBatch stores params unless some of them look like entries already in the ledger,
// in which case nothing is written and the conflicts are reported for review.
func (s *Service) ImportBatch(ctx context.Context, tenantID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	txs, err := s.buildBatch(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, tenantID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[keyOf(d)] = d
	}

	var (
		newParams []CreateParams
		conflicts []Conflict
	)

	for i, p := range params {
		existing, found := lookup[keyOf(txs[i])]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "imported transactions", "tenant_id", tenantID, "count", len(txs))

	return &ImportResult{Imported: txs}, nil
}

// CreateBatch stores every entry in one database transaction without duplicate checks.
func (s *Service) CreateBatch(ctx context.Context, tenantID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	txs, err := s.buildBatch(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, tenantID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}

func (s *Service) build(p CreateParams) (*Transaction, error) {
	if p.TenantID == uuid.Nil {
		return nil, validationError("tenant is required")
	}

	if !p.Type.Valid() {
		return nil, validationError("unknown type %q", p.Type)
	}

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return nil, validationError("description is required")
	}

	if err := validateAmount(p.Amount); err != nil {
		return nil, err
	}

	tx := &Transaction{
		TenantID:    p.TenantID,
		Type:        p.Type,
		Description: desc,
		Amount:      p.Amount,
		Status:      StatusPending,
		IssueDate:   dayPtr(p.IssueDate),
		DueDate:     dayPtr(p.DueDate),
		Category:    optionalPtr(p.Category),
		CostCenter:  optionalPtr(p.CostCenter),
		Notes:       optionalPtr(p.Notes),
		CityRef:     optionalPtr(p.CityRef),
	}

	switch p.Status {
	case "", StatusPending:
		if p.PaidAt != nil {
			return nil, validationError("paid_at requires status %s", StatusPaid)
		}
	case StatusPaid:
		if p.PaidAt == nil {
			return nil, validationError("status %s requires paid_at", StatusPaid)
		}

		tx.Status = StatusPaid
		tx.PaidAt = new(p.PaidAt.UTC())
	default:
		return nil, validationError("transactions can't be created as %s", p.Status)
	}

	return tx, nil
}

func (s *Service) buildBatch(ctx context.Context, tenantID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	txs := make([]*Transaction, len(params))

	for i := range params {
		params[i].TenantID = tenantID

		tx, err := s.build(params[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		if err := s.applyCategoryDefault(ctx, tx); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		txs[i] = tx
	}

	return txs, nil
}

// validateAmount accepts positive amounts with at most cent precision, which is what the
// amount column stores.
func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return validationError("amount must be greater than zero")
	}

	if !d.Equal(d.Round(2)) {
		return validationError("amount %s has more than two decimal places", d)
	}

	return nil
}

func (s *Service) applyCategoryDefault(ctx context.Context, tx *Transaction) error {
	if s.categories == nil || tx.Category == nil || !strings.EqualFold(*tx.Category, s.defaultCategory) {
		return nil
	}

	ok, err := s.categories.HasCategory(ctx, tx.TenantID, *tx.Category, tx.Type)
	if err != nil {
		return fmt.Errorf("checking default category: %w", err)
	}

	if !ok {
		tx.Category = nil
	}

	return nil
}

type dupKey struct {
	Date        string
	Amount      string
	Type        Type
	Description string
}

func keyOf(tx *Transaction) dupKey {
	k := dupKey{
		Amount:      tx.Amount.String(),
		Type:        tx.Type,
		Description: strings.ToLower(tx.Description),
	}

	if tx.DueDate != nil {
		k.Date = tx.DueDate.Format(time.DateOnly)
	}

	return k
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	var minDate, maxDate time.Time

	for _, p := range params {
		if p.DueDate == nil {
			continue
		}

		d := Day(*p.DueDate)
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}

		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}

	return minDate, maxDate
}

// Collect drains a sequence, stopping at the first error.
func Collect(seq iter.Seq2[*Transaction, error]) ([]*Transaction, error) {
	var txs []*Transaction

	for tx, err := range seq {
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}

func optionalPtr(s *string) *string {
	if s == nil {
		return nil
	}

	return optional(*s)
}
