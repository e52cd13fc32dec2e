package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the side of the ledger a transaction sits on.
type Type string

const (
	TypePayable    Type = "payable"
	TypeReceivable Type = "receivable"
)

func (t Type) Valid() bool {
	return t == TypePayable || t == TypeReceivable
}

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExcluded  Status = "excluded"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusExcluded, StatusCancelled:
		return true
	}

	return false
}

// Inactive reports whether the status is one of the soft-deleted states.
func (s Status) Inactive() bool {
	return s == StatusExcluded || s == StatusCancelled
}

// Uncategorized is the name reported for transactions without a category.
const Uncategorized = "Uncategorized"

// Transaction represents a payable or receivable entry in a tenant's ledger.
type Transaction struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Type        Type
	Description string
	Amount      decimal.Decimal
	Status      Status
	IssueDate   *time.Time
	DueDate     *time.Time
	PaidAt      *time.Time
	ExcludedAt  *time.Time
	Category    *string // Holds the category name, not a registry reference
	CostCenter  *string
	Notes       *string
	CityRef     *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// CategoryName returns the category or Uncategorized when absent.
func (t *Transaction) CategoryName() string {
	if t.Category == nil || *t.Category == "" {
		return Uncategorized
	}

	return *t.Category
}

// Clone returns a deep copy so callers can't mutate stored state through shared pointers.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.IssueDate = clonePtr(t.IssueDate)
	c.DueDate = clonePtr(t.DueDate)
	c.PaidAt = clonePtr(t.PaidAt)
	c.ExcludedAt = clonePtr(t.ExcludedAt)
	c.Category = clonePtr(t.Category)
	c.CostCenter = clonePtr(t.CostCenter)
	c.Notes = clonePtr(t.Notes)
	c.CityRef = clonePtr(t.CityRef)
	c.UpdatedAt = clonePtr(t.UpdatedAt)

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	return new(Day(*t))
}
