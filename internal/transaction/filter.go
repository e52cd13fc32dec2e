package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilterAll is the option value that disables a status or category constraint.
const FilterAll = "all"

// ListFilter selects the subset of a tenant's transactions fed to listings and reports.
// A nil field imposes no constraint. Date bounds apply to the due date and are inclusive.
type ListFilter struct {
	TenantID   uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	Status     *Status
	Category   *string
	CostCenter *string
	Search     *string
	Type       *Type
}

// ParseStatus converts a status option, returning nil for "" and "all".
func ParseStatus(s string) (*Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == FilterAll {
		return nil, nil
	}

	status := Status(s)
	if !status.Valid() {
		return nil, validationError("unknown status %q", s)
	}

	return &status, nil
}

// ParseType converts a type option, returning nil for "" and "all".
func ParseType(s string) (*Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == FilterAll {
		return nil, nil
	}

	t := Type(s)
	if !t.Valid() {
		return nil, validationError("unknown type %q", s)
	}

	return &t, nil
}

// ParseOption converts a free-form option (category, cost center, search), returning nil
// for "" and, when allowAll is set, for "all".
func ParseOption(s string, allowAll bool) *string {
	s = strings.TrimSpace(s)
	if s == "" || (allowAll && strings.EqualFold(s, FilterAll)) {
		return nil
	}

	return &s
}

// ParseDate parses a YYYY-MM-DD option, returning nil for "".
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, validationError("invalid date %q", s)
	}

	return &t, nil
}

// Validate checks the filter is usable. An inverted date range is rejected.
func (f ListFilter) Validate() error {
	if f.TenantID == uuid.Nil {
		return validationError("tenant is required")
	}

	if f.DateFrom != nil && f.DateTo != nil && Day(*f.DateTo).Before(Day(*f.DateFrom)) {
		return validationError("date range end is before its start")
	}

	return nil
}

// Matches reports whether tx belongs to the filtered subset.
func (f ListFilter) Matches(tx *Transaction) bool {
	if tx.TenantID != f.TenantID {
		return false
	}

	if f.DateFrom != nil || f.DateTo != nil {
		if tx.DueDate == nil {
			return false
		}

		due := Day(*tx.DueDate)
		if f.DateFrom != nil && due.Before(Day(*f.DateFrom)) {
			return false
		}

		if f.DateTo != nil && due.After(Day(*f.DateTo)) {
			return false
		}
	}

	if f.Status != nil && tx.Status != *f.Status {
		return false
	}

	if f.Type != nil && tx.Type != *f.Type {
		return false
	}

	// Uncategorized selects entries without a category, matching the report key.
	if f.Category != nil && tx.CategoryName() != *f.Category {
		return false
	}

	if f.CostCenter != nil && (tx.CostCenter == nil || *tx.CostCenter != *f.CostCenter) {
		return false
	}

	if f.Search != nil && !matchesText(tx, *f.Search) {
		return false
	}

	return true
}

func matchesText(tx *Transaction, search string) bool {
	needle := strings.ToLower(search)

	for _, field := range []*string{&tx.Description, tx.Category, tx.Notes} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}

	return false
}

// ParseCategory converts a category option, returning nil for "" and "all".
func ParseCategory(s string) *string {
	return ParseOption(s, true)
}
