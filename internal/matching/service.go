// Package matching suggests categories for new transactions from learned description rules.
package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Rule maps descriptions containing Pattern (case-insensitive) to Category.
type Rule struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Type      transaction.Type
	Pattern   string
	Category  string
	CreatedAt time.Time
}

type Repository interface {
	// FindCategory returns the category of the longest matching rule, newest first on ties,
	// or "" when no rule matches.
	FindCategory(ctx context.Context, tenantID uuid.UUID, typ transaction.Type, description string) (string, error)
	CreateRule(ctx context.Context, rule *Rule) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns a category for the description, or "" if no rule matches.
func (s *Service) Suggest(ctx context.Context, tenantID uuid.UUID, typ transaction.Type, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}

	return s.repo.FindCategory(ctx, tenantID, typ, description)
}

// Learn remembers that descriptions containing pattern belong to category.
func (s *Service) Learn(ctx context.Context, tenantID uuid.UUID, typ transaction.Type, pattern, category string) (*Rule, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant is required", transaction.ErrValidation)
	}

	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", transaction.ErrValidation, typ)
	}

	rule := &Rule{
		TenantID: tenantID,
		Type:     typ,
		Pattern:  strings.TrimSpace(pattern),
		Category: strings.TrimSpace(category),
	}

	if rule.Pattern == "" || rule.Category == "" {
		return nil, fmt.Errorf("%w: pattern and category are required", transaction.ErrValidation)
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}
