// Package memory is an in-process matching.Repository.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/matching"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Store struct {
	mu    sync.RWMutex
	rules []matching.Rule
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) FindCategory(_ context.Context, tenantID uuid.UUID, typ transaction.Type, description string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	description = strings.ToLower(description)

	var best *matching.Rule

	// Rules are appended in creation order, so a later rule of equal length wins.
	for i := range s.rules {
		r := &s.rules[i]
		if r.TenantID != tenantID || r.Type != typ || !strings.Contains(description, strings.ToLower(r.Pattern)) {
			continue
		}

		if best == nil || len(r.Pattern) >= len(best.Pattern) {
			best = r
		}
	}

	if best == nil {
		return "", nil
	}

	return best.Category, nil
}

func (s *Store) CreateRule(_ context.Context, rule *matching.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule.ID = uuid.New()
	rule.CreatedAt = s.now().UTC()
	s.rules = append(s.rules, *rule)

	return nil
}
