// Package memory is an in-process category.Repository.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/category"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Store struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]category.Category
	centers    map[uuid.UUID]category.CostCenter
}

func New() *Store {
	return &Store{
		categories: make(map[uuid.UUID]category.Category),
		centers:    make(map[uuid.UUID]category.CostCenter),
	}
}

func (s *Store) CreateCategory(_ context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.TenantID == c.TenantID && existing.Type == c.Type && strings.EqualFold(existing.Name, c.Name) {
			return transaction.ErrDuplicateName
		}
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	s.categories[c.ID] = *c

	return nil
}

func (s *Store) DeleteCategory(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return transaction.ErrNotFound
	}

	delete(s.categories, id)

	return nil
}

func (s *Store) ListCategories(_ context.Context, tenantID uuid.UUID, typ *transaction.Type) ([]category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []category.Category

	for _, c := range s.categories {
		if c.TenantID != tenantID || (typ != nil && c.Type != *typ) {
			continue
		}

		list = append(list, c)
	}

	slices.SortFunc(list, func(a, b category.Category) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Type, b.Type),
		)
	})

	return list, nil
}

func (s *Store) CreateCostCenter(_ context.Context, c *category.CostCenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.centers {
		if existing.TenantID == c.TenantID && strings.EqualFold(existing.Name, c.Name) {
			return transaction.ErrDuplicateName
		}
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	s.centers[c.ID] = *c

	return nil
}

func (s *Store) DeleteCostCenter(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.centers[id]
	if !ok || c.TenantID != tenantID {
		return transaction.ErrNotFound
	}

	delete(s.centers, id)

	return nil
}

func (s *Store) ListCostCenters(_ context.Context, tenantID uuid.UUID) ([]category.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []category.CostCenter

	for _, c := range s.centers {
		if c.TenantID == tenantID {
			list = append(list, c)
		}
	}

	slices.SortFunc(list, func(a, b category.CostCenter) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	return list, nil
}
