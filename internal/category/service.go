package category

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/cache"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error
	// ListCategories returns the tenant's categories ordered by name, case-insensitively.
	// A nil typ lists both sides.
	ListCategories(ctx context.Context, tenantID uuid.UUID, typ *transaction.Type) ([]Category, error)

	CreateCostCenter(ctx context.Context, c *CostCenter) error
	DeleteCostCenter(ctx context.Context, tenantID, id uuid.UUID) error
	ListCostCenters(ctx context.Context, tenantID uuid.UUID) ([]CostCenter, error)
}

type Service struct {
	repo       Repository
	categories *cache.Cache[[]Category]
	centers    *cache.Cache[[]CostCenter]

	// mu orders cache fills against invalidations so a slow fill can't store a listing
	// older than the last write.
	mu sync.Mutex
}

// NewService builds the registry. Either cache may be nil to disable caching.
func NewService(repo Repository, categories *cache.Cache[[]Category], centers *cache.Cache[[]CostCenter]) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		centers:    centers,
	}
}

func (s *Service) AddCategory(ctx context.Context, tenantID uuid.UUID, name string, typ transaction.Type) (*Category, error) {
	name, err := validName(tenantID, name)
	if err != nil {
		return nil, err
	}

	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", transaction.ErrValidation, typ)
	}

	c := &Category{TenantID: tenantID, Name: name, Type: typ}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	s.categories.Del(categoryKeys(tenantID)...)

	return c, nil
}

// RemoveCategory deletes the registry entry only. Transactions carrying the name keep it.
func (s *Service) RemoveCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteCategory(ctx, tenantID, id); err != nil {
		return err
	}

	s.categories.Del(categoryKeys(tenantID)...)

	return nil
}

func (s *Service) ListCategories(ctx context.Context, tenantID uuid.UUID, typ *transaction.Type) ([]Category, error) {
	key := categoryKey(tenantID, typ)

	if cached, ok := s.categories.Get(key); ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.categories.Get(key); ok {
		return cached, nil
	}

	list, err := s.repo.ListCategories(ctx, tenantID, typ)
	if err != nil {
		return nil, err
	}

	s.categories.Set(key, list)

	return list, nil
}

// HasCategory reports whether the registry holds name for typ, ignoring case.
func (s *Service) HasCategory(ctx context.Context, tenantID uuid.UUID, name string, typ transaction.Type) (bool, error) {
	list, err := s.ListCategories(ctx, tenantID, &typ)
	if err != nil {
		return false, err
	}

	name = strings.TrimSpace(name)

	for _, c := range list {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}

	return false, nil
}

func (s *Service) AddCostCenter(ctx context.Context, tenantID uuid.UUID, name string) (*CostCenter, error) {
	name, err := validName(tenantID, name)
	if err != nil {
		return nil, err
	}

	c := &CostCenter{TenantID: tenantID, Name: name}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.CreateCostCenter(ctx, c); err != nil {
		return nil, err
	}

	s.centers.Del(tenantID.String())

	return c, nil
}

func (s *Service) RemoveCostCenter(ctx context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteCostCenter(ctx, tenantID, id); err != nil {
		return err
	}

	s.centers.Del(tenantID.String())

	return nil
}

func (s *Service) ListCostCenters(ctx context.Context, tenantID uuid.UUID) ([]CostCenter, error) {
	key := tenantID.String()

	if cached, ok := s.centers.Get(key); ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.centers.Get(key); ok {
		return cached, nil
	}

	list, err := s.repo.ListCostCenters(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.centers.Set(key, list)

	return list, nil
}

func validName(tenantID uuid.UUID, name string) (string, error) {
	if tenantID == uuid.Nil {
		return "", fmt.Errorf("%w: tenant is required", transaction.ErrValidation)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", transaction.ErrValidation)
	}

	return name, nil
}

func categoryKey(tenantID uuid.UUID, typ *transaction.Type) string {
	if typ == nil {
		return tenantID.String() + ":" + transaction.FilterAll
	}

	return tenantID.String() + ":" + string(*typ)
}

func categoryKeys(tenantID uuid.UUID) []string {
	return []string{
		categoryKey(tenantID, nil),
		categoryKey(tenantID, new(transaction.TypePayable)),
		categoryKey(tenantID, new(transaction.TypeReceivable)),
	}
}
