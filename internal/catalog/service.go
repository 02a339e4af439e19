package catalog

import (
	"fmt"
	"sync"

	"arkana/internal/domain"
	u "arkana/internal/utils"
)

// Service owns the site catalog. Every mutation runs under one lock and is
// persisted before it becomes visible, so a failed save leaves the catalog as
// it was.
type Service struct {
	mu      sync.RWMutex
	store   Store
	current *domain.Catalog
}

func NewService(store Store) *Service {
	return &Service{store: store, current: store.Load()}
}

// Snapshot returns a deep copy of the current catalog.
func (s *Service) Snapshot() *domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Service) Category(key string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Get(key)
}

// Put writes cat under cat.Key, creating or overwriting the entry.
func (s *Service) Put(cat domain.Category) error {
	if cat.Key == "" {
		return domain.ErrInvalidCategoryKey
	}
	return s.mutate(func(c *domain.Catalog) error {
		c.Put(cat)
		return nil
	})
}

// Create adds a seeded category under the normalized form of rawKey. Existing
// keys are never overwritten.
func (s *Service) Create(rawKey string) (domain.Category, error) {
	key := domain.NormalizeCategoryKey(rawKey)
	if key == "" {
		return domain.Category{}, domain.ErrInvalidCategoryKey
	}
	cat := NewCategory(key)
	err := s.mutate(func(c *domain.Catalog) error {
		if c.Has(key) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryExists, key)
		}
		c.Put(cat)
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	u.Info("Category created", "key", key)
	return cat, nil
}

// Delete removes key unless it is the only category left.
func (s *Service) Delete(key string) error {
	err := s.mutate(func(c *domain.Catalog) error {
		if !c.Has(key) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, key)
		}
		if c.Len() <= 1 {
			return domain.ErrLastCategory
		}
		c.Delete(key)
		return nil
	})
	if err == nil {
		u.Info("Category deleted", "key", key)
	}
	return err
}

// Reset drops the persisted catalog and reverts to the built-in one.
func (s *Service) Reset() (*domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.Reset()
	if err != nil {
		return nil, err
	}
	s.current = c
	u.Info("Catalog reset to defaults")
	return c.Clone(), nil
}

func (s *Service) mutate(fn func(c *domain.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.store.Save(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// NewCategory returns the placeholder category seeded by Create.
func NewCategory(key string) domain.Category {
	return domain.Category{
		Key:   key,
		Title: "Nueva Categoría",
		Blurb: "Descripción de la nueva categoría",
		Tiers: []domain.Tier{{Name: "Básico", Price: "$0", Features: []string{NewFeature}}},
	}
}
