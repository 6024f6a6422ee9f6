package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salarydash/internal/cache"
	"salarydash/internal/core"
	"salarydash/internal/metrics"
	"salarydash/internal/ports"
)

const categoriesKey = "categories"

// CategoryService serves the category list from an LRU cache. The cache is
// dropped whenever a category is added.
type CategoryService struct {
	store ports.CategoryStore
	cache *cache.LRUCache[[]core.Category]
}

// NewCategoryService caches the list for ttl; a zero ttl disables caching.
func NewCategoryService(store ports.CategoryStore, ttl time.Duration) *CategoryService {
	s := &CategoryService{store: store}
	if ttl > 0 {
		s.cache = cache.NewLRUCache[[]core.Category](1, ttl)
		s.cache.OnLookup = metrics.CacheLookup("categories")
	}
	return s
}

// Cache returns the underlying cache, nil when caching is disabled.
func (s *CategoryService) Cache() *cache.LRUCache[[]core.Category] {
	return s.cache
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	var (
		list []core.Category
		err  error
	)
	if s.cache == nil {
		list, err = s.store.ListCategories(ctx)
	} else {
		list, err = s.cache.GetOrLoad(ctx, categoriesKey, s.store.ListCategories)
	}
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return append([]core.Category(nil), list...), nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(categoriesKey)
	}
	return created, nil
}
