package category

import (
	"context"

	"github.com/cardwise/cardwise-api/internal/pkg/refcache"
)

const cacheKey = "refdata:categories"

type lister interface {
	ListAll(ctx context.Context) ([]Category, error)
}

// Service serves the category forest through the reference cache.
type Service struct {
	repo  lister
	cache *refcache.Cache
}

func NewService(repo lister, cache *refcache.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns all categories.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.cache.GetJSON(ctx, cacheKey, &categories, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// LoadIndex returns a validated lookup view of the forest.
func (s *Service) LoadIndex(ctx context.Context) (*Index, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(categories)
}

// Invalidate drops the cached forest. Called by the admin CRUD
// collaborator after category writes.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKey)
}
