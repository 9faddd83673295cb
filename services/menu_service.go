package services

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
	"github.com/websitedesigna/tastygrill/repository"
)

type MenuCache interface {
	Get(ctx context.Context) ([]models.MenuCategory, bool, error)
	Set(ctx context.Context, categories []models.MenuCategory) error
	Invalidate(ctx context.Context) error
}

// MenuService serves the catalog, read through a cache.
type MenuService struct {
	repo    repository.MenuRepository
	cache   MenuCache
	metrics *awspkg.MetricsClient
	log     *zap.Logger
}

func NewMenuService(repo repository.MenuRepository, cache MenuCache, metrics *awspkg.MetricsClient, log *zap.Logger) *MenuService {
	return &MenuService{repo: repo, cache: cache, metrics: metrics, log: log}
}

func (s *MenuService) ListMenu(ctx context.Context) ([]models.MenuCategory, error) {
	if s.cache != nil {
		categories, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("menu cache read failed", zap.Error(err))
		}
		if ok {
			s.metrics.RecordCountAsync(awspkg.MetricCacheHits, map[string]string{"cache": "menu"})
			return categories, nil
		}
		s.metrics.RecordCountAsync(awspkg.MetricCacheMisses, map[string]string{"cache": "menu"})
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load menu", err)
	}
	if categories == nil {
		categories = []models.MenuCategory{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categories); err != nil {
			s.log.Warn("menu cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

// Invalidate drops the cached menu, e.g. after seeding.
func (s *MenuService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("menu cache invalidate failed", zap.Error(err))
	}
}
