package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cakeshop-backend/internal/core/cache"
	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/cakes/domain"
	"cakeshop-backend/internal/features/cakes/ports"

	"go.uber.org/zap"
)

const (
	slugCachePrefix = "cake:slug:"
	slugCacheTTL    = 15 * time.Minute
)

// CachedCakeRepository decorates a CakeRepository with a read-through cache
// on slug lookups, the hot path of the storefront product pages. Writes pass
// through and invalidate. Cache failures fall back to the inner repository.
type CachedCakeRepository struct {
	inner ports.CakeRepository
	cache cache.Cache
}

// NewCachedCakeRepository creates a new CachedCakeRepository.
func NewCachedCakeRepository(inner ports.CakeRepository, c cache.Cache) *CachedCakeRepository {
	return &CachedCakeRepository{inner: inner, cache: c}
}

func (r *CachedCakeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Cake, error) {
	key := slugCachePrefix + slug

	raw, err := r.cache.Get(ctx, key)
	if err == nil {
		var cached domain.Cake
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		// Unreadable entry, drop it and fall through to the database.
		_ = r.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrNotFound) {
		logger.Get().Warn("cake cache read failed",
			zap.String("slug", slug),
			zap.Error(err))
	}

	cake, err := r.inner.GetBySlug(ctx, slug)
	if err != nil || cake == nil {
		return cake, err
	}

	if raw, err := json.Marshal(cake); err == nil {
		if err := r.cache.Set(ctx, key, raw, slugCacheTTL); err != nil {
			logger.Get().Warn("cake cache write failed",
				zap.String("slug", slug),
				zap.Error(err))
		}
	}
	return cake, nil
}

func (r *CachedCakeRepository) Update(ctx context.Context, cake *domain.Cake) error {
	// The stored slug may differ from the incoming one after a rename, and the
	// retired slug keeps its cache entry until evicted.
	prior, err := r.inner.GetByID(ctx, cake.ID)
	if err != nil {
		logger.Get().Warn("cake cache prior-slug lookup failed",
			zap.String("id", cake.ID),
			zap.Error(err))
	}

	if err := r.inner.Update(ctx, cake); err != nil {
		return err
	}

	if prior != nil && prior.Slug != cake.Slug {
		r.invalidate(ctx, prior.Slug)
	}
	r.invalidate(ctx, cake.Slug)
	return nil
}

func (r *CachedCakeRepository) Delete(ctx context.Context, id string) (*domain.Cake, error) {
	cake, err := r.inner.Delete(ctx, id)
	if err == nil && cake != nil {
		r.invalidate(ctx, cake.Slug)
	}
	return cake, err
}

func (r *CachedCakeRepository) invalidate(ctx context.Context, slug string) {
	if slug == "" {
		return
	}
	if err := r.cache.Delete(ctx, slugCachePrefix+slug); err != nil {
		logger.Get().Warn("cake cache invalidation failed",
			zap.String("slug", slug),
			zap.Error(err))
	}
}

func (r *CachedCakeRepository) Insert(ctx context.Context, cake *domain.Cake) error {
	return r.inner.Insert(ctx, cake)
}

func (r *CachedCakeRepository) GetByID(ctx context.Context, id string) (*domain.Cake, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedCakeRepository) GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error) {
	return r.inner.GetByFlavor(ctx, flavor)
}

func (r *CachedCakeRepository) List(ctx context.Context, filter ports.CakeFilter) ([]domain.Cake, error) {
	return r.inner.List(ctx, filter)
}

func (r *CachedCakeRepository) ListSlugs(ctx context.Context) ([]ports.SlugEntry, error) {
	return r.inner.ListSlugs(ctx)
}

func (r *CachedCakeRepository) ListMissingSlugs(ctx context.Context) ([]domain.Cake, error) {
	return r.inner.ListMissingSlugs(ctx)
}
