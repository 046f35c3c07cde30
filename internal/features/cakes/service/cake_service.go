package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/cakes/domain"
	"cakeshop-backend/internal/features/cakes/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCakeNotFound is returned when no cake matches the given identifier.
var ErrCakeNotFound = errors.New("cake not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CakeService implements ports.CakeService. Slugs are derived from names and
// deduplicated with a unix-millis suffix when they collide.
type CakeService struct {
	repo ports.CakeRepository
	now  func() time.Time
}

// NewCakeService creates a new CakeService.
func NewCakeService(repo ports.CakeRepository) *CakeService {
	return &CakeService{
		repo: repo,
		now:  time.Now,
	}
}

// Create validates and persists a new cake with a unique slug.
func (s *CakeService) Create(ctx context.Context, input ports.CakeInput) (*domain.Cake, error) {
	now := s.now()
	cake := buildCake(input)
	cake.ID = uuid.NewString()
	cake.Reviews = []domain.Review{}
	cake.CreatedAt = now
	cake.UpdatedAt = now

	if err := cake.Validate(); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, cake.Name, "")
	if err != nil {
		return nil, err
	}
	cake.Slug = slug

	if err := s.repo.Insert(ctx, cake); err != nil {
		if errors.Is(err, ports.ErrDuplicateSlug) {
			// Lost a race on the unique index; the suffixed retry cannot
			// collide again within the same millisecond in practice.
			cake.Slug = suffixSlug(cake.Name, s.now())
			err = s.repo.Insert(ctx, cake)
		}
		if err != nil {
			return nil, err
		}
	}
	return cake, nil
}

// CreateMany persists a batch of cakes. The batch fails on the first invalid
// entry, leaving earlier entries in place.
func (s *CakeService) CreateMany(ctx context.Context, inputs []ports.CakeInput) ([]domain.Cake, error) {
	created := make([]domain.Cake, 0, len(inputs))
	for i, input := range inputs {
		cake, err := s.Create(ctx, input)
		if err != nil {
			return created, fmt.Errorf("cake %d (%q): %w", i, input.Name, err)
		}
		created = append(created, *cake)
	}
	return created, nil
}

// GetByID returns the cake or ErrCakeNotFound.
func (s *CakeService) GetByID(ctx context.Context, id string) (*domain.Cake, error) {
	return s.found(s.repo.GetByID(ctx, id))
}

// GetBySlug returns the cake or ErrCakeNotFound.
func (s *CakeService) GetBySlug(ctx context.Context, slug string) (*domain.Cake, error) {
	return s.found(s.repo.GetBySlug(ctx, slug))
}

// GetByFlavor returns all cakes with a matching flavor, newest first.
func (s *CakeService) GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error) {
	return s.repo.GetByFlavor(ctx, flavor)
}

// List returns one page of the catalog, newest first.
func (s *CakeService) List(ctx context.Context, filter ports.CakeFilter) (*ports.CakePage, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	cakes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &ports.CakePage{Cakes: cakes}
	if len(cakes) > filter.Limit {
		page.Cakes = cakes[:filter.Limit]
		cursor := page.Cakes[filter.Limit-1].CreatedAt
		page.NextCursor = &cursor
	}
	return page, nil
}

// Update replaces the writable fields of a cake. The slug is regenerated
// when the name changes; reviews and timestamps are preserved.
func (s *CakeService) Update(ctx context.Context, id string, input ports.CakeInput) (*domain.Cake, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := buildCake(input)
	updated.ID = existing.ID
	updated.Slug = existing.Slug
	updated.Reviews = existing.Reviews
	updated.AverageRating = existing.AverageRating
	updated.TotalReviews = existing.TotalReviews
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if updated.Name != existing.Name {
		slug, err := s.uniqueSlug(ctx, updated.Name, existing.ID)
		if err != nil {
			return nil, err
		}
		updated.Slug = slug
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a cake from the catalog.
func (s *CakeService) Delete(ctx context.Context, id string) error {
	cake, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if cake == nil {
		return ErrCakeNotFound
	}
	logger.Get().Info("cake deleted",
		zap.String("id", id),
		zap.String("slug", cake.Slug))
	return nil
}

// AddReview appends a customer review to the cake behind the slug and
// persists the recalculated rating summary.
func (s *CakeService) AddReview(ctx context.Context, slug string, input ports.ReviewInput) (*domain.Cake, error) {
	cake, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if _, err := cake.AddReview(input.Name, input.Rating, input.Comment, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cake); err != nil {
		return nil, err
	}
	return cake, nil
}

// uniqueSlug derives a slug from the name, suffixing unix-millis when the
// plain slug is taken by a different cake.
func (s *CakeService) uniqueSlug(ctx context.Context, name, ownerID string) (string, error) {
	slug := domain.GenerateSlug(name)

	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if existing == nil || existing.ID == ownerID {
		return slug, nil
	}
	return suffixSlug(name, s.now()), nil
}

func suffixSlug(name string, now time.Time) string {
	return fmt.Sprintf("%s-%d", domain.GenerateSlug(name), now.UnixMilli())
}

func (s *CakeService) found(cake *domain.Cake, err error) (*domain.Cake, error) {
	if err != nil {
		return nil, err
	}
	if cake == nil {
		return nil, ErrCakeNotFound
	}
	return cake, nil
}

func buildCake(input ports.CakeInput) *domain.Cake {
	return &domain.Cake{
		Name:          input.Name,
		Category:      input.Category,
		Flavor:        input.Flavor,
		Image:         input.Image,
		Description:   input.Description,
		Sizes:         input.Sizes,
		Label:         input.Label,
		Tag:           input.Tag,
		Ingredients:   input.Ingredients,
		Allergens:     input.Allergens,
		NutritionInfo: input.NutritionInfo,
	}
}
