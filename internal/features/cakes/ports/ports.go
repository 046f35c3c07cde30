package ports

import (
	"context"
	"errors"
	"time"

	"cakeshop-backend/internal/features/cakes/domain"
)

// ErrDuplicateSlug is returned by repositories when an insert or update hits
// the unique index on slug.
var ErrDuplicateSlug = errors.New("slug already exists")

// CakeInput carries the writable fields of a cake. Slug is derived from the
// name by the service, never supplied by callers.
type CakeInput struct {
	Name          string
	Category      string
	Flavor        string
	Image         string
	Description   string
	Sizes         []domain.Size
	Label         string
	Tag           string
	Ingredients   []string
	Allergens     []string
	NutritionInfo *domain.NutritionInfo
}

// ReviewInput carries a new customer review.
type ReviewInput struct {
	Name    string
	Rating  int
	Comment string
}

// CakeFilter paginates catalog listings on created_at descending.
type CakeFilter struct {
	Category string
	Cursor   *time.Time
	Limit    int
}

// CakePage is one page of a cursor-paginated catalog listing.
type CakePage struct {
	Cakes      []domain.Cake
	NextCursor *time.Time
}

// CakeService defines the primary port for catalog operations.
type CakeService interface {
	Create(ctx context.Context, input CakeInput) (*domain.Cake, error)
	CreateMany(ctx context.Context, inputs []CakeInput) ([]domain.Cake, error)
	GetByID(ctx context.Context, id string) (*domain.Cake, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Cake, error)
	GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error)
	List(ctx context.Context, filter CakeFilter) (*CakePage, error)
	Update(ctx context.Context, id string, input CakeInput) (*domain.Cake, error)
	Delete(ctx context.Context, id string) error
	AddReview(ctx context.Context, slug string, input ReviewInput) (*domain.Cake, error)
}

// CakeRepository defines the secondary port for durable catalog storage.
type CakeRepository interface {
	// Insert persists a new cake. Returns ErrDuplicateSlug when the slug
	// collides with an existing row.
	Insert(ctx context.Context, cake *domain.Cake) error
	// GetByID loads a cake by record id. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Cake, error)
	// GetBySlug loads a cake by slug. Returns nil, nil when absent.
	GetBySlug(ctx context.Context, slug string) (*domain.Cake, error)
	// GetByFlavor returns all cakes with a matching flavor, newest first.
	GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error)
	// List returns up to filter.Limit+1 cakes, newest first; the extra row
	// is the pagination probe.
	List(ctx context.Context, filter CakeFilter) ([]domain.Cake, error)
	// Update persists the full state of an existing cake.
	Update(ctx context.Context, cake *domain.Cake) error
	// Delete removes a cake. Returns the deleted cake, nil, nil when absent.
	Delete(ctx context.Context, id string) (*domain.Cake, error)
	// ListSlugs returns every slug with its last update time, for the
	// sitemap.
	ListSlugs(ctx context.Context) ([]SlugEntry, error)
	// ListMissingSlugs returns cakes whose slug column is empty.
	ListMissingSlugs(ctx context.Context) ([]domain.Cake, error)
}

// SlugEntry pairs a slug with its last modification time.
type SlugEntry struct {
	Slug      string
	UpdatedAt time.Time
}
