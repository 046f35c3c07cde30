package adapters

import (
	"context"
	"testing"
	"time"

	"cakeshop-backend/internal/core/cache"
	"cakeshop-backend/internal/features/cakes/domain"
	"cakeshop-backend/internal/features/cakes/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCakeRepository counts database reads so the tests can tell a cache hit
// from a pass-through.
type stubCakeRepository struct {
	cake        *domain.Cake
	slugReads   int
	lastUpdated *domain.Cake
}

func (s *stubCakeRepository) Insert(ctx context.Context, cake *domain.Cake) error { return nil }

func (s *stubCakeRepository) GetByID(ctx context.Context, id string) (*domain.Cake, error) {
	return s.cake, nil
}

func (s *stubCakeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Cake, error) {
	s.slugReads++
	if s.cake != nil && s.cake.Slug == slug {
		return s.cake, nil
	}
	return nil, nil
}

func (s *stubCakeRepository) GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error) {
	return nil, nil
}

func (s *stubCakeRepository) List(ctx context.Context, filter ports.CakeFilter) ([]domain.Cake, error) {
	return nil, nil
}

func (s *stubCakeRepository) Update(ctx context.Context, cake *domain.Cake) error {
	s.lastUpdated = cake
	return nil
}

func (s *stubCakeRepository) Delete(ctx context.Context, id string) (*domain.Cake, error) {
	if s.cake != nil && s.cake.ID == id {
		return s.cake, nil
	}
	return nil, nil
}

func (s *stubCakeRepository) ListSlugs(ctx context.Context) ([]ports.SlugEntry, error) {
	return nil, nil
}

func (s *stubCakeRepository) ListMissingSlugs(ctx context.Context) ([]domain.Cake, error) {
	return nil, nil
}

func newCachedRepo(t *testing.T, inner ports.CakeRepository) (*CachedCakeRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedCakeRepository(inner, cache.NewRedisAdapterFromClient(client)), mr
}

func sampleCake() *domain.Cake {
	return &domain.Cake{
		ID:        "cake-1",
		Name:      "Chocolate Truffle",
		Slug:      "chocolate-truffle",
		Sizes:     []domain.Size{{Size: "500g", Price: 450}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestCachedCakeRepository_GetBySlug(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondReadServedFromCache", func(t *testing.T) {
		inner := &stubCakeRepository{cake: sampleCake()}
		repo, _ := newCachedRepo(t, inner)

		first, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.Equal(t, 1, inner.slugReads)
		assert.Equal(t, first.Name, second.Name)
	})

	t.Run("MissNotCached", func(t *testing.T) {
		inner := &stubCakeRepository{}
		repo, _ := newCachedRepo(t, inner)

		cake, err := repo.GetBySlug(ctx, "no-such-cake")
		require.NoError(t, err)
		assert.Nil(t, cake)

		_, err = repo.GetBySlug(ctx, "no-such-cake")
		require.NoError(t, err)
		assert.Equal(t, 2, inner.slugReads)
	})

	t.Run("CacheDownFallsBackToDatabase", func(t *testing.T) {
		inner := &stubCakeRepository{cake: sampleCake()}
		repo, mr := newCachedRepo(t, inner)
		mr.Close()

		cake, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		require.NotNil(t, cake)
		assert.Equal(t, "Chocolate Truffle", cake.Name)
	})
}

func TestCachedCakeRepository_Invalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateEvictsSlug", func(t *testing.T) {
		inner := &stubCakeRepository{cake: sampleCake()}
		repo, _ := newCachedRepo(t, inner)

		_, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)

		updated := sampleCake()
		updated.Description = "Now with darker chocolate"
		require.NoError(t, repo.Update(ctx, updated))
		inner.cake = updated

		cake, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		assert.Equal(t, "Now with darker chocolate", cake.Description)
		assert.Equal(t, 2, inner.slugReads)
	})

	t.Run("RenameEvictsRetiredSlug", func(t *testing.T) {
		inner := &stubCakeRepository{cake: sampleCake()}
		repo, mr := newCachedRepo(t, inner)

		_, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		require.True(t, mr.Exists("cake:slug:chocolate-truffle"))

		renamed := sampleCake()
		renamed.Name = "Dark Truffle"
		renamed.Slug = "dark-truffle"
		require.NoError(t, repo.Update(ctx, renamed))
		inner.cake = renamed

		assert.False(t, mr.Exists("cake:slug:chocolate-truffle"))

		// The retired URL must miss instead of serving the stale cake.
		cake, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)
		assert.Nil(t, cake)
	})

	t.Run("DeleteEvictsSlug", func(t *testing.T) {
		inner := &stubCakeRepository{cake: sampleCake()}
		repo, mr := newCachedRepo(t, inner)

		_, err := repo.GetBySlug(ctx, "chocolate-truffle")
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, "cake-1")
		require.NoError(t, err)
		require.NotNil(t, deleted)

		assert.False(t, mr.Exists("cake:slug:chocolate-truffle"))
	})
}
