package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cakeshop-backend/internal/core/config"
	"cakeshop-backend/internal/core/database"
	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/cakes/adapters"
	"cakeshop-backend/internal/features/cakes/domain"

	"go.uber.org/zap"
)

// Backfills slugs for catalog rows that predate slug generation. Collisions
// within the batch or with existing rows get a numeric suffix.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	repo := adapters.NewPostgresCakeRepository(db)

	cakes, err := repo.ListMissingSlugs(ctx)
	if err != nil {
		l.Fatal("Failed to list cakes without slugs", zap.Error(err))
	}
	if len(cakes) == 0 {
		l.Info("No cakes without slugs, nothing to do")
		return
	}

	taken, err := existingSlugs(ctx, repo)
	if err != nil {
		l.Fatal("Failed to list existing slugs", zap.Error(err))
	}

	var updated int
	for _, cake := range cakes {
		slug := uniqueSlug(cake.Name, taken)
		taken[slug] = true

		cake.Slug = slug
		cake.UpdatedAt = time.Now()
		if err := repo.Update(ctx, &cake); err != nil {
			l.Error("Failed to backfill slug",
				zap.String("id", cake.ID),
				zap.String("name", cake.Name),
				zap.Error(err))
			continue
		}

		l.Info("Slug added",
			zap.String("name", cake.Name),
			zap.String("slug", slug))
		updated++
	}

	l.Info("Slug backfill finished",
		zap.Int("updated", updated),
		zap.Int("total", len(cakes)))
}

func existingSlugs(ctx context.Context, repo *adapters.PostgresCakeRepository) (map[string]bool, error) {
	entries, err := repo.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(entries))
	for _, entry := range entries {
		taken[entry.Slug] = true
	}
	return taken, nil
}

func uniqueSlug(name string, taken map[string]bool) string {
	base := domain.GenerateSlug(name)
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
