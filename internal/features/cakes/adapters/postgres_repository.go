package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cakeshop-backend/internal/features/cakes/domain"
	"cakeshop-backend/internal/features/cakes/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const cakeColumns = `id, name, slug, COALESCE(category, ''), COALESCE(flavor, ''),
	COALESCE(image, ''), COALESCE(description, ''), sizes,
	COALESCE(label, ''), COALESCE(tag, ''), ingredients, allergens,
	nutrition_info, reviews, average_rating, total_reviews,
	created_at, updated_at`

// PostgresCakeRepository implements ports.CakeRepository. Sizes, ingredient
// lists, nutrition info and the embedded reviews live in jsonb columns; the
// slug has a unique index.
type PostgresCakeRepository struct {
	db *sql.DB
}

// NewPostgresCakeRepository creates a new PostgresCakeRepository.
func NewPostgresCakeRepository(db *sql.DB) *PostgresCakeRepository {
	return &PostgresCakeRepository{db: db}
}

func (r *PostgresCakeRepository) Insert(ctx context.Context, cake *domain.Cake) error {
	doc, err := marshalCakeDoc(cake)
	if err != nil {
		return err
	}

	query := `INSERT INTO cakes (
		id, name, slug, category, flavor, image, description, sizes,
		label, tag, ingredients, allergens, nutrition_info, reviews,
		average_rating, total_reviews, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err = r.db.ExecContext(ctx, query,
		cake.ID, cake.Name, cake.Slug, cake.Category, cake.Flavor,
		cake.Image, cake.Description, doc.sizes,
		cake.Label, cake.Tag, doc.ingredients, doc.allergens,
		doc.nutrition, doc.reviews,
		cake.AverageRating, cake.TotalReviews, cake.CreatedAt, cake.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ports.ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert cake: %w", err)
	}
	return nil
}

func (r *PostgresCakeRepository) GetByID(ctx context.Context, id string) (*domain.Cake, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PostgresCakeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Cake, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *PostgresCakeRepository) getOne(ctx context.Context, column, value string) (*domain.Cake, error) {
	query := fmt.Sprintf(`SELECT %s FROM cakes WHERE %s = $1`, cakeColumns, column)

	cake, err := scanCake(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cake by %s: %w", column, err)
	}
	return cake, nil
}

func (r *PostgresCakeRepository) GetByFlavor(ctx context.Context, flavor string) ([]domain.Cake, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM cakes WHERE LOWER(flavor) = LOWER($1) ORDER BY created_at DESC`, cakeColumns)
	return r.queryCakes(ctx, query, flavor)
}

func (r *PostgresCakeRepository) List(ctx context.Context, filter ports.CakeFilter) ([]domain.Cake, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Cursor != nil {
		args = append(args, *filter.Cursor)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM cakes`, cakeColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return r.queryCakes(ctx, query, args...)
}

func (r *PostgresCakeRepository) Update(ctx context.Context, cake *domain.Cake) error {
	doc, err := marshalCakeDoc(cake)
	if err != nil {
		return err
	}

	query := `UPDATE cakes SET
		name = $2, slug = $3, category = $4, flavor = $5, image = $6,
		description = $7, sizes = $8, label = $9, tag = $10,
		ingredients = $11, allergens = $12, nutrition_info = $13,
		reviews = $14, average_rating = $15, total_reviews = $16,
		updated_at = $17
	WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		cake.ID, cake.Name, cake.Slug, cake.Category, cake.Flavor, cake.Image,
		cake.Description, doc.sizes, cake.Label, cake.Tag,
		doc.ingredients, doc.allergens, doc.nutrition,
		doc.reviews, cake.AverageRating, cake.TotalReviews,
		cake.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ports.ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update cake %s: %w", cake.ID, err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("cake %s not found for update", cake.ID)
	}
	return nil
}

func (r *PostgresCakeRepository) Delete(ctx context.Context, id string) (*domain.Cake, error) {
	query := fmt.Sprintf(`DELETE FROM cakes WHERE id = $1 RETURNING %s`, cakeColumns)

	cake, err := scanCake(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete cake %s: %w", id, err)
	}
	return cake, nil
}

func (r *PostgresCakeRepository) ListSlugs(ctx context.Context) ([]ports.SlugEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slug, updated_at FROM cakes WHERE slug <> '' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	defer rows.Close()

	var entries []ports.SlugEntry
	for rows.Next() {
		var entry ports.SlugEntry
		if err := rows.Scan(&entry.Slug, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PostgresCakeRepository) ListMissingSlugs(ctx context.Context) ([]domain.Cake, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM cakes WHERE slug IS NULL OR slug = '' ORDER BY created_at`, cakeColumns)
	return r.queryCakes(ctx, query)
}

func (r *PostgresCakeRepository) queryCakes(ctx context.Context, query string, args ...any) ([]domain.Cake, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cakes: %w", err)
	}
	defer rows.Close()

	var cakes []domain.Cake
	for rows.Next() {
		cake, err := scanCake(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cake: %w", err)
		}
		cakes = append(cakes, *cake)
	}
	return cakes, rows.Err()
}

// cakeDoc holds the jsonb column payloads of one cake row.
type cakeDoc struct {
	sizes       []byte
	ingredients []byte
	allergens   []byte
	nutrition   any
	reviews     []byte
}

func marshalCakeDoc(cake *domain.Cake) (*cakeDoc, error) {
	var doc cakeDoc
	var err error

	if doc.sizes, err = json.Marshal(cake.Sizes); err != nil {
		return nil, fmt.Errorf("failed to marshal sizes: %w", err)
	}
	if doc.ingredients, err = json.Marshal(cake.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	if doc.allergens, err = json.Marshal(cake.Allergens); err != nil {
		return nil, fmt.Errorf("failed to marshal allergens: %w", err)
	}
	if doc.reviews, err = json.Marshal(cake.Reviews); err != nil {
		return nil, fmt.Errorf("failed to marshal reviews: %w", err)
	}
	if cake.NutritionInfo != nil {
		nutrition, err := json.Marshal(cake.NutritionInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal nutrition info: %w", err)
		}
		doc.nutrition = nutrition
	}
	return &doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCake(row rowScanner) (*domain.Cake, error) {
	var (
		cake        domain.Cake
		sizes       []byte
		ingredients []byte
		allergens   []byte
		nutrition   []byte
		reviews     []byte
	)

	err := row.Scan(
		&cake.ID, &cake.Name, &cake.Slug, &cake.Category, &cake.Flavor,
		&cake.Image, &cake.Description, &sizes,
		&cake.Label, &cake.Tag, &ingredients, &allergens,
		&nutrition, &reviews, &cake.AverageRating, &cake.TotalReviews,
		&cake.CreatedAt, &cake.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sizes, &cake.Sizes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sizes: %w", err)
	}
	if err := json.Unmarshal(ingredients, &cake.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal(allergens, &cake.Allergens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allergens: %w", err)
	}
	if err := json.Unmarshal(reviews, &cake.Reviews); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reviews: %w", err)
	}
	if len(nutrition) > 0 {
		cake.NutritionInfo = &domain.NutritionInfo{}
		if err := json.Unmarshal(nutrition, cake.NutritionInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nutrition info: %w", err)
		}
	}

	return &cake, nil
}
