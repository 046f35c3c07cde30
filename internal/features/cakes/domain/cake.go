package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNameRequired     = errors.New("cake name is required")
	ErrNoSizes          = errors.New("cake needs at least one size")
	ErrInvalidSize      = errors.New("cake size needs a size name and a non-negative price")
	ErrReviewIncomplete = errors.New("review needs a name, rating and comment")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong   = errors.New("comment must be at most 500 characters")
	ErrDuplicateReview  = errors.New("reviewer has already reviewed this cake")
)

const maxCommentLength = 500

// Size is one purchasable variant of a cake.
type Size struct {
	Size   string  `json:"size"`
	Serves string  `json:"serves,omitempty"`
	Price  float64 `json:"price"`
}

// NutritionInfo is the per-serving nutrition summary shown on product pages.
type NutritionInfo struct {
	Calories string `json:"calories,omitempty"`
	Fat      string `json:"fat,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Protein  string `json:"protein,omitempty"`
}

// Review is a customer review embedded in its cake.
type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cake is a product in the catalog. Reviews are embedded; AverageRating and
// TotalReviews are derived from them and recalculated on every change.
type Cake struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Category      string         `json:"category,omitempty"`
	Flavor        string         `json:"flavor,omitempty"`
	Image         string         `json:"image,omitempty"`
	Description   string         `json:"description,omitempty"`
	Sizes         []Size         `json:"sizes"`
	Label         string         `json:"label,omitempty"`
	Tag           string         `json:"tag,omitempty"`
	Ingredients   []string       `json:"ingredients,omitempty"`
	Allergens     []string       `json:"allergens,omitempty"`
	NutritionInfo *NutritionInfo `json:"nutritionInfo,omitempty"`
	Reviews       []Review       `json:"reviews"`
	AverageRating float64        `json:"averageRating"`
	TotalReviews  int            `json:"totalReviews"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

var slugInvalidRuns = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug derives a URL-safe slug from a cake name. Runs of anything
// outside [a-z0-9] collapse to a single hyphen.
func GenerateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalidRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Validate checks the invariants a cake must hold before persistence.
func (c *Cake) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if len(c.Sizes) == 0 {
		return ErrNoSizes
	}
	for _, s := range c.Sizes {
		if strings.TrimSpace(s.Size) == "" || s.Price < 0 {
			return ErrInvalidSize
		}
	}
	return nil
}

// AddReview validates and appends a review, rejecting a second review from
// the same name (case-insensitive), then recalculates the rating summary.
func (c *Cake) AddReview(name string, rating int, comment string, now time.Time) (*Review, error) {
	name = strings.TrimSpace(name)
	comment = strings.TrimSpace(comment)
	if name == "" || comment == "" {
		return nil, ErrReviewIncomplete
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if len(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	for _, r := range c.Reviews {
		if strings.EqualFold(r.Name, name) {
			return nil, ErrDuplicateReview
		}
	}

	review := Review{
		ID:        uuid.NewString(),
		Name:      name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
	}
	c.Reviews = append(c.Reviews, review)
	c.RecalculateRating()
	c.UpdatedAt = now
	return &review, nil
}

// RecalculateRating rebuilds AverageRating and TotalReviews from the
// embedded reviews.
func (c *Cake) RecalculateRating() {
	c.TotalReviews = len(c.Reviews)
	if c.TotalReviews == 0 {
		c.AverageRating = 0
		return
	}
	var sum int
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	c.AverageRating = float64(sum) / float64(c.TotalReviews)
}
