package handler

import (
	"errors"
	"net/http"
	"time"

	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/cakes/domain"
	"cakeshop-backend/internal/features/cakes/ports"
	"cakeshop-backend/internal/features/cakes/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CakeHandler handles HTTP requests for the catalog.
type CakeHandler struct {
	service ports.CakeService
}

// NewCakeHandler creates a new CakeHandler.
func NewCakeHandler(s ports.CakeService) *CakeHandler {
	return &CakeHandler{
		service: s,
	}
}

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}

// CakeRequest is the body of POST /cakes and PUT /cakes/:id.
type CakeRequest struct {
	Name          string                `json:"name"`
	Category      string                `json:"category,omitempty"`
	Flavor        string                `json:"flavor,omitempty"`
	Image         string                `json:"image,omitempty"`
	Description   string                `json:"description,omitempty"`
	Sizes         []domain.Size         `json:"sizes"`
	Label         string                `json:"label,omitempty"`
	Tag           string                `json:"tag,omitempty"`
	Ingredients   []string              `json:"ingredients,omitempty"`
	Allergens     []string              `json:"allergens,omitempty"`
	NutritionInfo *domain.NutritionInfo `json:"nutritionInfo,omitempty"`
}

// ReviewRequest is the body of POST /cakes/:slug/reviews.
type ReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CakePageResponse is one page of a catalog listing.
type CakePageResponse struct {
	Cakes      []domain.Cake `json:"cakes"`
	NextCursor *time.Time    `json:"nextCursor,omitempty"`
}

func (r CakeRequest) toInput() ports.CakeInput {
	return ports.CakeInput{
		Name:          r.Name,
		Category:      r.Category,
		Flavor:        r.Flavor,
		Image:         r.Image,
		Description:   r.Description,
		Sizes:         r.Sizes,
		Label:         r.Label,
		Tag:           r.Tag,
		Ingredients:   r.Ingredients,
		Allergens:     r.Allergens,
		NutritionInfo: r.NutritionInfo,
	}
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}

// ListCakes godoc
// @Summary List cakes
// @Description Lists the catalog newest first with cursor pagination.
// @Tags cakes
// @Produce json
// @Param category query string false "Filter by category"
// @Param cursor query string false "Opaque cursor from a previous page (RFC3339)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} CakePageResponse
// @Failure 400 {object} ErrorResponse
// @Router /cakes [get]
func (h *CakeHandler) ListCakes(c *fiber.Ctx) error {
	filter := ports.CakeFilter{
		Category: c.Query("category"),
		Limit:    c.QueryInt("limit"),
	}
	if raw := c.Query("cursor"); raw != "" {
		cursor, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Message: "Invalid cursor",
				RayID:   rayID(c),
			})
		}
		filter.Cursor = &cursor
	}

	page, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.cakeError(c, "Failed to list cakes", err)
	}

	resp := CakePageResponse{Cakes: page.Cakes, NextCursor: page.NextCursor}
	if resp.Cakes == nil {
		resp.Cakes = []domain.Cake{}
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// GetCake godoc
// @Summary Get cake by ID
// @Tags cakes
// @Produce json
// @Param id path string true "Cake ID"
// @Success 200 {object} domain.Cake
// @Failure 404 {object} ErrorResponse
// @Router /cakes/{id} [get]
func (h *CakeHandler) GetCake(c *fiber.Ctx) error {
	cake, err := h.service.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.cakeError(c, "Failed to fetch cake", err)
	}
	return c.Status(http.StatusOK).JSON(cake)
}

// GetCakeBySlug godoc
// @Summary Get cake by slug
// @Description Serves product pages; slug lookups are cached.
// @Tags cakes
// @Produce json
// @Param slug path string true "Cake slug"
// @Success 200 {object} domain.Cake
// @Failure 404 {object} ErrorResponse
// @Router /cakes/slug/{slug} [get]
func (h *CakeHandler) GetCakeBySlug(c *fiber.Ctx) error {
	cake, err := h.service.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return h.cakeError(c, "Failed to fetch cake by slug", err)
	}
	return c.Status(http.StatusOK).JSON(cake)
}

// GetCakesByFlavor godoc
// @Summary Search cakes by flavor
// @Tags cakes
// @Produce json
// @Param flavor path string true "Flavor"
// @Success 200 {array} domain.Cake
// @Router /cakes/flavor/{flavor} [get]
func (h *CakeHandler) GetCakesByFlavor(c *fiber.Ctx) error {
	cakes, err := h.service.GetByFlavor(c.Context(), c.Params("flavor"))
	if err != nil {
		return h.cakeError(c, "Failed to search cakes by flavor", err)
	}
	if cakes == nil {
		cakes = []domain.Cake{}
	}
	return c.Status(http.StatusOK).JSON(cakes)
}

// CreateCake godoc
// @Summary Create a cake
// @Tags cakes
// @Accept json
// @Produce json
// @Param cake body CakeRequest true "Cake details"
// @Success 201 {object} domain.Cake
// @Failure 400 {object} ErrorResponse
// @Router /cakes [post]
func (h *CakeHandler) CreateCake(c *fiber.Ctx) error {
	var req CakeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	cake, err := h.service.Create(c.Context(), req.toInput())
	if err != nil {
		return h.cakeError(c, "Failed to create cake", err)
	}
	return c.Status(http.StatusCreated).JSON(cake)
}

// CreateCakes godoc
// @Summary Create many cakes
// @Description Bulk insert used when seeding the catalog.
// @Tags cakes
// @Accept json
// @Produce json
// @Param cakes body []CakeRequest true "Cakes"
// @Success 201 {array} domain.Cake
// @Failure 400 {object} ErrorResponse
// @Router /cakes/many [post]
func (h *CakeHandler) CreateCakes(c *fiber.Ctx) error {
	var reqs []CakeRequest
	if err := c.BodyParser(&reqs); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	inputs := make([]ports.CakeInput, len(reqs))
	for i, req := range reqs {
		inputs[i] = req.toInput()
	}

	cakes, err := h.service.CreateMany(c.Context(), inputs)
	if err != nil {
		return h.cakeError(c, "Failed to create cakes", err)
	}
	return c.Status(http.StatusCreated).JSON(cakes)
}

// UpdateCake godoc
// @Summary Update a cake
// @Tags cakes
// @Accept json
// @Produce json
// @Param id path string true "Cake ID"
// @Param cake body CakeRequest true "Cake details"
// @Success 200 {object} domain.Cake
// @Failure 404 {object} ErrorResponse
// @Router /cakes/{id} [put]
func (h *CakeHandler) UpdateCake(c *fiber.Ctx) error {
	var req CakeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	cake, err := h.service.Update(c.Context(), c.Params("id"), req.toInput())
	if err != nil {
		return h.cakeError(c, "Failed to update cake", err)
	}
	return c.Status(http.StatusOK).JSON(cake)
}

// DeleteCake godoc
// @Summary Delete a cake
// @Tags cakes
// @Param id path string true "Cake ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /cakes/{id} [delete]
func (h *CakeHandler) DeleteCake(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.cakeError(c, "Failed to delete cake", err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddReview godoc
// @Summary Add a review
// @Description Appends a customer review and recalculates the rating summary.
// @Tags cakes
// @Accept json
// @Produce json
// @Param slug path string true "Cake slug"
// @Param review body ReviewRequest true "Review"
// @Success 201 {object} domain.Cake
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /cakes/{slug}/reviews [post]
func (h *CakeHandler) AddReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	cake, err := h.service.AddReview(c.Context(), c.Params("slug"), ports.ReviewInput{
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return h.cakeError(c, "Failed to add review", err)
	}
	return c.Status(http.StatusCreated).JSON(cake)
}

func (h *CakeHandler) cakeError(c *fiber.Ctx, logMsg string, err error) error {
	id := rayID(c)
	logger.Get().Error(logMsg,
		zap.String("ray_id", id),
		zap.Error(err),
	)

	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, service.ErrCakeNotFound):
		status = http.StatusNotFound
		msg = "Cake not found"
	case errors.Is(err, domain.ErrDuplicateReview):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNoSizes),
		errors.Is(err, domain.ErrInvalidSize),
		errors.Is(err, domain.ErrReviewIncomplete),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrCommentTooLong):
		status = http.StatusBadRequest
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		RayID:   id,
	})
}
