package handler

import (
	"errors"
	"net/http"
	"time"

	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/features/orders/domain"
	"cakeshop-backend/internal/features/orders/ports"
	"cakeshop-backend/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
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

// PlaceOrderRequest is the body of POST /orders.
type PlaceOrderRequest struct {
	UserID               string                 `json:"userId"`
	Items                []domain.OrderItem     `json:"items"`
	Tax                  float64                `json:"tax"`
	ShippingCharge       float64                `json:"shippingCharge"`
	TotalAmount          float64                `json:"totalAmount"`
	PaymentMethod        domain.PaymentMethod   `json:"paymentMethod"`
	GatewayOrderRef      string                 `json:"gatewayOrderRef,omitempty"`
	ShippingAddress      ShippingAddressRequest `json:"shippingAddress"`
	OrderInstructions    string                 `json:"orderInstructions,omitempty"`
	DeliveryInstructions string                 `json:"deliveryInstructions,omitempty"`
}

// LocationRequest carries the coordinates of a shipping address. Pointers
// distinguish an omitted coordinate from a legitimate zero value, so the
// equator and the prime meridian remain addressable.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ShippingAddressRequest is the wire form of a shipping address.
type ShippingAddressRequest struct {
	Label    domain.AddressLabel `json:"label"`
	Street   string              `json:"street,omitempty"`
	City     string              `json:"city"`
	State    string              `json:"state"`
	Pincode  string              `json:"pincode"`
	Location *LocationRequest    `json:"location,omitempty"`
}

func (r ShippingAddressRequest) toDomain() (domain.ShippingAddress, error) {
	addr := domain.ShippingAddress{
		Label:   r.Label,
		Street:  r.Street,
		City:    r.City,
		State:   r.State,
		Pincode: r.Pincode,
	}
	if r.Location == nil {
		return addr, nil
	}
	if (r.Location.Latitude == nil) != (r.Location.Longitude == nil) {
		return addr, domain.ErrIncompleteLocation
	}
	if r.Location.Latitude != nil {
		addr.Location = &domain.GeoPoint{
			Latitude:  *r.Location.Latitude,
			Longitude: *r.Location.Longitude,
		}
	}
	return addr, nil
}

// UpdateStatusRequest is the body of PATCH /orders/:orderId/status.
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// VerifyPaymentRequest is the body of POST /orders/:orderId/payment/verify.
type VerifyPaymentRequest struct {
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`
}

// AssignRequest is the body of PATCH /orders/:orderId/assign.
type AssignRequest struct {
	AssignedAdminID *string `json:"assignedAdminId"`
	DeliveryAgentID *string `json:"deliveryAgentId"`
}

// OrderPageResponse is one page of an order listing.
type OrderPageResponse struct {
	Orders     []domain.Order `json:"orders"`
	NextCursor *time.Time     `json:"nextCursor,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	id, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return id
}

// PlaceOrder godoc
// @Summary Place a new order
// @Description Creates an order with a unique date-prefixed identifier and notifies the store team.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body PlaceOrderRequest true "Order details"
// @Success 201 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}
	if req.UserID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "User ID is required",
			RayID:   rayID(c),
		})
	}
	addr, err := req.ShippingAddress.toDomain()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	order, err := h.service.PlaceOrder(c.Context(), ports.PlaceOrderInput{
		UserID:               req.UserID,
		Items:                req.Items,
		Tax:                  req.Tax,
		ShippingCharge:       req.ShippingCharge,
		TotalAmount:          req.TotalAmount,
		PaymentMethod:        req.PaymentMethod,
		GatewayOrderRef:      req.GatewayOrderRef,
		ShippingAddress:      addr,
		OrderInstructions:    req.OrderInstructions,
		DeliveryInstructions: req.DeliveryInstructions,
	})
	if err != nil {
		return h.orderError(c, "Failed to place order", err)
	}

	return c.Status(http.StatusCreated).JSON(order)
}

// GetOrder godoc
// @Summary Get order by ID
// @Description Fetch order details using the human-readable order identifier.
// @Tags orders
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{orderId} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetByOrderID(c.Context(), c.Params("orderId"))
	if err != nil {
		return h.orderError(c, "Failed to fetch order", err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// ListOrders godoc
// @Summary List orders
// @Description Lists orders newest first with cursor pagination. Filterable by user, status, admin and delivery agent.
// @Tags orders
// @Produce json
// @Param userId query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param assignedAdminId query string false "Filter by assigned admin"
// @Param deliveryAgentId query string false "Filter by delivery agent"
// @Param cursor query string false "Opaque cursor from a previous page (RFC3339)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} OrderPageResponse
// @Failure 400 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter := ports.OrderFilter{
		UserID:          c.Query("userId"),
		Status:          domain.OrderStatus(c.Query("status")),
		AssignedAdminID: c.Query("assignedAdminId"),
		DeliveryAgentID: c.Query("deliveryAgentId"),
		Limit:           c.QueryInt("limit"),
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
		return h.orderError(c, "Failed to list orders", err)
	}

	resp := OrderPageResponse{Orders: page.Orders, NextCursor: page.NextCursor}
	if resp.Orders == nil {
		resp.Orders = []domain.Order{}
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// UpdateStatus godoc
// @Summary Update order status
// @Description Moves an order through its lifecycle and notifies admins and the customer.
// @Tags orders
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{orderId}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	order, err := h.service.UpdateStatus(c.Context(), c.Params("orderId"), req.Status)
	if err != nil {
		return h.orderError(c, "Failed to update order status", err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// VerifyPayment godoc
// @Summary Verify order payment
// @Description Records the gateway confirmation on the order and notifies admins.
// @Tags orders
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param payment body VerifyPaymentRequest true "Gateway confirmation"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{orderId}/payment/verify [post]
func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	order, err := h.service.VerifyPayment(c.Context(), c.Params("orderId"), domain.PaymentDetails{
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
	})
	if err != nil {
		return h.orderError(c, "Failed to verify payment", err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// Assign godoc
// @Summary Assign order staff
// @Description Sets the handling admin and/or delivery agent for an order.
// @Tags orders
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param assignment body AssignRequest true "Assignment"
// @Success 200 {object} domain.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{orderId}/assign [patch]
func (h *OrderHandler) Assign(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid request body",
			RayID:   rayID(c),
		})
	}

	order, err := h.service.Assign(c.Context(), c.Params("orderId"), ports.AssignmentInput{
		AssignedAdminID: req.AssignedAdminID,
		DeliveryAgentID: req.DeliveryAgentID,
	})
	if err != nil {
		return h.orderError(c, "Failed to assign order", err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

func (h *OrderHandler) orderError(c *fiber.Ctx, logMsg string, err error) error {
	id := rayID(c)
	logger.Get().Error(logMsg,
		zap.String("order_id", c.Params("orderId")),
		zap.String("ray_id", id),
		zap.Error(err),
	)

	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		status = http.StatusNotFound
		msg = "Order not found"
	case errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidAddressLabel),
		errors.Is(err, domain.ErrInvalidStatus):
		status = http.StatusBadRequest
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		RayID:   id,
	})
}
