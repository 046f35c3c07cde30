package ports

import (
	"context"
	"errors"
	"time"

	"cakeshop-backend/internal/features/orders/domain"
)

// ErrDuplicateOrderID is returned by repositories when an insert hits the
// unique index on the human-readable order identifier. The service treats it
// as a signal to regenerate, never as a fatal error.
var ErrDuplicateOrderID = errors.New("order id already exists")

// PlaceOrderInput carries everything needed to place a new order.
type PlaceOrderInput struct {
	UserID               string
	Items                []domain.OrderItem
	Tax                  float64
	ShippingCharge       float64
	TotalAmount          float64
	PaymentMethod        domain.PaymentMethod
	GatewayOrderRef      string
	ShippingAddress      domain.ShippingAddress
	OrderInstructions    string
	DeliveryInstructions string
}

// AssignmentInput updates the administrative handler and/or delivery agent of
// an order. Nil fields are left untouched.
type AssignmentInput struct {
	AssignedAdminID *string
	DeliveryAgentID *string
}

// OrderFilter narrows and paginates order listings. Cursor pagination runs on
// created_at descending.
type OrderFilter struct {
	UserID          string
	Status          domain.OrderStatus
	AssignedAdminID string
	DeliveryAgentID string
	Cursor          *time.Time
	Limit           int
}

// OrderPage is one page of a cursor-paginated listing.
type OrderPage struct {
	Orders     []domain.Order
	NextCursor *time.Time
}

// OrderService defines the primary port for order lifecycle operations.
type OrderService interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) (*OrderPage, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error)
	VerifyPayment(ctx context.Context, orderID string, details domain.PaymentDetails) (*domain.Order, error)
	Assign(ctx context.Context, orderID string, input AssignmentInput) (*domain.Order, error)
}

// OrderRepository defines the secondary port for durable order storage.
type OrderRepository interface {
	// Insert persists a new order. Returns ErrDuplicateOrderID when the
	// order identifier collides with an existing row.
	Insert(ctx context.Context, order *domain.Order) error
	// GetByOrderID loads an order by its human-readable identifier.
	// Returns nil, nil when absent.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	// OrderIDExists reports whether the identifier is already taken.
	OrderIDExists(ctx context.Context, orderID string) (bool, error)
	// Update persists the full mutable state of an existing order.
	Update(ctx context.Context, order *domain.Order) error
	// List returns up to filter.Limit+1 orders matching the filter, newest
	// first; the extra row is the pagination probe.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}
