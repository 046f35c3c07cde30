package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the fulfillment state of an order.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of a freshly placed order.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusShipped indicates the order is out for delivery.
	OrderStatusShipped OrderStatus = "Shipped"
	// OrderStatusDelivered is the terminal fulfillment state.
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusCancelled is reachable from any non-terminal state.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// PaymentMethod represents how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "CashOnDelivery"
	PaymentMethodGateway PaymentMethod = "GatewayPayment"
	PaymentMethodWallet  PaymentMethod = "WalletPayment"
)

// PaymentStatus represents the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// AddressLabel classifies a shipping address.
type AddressLabel string

const (
	AddressLabelHome  AddressLabel = "Home"
	AddressLabelWork  AddressLabel = "Work"
	AddressLabelOther AddressLabel = "Other"
)

var (
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNoItems              = errors.New("order must contain at least one item")
	ErrInvalidItem          = errors.New("order item quantity must be >= 1 and price >= 0")
	ErrNegativeAmount       = errors.New("monetary amounts must be >= 0")
	ErrInvalidAddressLabel  = errors.New("invalid shipping address label")
	ErrIncompleteLocation   = errors.New("location requires both latitude and longitude")
)

// OrderItem is a single line item: a product reference with quantity and unit price.
type OrderItem struct {
	// ProductID references the catalog product.
	ProductID string `json:"product_id"`
	// Quantity is the number of units, at least 1.
	Quantity int `json:"quantity"`
	// Price is the unit price at purchase time.
	Price float64 `json:"price"`
}

// GeoPoint is a geographic coordinate pair. Latitude and longitude are only
// ever stored together.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ShippingAddress is the structured postal address of an order.
type ShippingAddress struct {
	Label    AddressLabel `json:"label"`
	Street   string       `json:"street,omitempty"`
	City     string       `json:"city"`
	State    string       `json:"state"`
	Pincode  string       `json:"pincode"`
	Location *GeoPoint    `json:"location,omitempty"`
}

// PaymentDetails carries gateway confirmation data supplied on verification.
type PaymentDetails struct {
	// PaymentRef is the gateway payment reference.
	PaymentRef string `json:"payment_ref"`
	// Signature is the gateway verification signature.
	Signature string `json:"signature"`
}

// Order is the central entity: a customer purchase with its lifecycle state.
type Order struct {
	// ID is the internal record identifier.
	ID string `json:"id"`
	// OrderID is the human-readable identifier, assigned once at creation.
	OrderID string `json:"order_id"`
	// UserID references the owning customer.
	UserID string `json:"user_id"`
	// Items is the immutable line item sequence.
	Items []OrderItem `json:"items"`
	// Tax is the tax amount applied to the order.
	Tax float64 `json:"tax"`
	// ShippingCharge is the delivery fee.
	ShippingCharge float64 `json:"shipping_charge"`
	// TotalAmount is the full charged amount, stored for auditability.
	TotalAmount float64 `json:"total_amount"`
	// Status is the fulfillment state.
	Status OrderStatus `json:"status"`
	// AssignedAdminID references the administrative handler, if any.
	AssignedAdminID *string `json:"assigned_admin_id,omitempty"`
	// DeliveryAgentID references the delivery agent, if any.
	DeliveryAgentID *string `json:"delivery_agent_id,omitempty"`
	// PaymentMethod is how the customer pays.
	PaymentMethod PaymentMethod `json:"payment_method"`
	// PaymentStatus is the payment state.
	PaymentStatus PaymentStatus `json:"payment_status"`
	// GatewayOrderRef correlates with the payment gateway order.
	GatewayOrderRef string `json:"gateway_order_ref,omitempty"`
	// GatewayPaymentRef correlates with the gateway payment.
	GatewayPaymentRef string `json:"gateway_payment_ref,omitempty"`
	// GatewaySignature is the gateway verification signature.
	GatewaySignature string `json:"gateway_signature,omitempty"`
	// ShippingAddress is the delivery destination.
	ShippingAddress ShippingAddress `json:"shipping_address"`
	// OrderInstructions are customer notes for preparing the order.
	OrderInstructions string `json:"order_instructions,omitempty"`
	// DeliveryInstructions are customer notes for the delivery agent.
	DeliveryInstructions string `json:"delivery_instructions,omitempty"`
	// EstimatedDelivery is the promised delivery time, if set.
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	// ActualDelivery is set exactly once, on the first transition to Delivered.
	ActualDelivery *time.Time `json:"actual_delivery,omitempty"`
	// TrackingNumber is a free-text carrier reference.
	TrackingNumber string `json:"tracking_number,omitempty"`
	// CreatedAt is immutable.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodGateway, PaymentMethodWallet:
		return true
	}
	return false
}

// allowedTransitions is the linear fulfillment path plus cancellation from
// any non-terminal state.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether from -> to follows the allowed-transition
// table. Status application itself stays permissive; callers use this to
// detect and log non-adjacent overwrites.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewOrder constructs a Pending order and validates its invariants.
// The human-readable OrderID is assigned by the service at persistence time.
func NewOrder(userID string, items []OrderItem, tax, shippingCharge, totalAmount float64,
	method PaymentMethod, address ShippingAddress) (*Order, error) {

	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range items {
		if item.Quantity < 1 || item.Price < 0 {
			return nil, ErrInvalidItem
		}
	}
	if tax < 0 || shippingCharge < 0 || totalAmount < 0 {
		return nil, ErrNegativeAmount
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if err := address.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		Tax:             tax,
		ShippingCharge:  shippingCharge,
		TotalAmount:     totalAmount,
		Status:          OrderStatusPending,
		PaymentMethod:   method,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (a ShippingAddress) validate() error {
	switch a.Label {
	case AddressLabelHome, AddressLabelWork, AddressLabelOther:
	default:
		return ErrInvalidAddressLabel
	}
	// A GeoPoint carries both coordinates or is absent entirely; a pointer
	// with a half-filled pair cannot be represented, so only presence of the
	// struct is checked here. Handlers enforce the pairing at the edge.
	return nil
}

// CalculateTotal derives the line item total, excluding tax and shipping.
func (o *Order) CalculateTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ApplyStatus overwrites the order status and derives delivery timestamps.
// ActualDelivery is set exactly once, on the first transition to Delivered,
// and never cleared afterwards. UpdatedAt is always refreshed.
func (o *Order) ApplyStatus(newStatus OrderStatus, now time.Time) error {
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}

	o.Status = newStatus
	if newStatus == OrderStatusDelivered && o.ActualDelivery == nil {
		delivered := now
		o.ActualDelivery = &delivered
	}
	o.UpdatedAt = now
	return nil
}

// ApplyPaymentVerification records gateway confirmation data and marks the
// payment completed. Gateway correlation fields are only stored for
// GatewayPayment orders; every method flips the payment status, preserving
// the legacy contract for COD and wallet confirmations. Idempotent.
func (o *Order) ApplyPaymentVerification(details PaymentDetails, now time.Time) {
	switch o.PaymentMethod {
	case PaymentMethodGateway:
		o.GatewayPaymentRef = details.PaymentRef
		o.GatewaySignature = details.Signature
		o.PaymentStatus = PaymentStatusCompleted
	case PaymentMethodCOD, PaymentMethodWallet:
		o.PaymentStatus = PaymentStatusCompleted
	}
	o.UpdatedAt = now
}

// GenerateOrderID produces a candidate human-readable order identifier of the
// form ORD + yymmdd + 6 random digits. Uniqueness is the caller's problem:
// candidates are checked against the store and the unique index on order_id
// is the final backstop.
func GenerateOrderID(now time.Time) string {
	random := 100000 + rand.Intn(900000)
	return fmt.Sprintf("ORD%02d%02d%02d%d", now.Year()%100, int(now.Month()), now.Day(), random)
}
