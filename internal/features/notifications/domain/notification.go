package domain

import (
	"fmt"
	"time"

	orderdomain "cakeshop-backend/internal/features/orders/domain"
)

// EventType tags a notification for machine consumption.
type EventType string

const (
	// EventNewOrder is sent to admins when an order is placed.
	EventNewOrder EventType = "NEW_ORDER"
	// EventOrderStatusChange is sent to admins when an order status changes.
	EventOrderStatusChange EventType = "ORDER_STATUS_CHANGE"
	// EventPaymentCompleted is sent to admins when a payment completes.
	EventPaymentCompleted EventType = "PAYMENT_COMPLETED"
	// EventOrderStatusUpdate is sent to the owning customer on status changes.
	EventOrderStatusUpdate EventType = "ORDER_STATUS_UPDATE"
)

// Realtime room and event names.
const (
	// AdminRoom is the shared channel for all connected admin sessions.
	AdminRoom = "admin_room"
	// UserSessionsRoom is the shared channel counting customer sessions.
	UserSessionsRoom = "user_room"
	// AdminEvent is the event name admin sessions listen on.
	AdminEvent = "admin_notification"
	// UserEvent is the event name customer sessions listen on.
	UserEvent = "user_notification"
)

// UserRoom returns the realtime channel scoped to one customer.
func UserRoom(userID string) string {
	return "user_" + userID
}

// OrderSnapshot is the subset of order fields carried inside a notification.
type OrderSnapshot struct {
	OrderID       string                  `json:"order_id"`
	TotalAmount   float64                 `json:"total_amount,omitempty"`
	PaymentMethod string                  `json:"payment_method,omitempty"`
	PaymentStatus string                  `json:"payment_status,omitempty"`
	Status        string                  `json:"status,omitempty"`
	OldStatus     string                  `json:"old_status,omitempty"`
	NewStatus     string                  `json:"new_status,omitempty"`
	Items         []orderdomain.OrderItem `json:"items,omitempty"`
	CreatedAt     time.Time               `json:"created_at,omitempty"`
	UpdatedAt     time.Time               `json:"updated_at,omitempty"`
}

// Notification is the structured envelope broadcast to realtime rooms.
type Notification struct {
	Type      EventType     `json:"type"`
	Message   string        `json:"message"`
	Order     OrderSnapshot `json:"order"`
	Timestamp time.Time     `json:"timestamp"`
}

// PushMessage is one offline-push delivery: a short title, the human-readable
// body, and a structured data payload for client routing.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NewOrderMessage renders the admin-facing message for a placed order.
func NewOrderMessage(orderID string) string {
	return fmt.Sprintf("New order #%s has been placed", orderID)
}

// StatusChangeMessage renders the admin-facing message for a status change.
func StatusChangeMessage(orderID string, oldStatus, newStatus orderdomain.OrderStatus) string {
	return fmt.Sprintf("Order #%s status changed from %s to %s", orderID, oldStatus, newStatus)
}

// UserStatusMessage renders the customer-facing message for a status change.
func UserStatusMessage(orderID string, newStatus orderdomain.OrderStatus) string {
	return fmt.Sprintf("Your order #%s status is now %s", orderID, newStatus)
}

// PaymentCompletedMessage renders the admin-facing message for a completed payment.
func PaymentCompletedMessage(orderID string) string {
	return fmt.Sprintf("Payment completed for order #%s", orderID)
}
