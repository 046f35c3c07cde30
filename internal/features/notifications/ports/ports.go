package ports

import (
	"context"

	"cakeshop-backend/internal/features/notifications/domain"
	orderdomain "cakeshop-backend/internal/features/orders/domain"
)

// RealtimeTransport is the capability interface for pushing events to
// currently connected sessions. It is injected into the fan-out; a no-op
// implementation stands in when realtime delivery is disabled, so callers
// never branch on availability.
type RealtimeTransport interface {
	// BroadcastToRoom delivers the payload to every session in the room.
	BroadcastToRoom(ctx context.Context, room, event string, payload any) error
	// RoomMemberCount returns the number of sessions subscribed to the room.
	RoomMemberCount(ctx context.Context, room string) (int, error)
}

// PushSender delivers one offline-push message to one device token.
type PushSender interface {
	Send(ctx context.Context, token string, msg domain.PushMessage) error
}

// EventPublisher is an optional third delivery surface: order lifecycle
// events published to a broker for other services. Best-effort, like every
// other channel of the fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// OrderNotifier is the primary port of the notification fan-out. Every entry
// point is best-effort: it never returns an error and never panics; the
// boolean reports only that the fan-out ran to completion.
type OrderNotifier interface {
	NotifyAdminNewOrder(ctx context.Context, order *orderdomain.Order) bool
	NotifyAdminOrderStatusChange(ctx context.Context, order *orderdomain.Order, oldStatus, newStatus orderdomain.OrderStatus) bool
	NotifyAdminPaymentCompleted(ctx context.Context, order *orderdomain.Order) bool
	NotifyUserOrderStatusChange(ctx context.Context, order *orderdomain.Order, newStatus orderdomain.OrderStatus) bool

	// ConnectedAdminCount returns the number of connected admin sessions,
	// 0 when the transport is unavailable or failing.
	ConnectedAdminCount(ctx context.Context) int
	// ConnectedUserCount returns the number of connected customer sessions,
	// 0 when the transport is unavailable or failing.
	ConnectedUserCount(ctx context.Context) int
}
