package service

import (
	"context"
	"time"

	"cakeshop-backend/internal/core/logger"
	accountports "cakeshop-backend/internal/features/accounts/ports"
	"cakeshop-backend/internal/features/notifications/domain"
	"cakeshop-backend/internal/features/notifications/ports"
	orderdomain "cakeshop-backend/internal/features/orders/domain"

	"go.uber.org/zap"
)

// Broker routing keys per event kind.
const (
	routingKeyCreated          = "order.created"
	routingKeyStatusChanged    = "order.status_changed"
	routingKeyPaymentCompleted = "order.payment_completed"
)

// deliveryOutcome records one delivery attempt inside a fan-out.
type deliveryOutcome struct {
	channel string
	target  string
	err     error
}

// NotifierService implements the OrderNotifier port: two always-on delivery
// channels (realtime rooms, offline push) plus an optional broker publish,
// every attempt independent and best-effort. No failure ever escapes a
// notify call; the per-attempt outcomes are logged as a delivery report.
type NotifierService struct {
	transport    ports.RealtimeTransport
	push         ports.PushSender
	admins       accountports.AdminDirectory
	customers    accountports.CustomerDirectory
	events       ports.EventPublisher
	tokenTimeout time.Duration
}

// NewNotifierService creates a NotifierService. The transport must not be
// nil; pass the no-op transport when realtime delivery is disabled. events
// may be nil when broker publishing is disabled.
func NewNotifierService(
	transport ports.RealtimeTransport,
	push ports.PushSender,
	admins accountports.AdminDirectory,
	customers accountports.CustomerDirectory,
	events ports.EventPublisher,
	tokenTimeout time.Duration,
) *NotifierService {
	if tokenTimeout <= 0 {
		tokenTimeout = 5 * time.Second
	}
	return &NotifierService{
		transport:    transport,
		push:         push,
		admins:       admins,
		customers:    customers,
		events:       events,
		tokenTimeout: tokenTimeout,
	}
}

// NotifyAdminNewOrder tells every admin about a freshly placed order.
func (s *NotifierService) NotifyAdminNewOrder(ctx context.Context, order *orderdomain.Order) bool {
	if order == nil {
		logger.Get().Error("Notify called with nil order", zap.String("event", string(domain.EventNewOrder)))
		return false
	}

	msg := domain.NewOrderMessage(order.OrderID)
	notification := domain.Notification{
		Type:    domain.EventNewOrder,
		Message: msg,
		Order: domain.OrderSnapshot{
			OrderID:       order.OrderID,
			TotalAmount:   order.TotalAmount,
			PaymentMethod: string(order.PaymentMethod),
			Status:        string(order.Status),
			Items:         order.Items,
			CreatedAt:     order.CreatedAt,
		},
		Timestamp: time.Now(),
	}

	var outcomes []deliveryOutcome
	outcomes = append(outcomes, s.broadcast(ctx, domain.AdminRoom, domain.AdminEvent, notification))
	outcomes = append(outcomes, s.pushToAdmins(ctx, domain.PushMessage{
		Title: "New Order",
		Body:  msg,
		Data:  pushData(domain.EventNewOrder, order.OrderID),
	})...)
	outcomes = append(outcomes, s.publishEvent(ctx, routingKeyCreated, notification)...)

	s.logReport(domain.EventNewOrder, order.OrderID, outcomes)
	return true
}

// NotifyAdminOrderStatusChange tells every admin about a status transition.
func (s *NotifierService) NotifyAdminOrderStatusChange(ctx context.Context, order *orderdomain.Order, oldStatus, newStatus orderdomain.OrderStatus) bool {
	if order == nil {
		logger.Get().Error("Notify called with nil order", zap.String("event", string(domain.EventOrderStatusChange)))
		return false
	}

	msg := domain.StatusChangeMessage(order.OrderID, oldStatus, newStatus)
	notification := domain.Notification{
		Type:    domain.EventOrderStatusChange,
		Message: msg,
		Order: domain.OrderSnapshot{
			OrderID:   order.OrderID,
			OldStatus: string(oldStatus),
			NewStatus: string(newStatus),
			UpdatedAt: order.UpdatedAt,
		},
		Timestamp: time.Now(),
	}

	var outcomes []deliveryOutcome
	outcomes = append(outcomes, s.broadcast(ctx, domain.AdminRoom, domain.AdminEvent, notification))
	outcomes = append(outcomes, s.pushToAdmins(ctx, domain.PushMessage{
		Title: "Order Update",
		Body:  msg,
		Data:  pushData(domain.EventOrderStatusChange, order.OrderID),
	})...)
	outcomes = append(outcomes, s.publishEvent(ctx, routingKeyStatusChanged, notification)...)

	s.logReport(domain.EventOrderStatusChange, order.OrderID, outcomes)
	return true
}

// NotifyAdminPaymentCompleted tells every admin about a completed payment.
func (s *NotifierService) NotifyAdminPaymentCompleted(ctx context.Context, order *orderdomain.Order) bool {
	if order == nil {
		logger.Get().Error("Notify called with nil order", zap.String("event", string(domain.EventPaymentCompleted)))
		return false
	}

	msg := domain.PaymentCompletedMessage(order.OrderID)
	notification := domain.Notification{
		Type:    domain.EventPaymentCompleted,
		Message: msg,
		Order: domain.OrderSnapshot{
			OrderID:       order.OrderID,
			TotalAmount:   order.TotalAmount,
			PaymentMethod: string(order.PaymentMethod),
			PaymentStatus: string(order.PaymentStatus),
		},
		Timestamp: time.Now(),
	}

	var outcomes []deliveryOutcome
	outcomes = append(outcomes, s.broadcast(ctx, domain.AdminRoom, domain.AdminEvent, notification))
	outcomes = append(outcomes, s.pushToAdmins(ctx, domain.PushMessage{
		Title: "Payment Received",
		Body:  msg,
		Data:  pushData(domain.EventPaymentCompleted, order.OrderID),
	})...)
	outcomes = append(outcomes, s.publishEvent(ctx, routingKeyPaymentCompleted, notification)...)

	s.logReport(domain.EventPaymentCompleted, order.OrderID, outcomes)
	return true
}

// NotifyUserOrderStatusChange tells the owning customer about a status change.
func (s *NotifierService) NotifyUserOrderStatusChange(ctx context.Context, order *orderdomain.Order, newStatus orderdomain.OrderStatus) bool {
	if order == nil {
		logger.Get().Error("Notify called with nil order", zap.String("event", string(domain.EventOrderStatusUpdate)))
		return false
	}

	msg := domain.UserStatusMessage(order.OrderID, newStatus)
	notification := domain.Notification{
		Type:    domain.EventOrderStatusUpdate,
		Message: msg,
		Order: domain.OrderSnapshot{
			OrderID:   order.OrderID,
			NewStatus: string(newStatus),
			UpdatedAt: order.UpdatedAt,
		},
		Timestamp: time.Now(),
	}

	var outcomes []deliveryOutcome
	outcomes = append(outcomes, s.broadcast(ctx, domain.UserRoom(order.UserID), domain.UserEvent, notification))
	outcomes = append(outcomes, s.pushToCustomer(ctx, order.UserID, domain.PushMessage{
		Title: "Order Update",
		Body:  msg,
		Data:  pushData(domain.EventOrderStatusUpdate, order.OrderID),
	})...)

	s.logReport(domain.EventOrderStatusUpdate, order.OrderID, outcomes)
	return true
}

// ConnectedAdminCount returns the number of connected admin sessions.
func (s *NotifierService) ConnectedAdminCount(ctx context.Context) int {
	return s.roomCount(ctx, domain.AdminRoom)
}

// ConnectedUserCount returns the number of connected customer sessions.
func (s *NotifierService) ConnectedUserCount(ctx context.Context) int {
	return s.roomCount(ctx, domain.UserSessionsRoom)
}

func (s *NotifierService) roomCount(ctx context.Context, room string) int {
	count, err := s.transport.RoomMemberCount(ctx, room)
	if err != nil {
		logger.Get().Warn("Failed to count room members",
			zap.String("room", room),
			zap.Error(err),
		)
		return 0
	}
	return count
}

// broadcast attempts one realtime room delivery.
func (s *NotifierService) broadcast(ctx context.Context, room, event string, notification domain.Notification) deliveryOutcome {
	err := s.transport.BroadcastToRoom(ctx, room, event, notification)
	if err != nil {
		logger.Get().Warn("Realtime broadcast failed",
			zap.String("room", room),
			zap.String("event", event),
			zap.Error(err),
		)
	}
	return deliveryOutcome{channel: "realtime", target: room, err: err}
}

// pushToAdmins resolves admin push tokens fresh and attempts each send
// independently; one token's failure never blocks the rest.
func (s *NotifierService) pushToAdmins(ctx context.Context, msg domain.PushMessage) []deliveryOutcome {
	admins, err := s.admins.ListWithPushTokens(ctx)
	if err != nil {
		logger.Get().Warn("Failed to resolve admin push tokens", zap.Error(err))
		return []deliveryOutcome{{channel: "push", target: "admins", err: err}}
	}
	if len(admins) == 0 {
		return nil
	}

	outcomes := make([]deliveryOutcome, 0, len(admins))
	for _, admin := range admins {
		outcomes = append(outcomes, s.sendPush(ctx, admin.PushToken, msg))
	}
	return outcomes
}

// pushToCustomer looks up the owning customer's token and attempts one send.
func (s *NotifierService) pushToCustomer(ctx context.Context, userID string, msg domain.PushMessage) []deliveryOutcome {
	customer, err := s.customers.GetByID(ctx, userID)
	if err != nil {
		logger.Get().Warn("Failed to resolve customer push token",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return []deliveryOutcome{{channel: "push", target: userID, err: err}}
	}
	if customer == nil || customer.PushToken == "" {
		return nil
	}

	return []deliveryOutcome{s.sendPush(ctx, customer.PushToken, msg)}
}

// sendPush performs one bounded push attempt.
func (s *NotifierService) sendPush(ctx context.Context, token string, msg domain.PushMessage) deliveryOutcome {
	sendCtx, cancel := context.WithTimeout(ctx, s.tokenTimeout)
	defer cancel()

	err := s.push.Send(sendCtx, token, msg)
	if err != nil {
		logger.Get().Warn("Push send failed",
			zap.String("token", token),
			zap.Error(err),
		)
	}
	return deliveryOutcome{channel: "push", target: token, err: err}
}

// publishEvent attempts the optional broker publish.
func (s *NotifierService) publishEvent(ctx context.Context, routingKey string, payload any) []deliveryOutcome {
	if s.events == nil {
		return nil
	}

	err := s.events.Publish(ctx, routingKey, payload)
	if err != nil {
		logger.Get().Warn("Event publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
	return []deliveryOutcome{{channel: "broker", target: routingKey, err: err}}
}

// logReport emits the structured delivery report for one fan-out.
func (s *NotifierService) logReport(event domain.EventType, orderID string, outcomes []deliveryOutcome) {
	attempted := len(outcomes)
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
		}
	}

	logger.Get().Info("Notification fan-out completed",
		zap.String("event", string(event)),
		zap.String("order_id", orderID),
		zap.Int("attempted", attempted),
		zap.Int("failed", failed),
	)
}

func pushData(event domain.EventType, orderID string) map[string]string {
	return map[string]string{
		"type":    string(event),
		"orderId": orderID,
	}
}
