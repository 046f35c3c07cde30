package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cakeshop-backend/internal/core/logger"
	notifports "cakeshop-backend/internal/features/notifications/ports"
	"cakeshop-backend/internal/features/orders/domain"
	"cakeshop-backend/internal/features/orders/ports"

	"go.uber.org/zap"
)

// ErrOrderNotFound is returned when no order matches the given identifier.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderIDExhausted is returned when identifier generation keeps colliding.
// Six random digits per day make this effectively unreachable; the bound
// exists so a broken repository cannot spin the service forever.
var ErrOrderIDExhausted = errors.New("could not generate a unique order id")

const (
	maxIDCandidates   = 5
	maxInsertAttempts = 3
	defaultListLimit  = 20
	maxListLimit      = 100
)

// OrderService implements ports.OrderService. Every mutation persists first
// and fans out notifications after; notification results never affect the
// outcome of the mutation.
type OrderService struct {
	repo     ports.OrderRepository
	notifier notifports.OrderNotifier
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(repo ports.OrderRepository, notifier notifports.OrderNotifier) *OrderService {
	return &OrderService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// PlaceOrder validates the input, assigns a collision-free order identifier
// and persists the order. Admins are notified after the write commits.
func (s *OrderService) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(input.UserID, input.Items,
		input.Tax, input.ShippingCharge, input.TotalAmount,
		input.PaymentMethod, input.ShippingAddress)
	if err != nil {
		return nil, err
	}
	order.GatewayOrderRef = input.GatewayOrderRef
	order.OrderInstructions = input.OrderInstructions
	order.DeliveryInstructions = input.DeliveryInstructions

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		orderID, err := s.generateOrderID(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderID = orderID

		err = s.repo.Insert(ctx, order)
		if err == nil {
			s.notifier.NotifyAdminNewOrder(ctx, order)
			return order, nil
		}
		if !errors.Is(err, ports.ErrDuplicateOrderID) {
			return nil, err
		}
		// Lost a race between the existence check and the insert. The
		// unique index is the source of truth; pick a new id and retry.
		logger.Get().Warn("order id collided on insert, regenerating",
			zap.String("orderId", orderID),
			zap.Int("attempt", attempt+1))
	}
	return nil, ErrOrderIDExhausted
}

// generateOrderID draws date-prefixed candidates until one is unused.
func (s *OrderService) generateOrderID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDCandidates; i++ {
		candidate := domain.GenerateOrderID(s.now())
		exists, err := s.repo.OrderIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order id availability: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrOrderIDExhausted
}

// GetByOrderID returns the order or ErrOrderNotFound.
func (s *OrderService) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List returns one page of orders matching the filter, newest first.
func (s *OrderService) List(ctx context.Context, filter ports.OrderFilter) (*ports.OrderPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &ports.OrderPage{Orders: orders}
	if len(orders) > filter.Limit {
		page.Orders = orders[:filter.Limit]
		cursor := page.Orders[filter.Limit-1].CreatedAt
		page.NextCursor = &cursor
	}
	return page, nil
}

// UpdateStatus moves an order to a new status and notifies both audiences.
// Non-adjacent transitions are applied but logged, keeping the API tolerant
// of out-of-order updates from call center tooling.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error) {
	order, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if !domain.CanTransition(oldStatus, newStatus) {
		logger.Get().Warn("applying non-adjacent status transition",
			zap.String("orderId", orderID),
			zap.String("from", string(oldStatus)),
			zap.String("to", string(newStatus)))
	}
	if err := order.ApplyStatus(newStatus, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdminOrderStatusChange(ctx, order, oldStatus, newStatus)
	s.notifier.NotifyUserOrderStatusChange(ctx, order, newStatus)
	return order, nil
}

// VerifyPayment records the gateway confirmation on the order and notifies
// admins. Repeated verification of the same order is a no-op rewrite.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID string, details domain.PaymentDetails) (*domain.Order, error) {
	order, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.ApplyPaymentVerification(details, s.now())
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdminPaymentCompleted(ctx, order)
	return order, nil
}

// Assign sets the handling admin and/or delivery agent. Nil input fields are
// left untouched.
func (s *OrderService) Assign(ctx context.Context, orderID string, input ports.AssignmentInput) (*domain.Order, error) {
	order, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if input.AssignedAdminID != nil {
		order.AssignedAdminID = input.AssignedAdminID
	}
	if input.DeliveryAgentID != nil {
		order.DeliveryAgentID = input.DeliveryAgentID
	}
	order.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
