package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cakeshop-backend/internal/features/orders/domain"
	"cakeshop-backend/internal/features/orders/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of ports.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if order := args.Get(0); order != nil {
		return order.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if orders := args.Get(0); orders != nil {
		return orders.([]domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOrderNotifier is a mock implementation of notifports.OrderNotifier.
type MockOrderNotifier struct {
	mock.Mock
}

func (m *MockOrderNotifier) NotifyAdminNewOrder(ctx context.Context, order *domain.Order) bool {
	return m.Called(ctx, order).Bool(0)
}

func (m *MockOrderNotifier) NotifyAdminOrderStatusChange(ctx context.Context, order *domain.Order, oldStatus, newStatus domain.OrderStatus) bool {
	return m.Called(ctx, order, oldStatus, newStatus).Bool(0)
}

func (m *MockOrderNotifier) NotifyAdminPaymentCompleted(ctx context.Context, order *domain.Order) bool {
	return m.Called(ctx, order).Bool(0)
}

func (m *MockOrderNotifier) NotifyUserOrderStatusChange(ctx context.Context, order *domain.Order, newStatus domain.OrderStatus) bool {
	return m.Called(ctx, order, newStatus).Bool(0)
}

func (m *MockOrderNotifier) ConnectedAdminCount(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func (m *MockOrderNotifier) ConnectedUserCount(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func placeOrderInput() ports.PlaceOrderInput {
	return ports.PlaceOrderInput{
		UserID:         "user-1",
		Items:          []domain.OrderItem{{ProductID: "cake-1", Quantity: 2, Price: 100}},
		Tax:            10,
		ShippingCharge: 20,
		TotalAmount:    220,
		PaymentMethod:  domain.PaymentMethodCOD,
		ShippingAddress: domain.ShippingAddress{
			Label:   domain.AddressLabelHome,
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
	}
}

func storedOrder() *domain.Order {
	order, _ := domain.NewOrder("user-1",
		[]domain.OrderItem{{ProductID: "cake-1", Quantity: 2, Price: 100}},
		10, 20, 220, domain.PaymentMethodGateway, domain.ShippingAddress{
			Label: domain.AddressLabelHome, Street: "12 MG Road",
			City: "Bengaluru", State: "Karnataka", Pincode: "560001",
		})
	order.OrderID = "ORD250307123456"
	return order
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		repo.On("OrderIDExists", mock.Anything, mock.Anything).Return(false, nil).Once()
		repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("NotifyAdminNewOrder", mock.Anything, mock.Anything).Return(true).Once()

		order, err := svc.PlaceOrder(ctx, placeOrderInput())
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(`^ORD\d{12}$`), order.OrderID)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
		assert.Equal(t, float64(220), order.TotalAmount)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("RegeneratesWhenInsertCollides", func(t *testing.T) {
		// The existence check cleared the candidate but a concurrent write
		// claimed it first. The duplicate-key error must trigger a fresh
		// candidate and a second insert, invisible to the caller.
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		repo.On("OrderIDExists", mock.Anything, mock.Anything).Return(false, nil).Twice()
		repo.On("Insert", mock.Anything, mock.Anything).Return(ports.ErrDuplicateOrderID).Once()
		repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("NotifyAdminNewOrder", mock.Anything, mock.Anything).Return(true).Once()

		order, err := svc.PlaceOrder(ctx, placeOrderInput())
		require.NoError(t, err)
		assert.NotEmpty(t, order.OrderID)
		repo.AssertExpectations(t)
	})

	t.Run("ExhaustedCandidates", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		repo.On("OrderIDExists", mock.Anything, mock.Anything).Return(true, nil)

		_, err := svc.PlaceOrder(ctx, placeOrderInput())
		assert.ErrorIs(t, err, ErrOrderIDExhausted)
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("ValidationRejectsEmptyItems", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		input := placeOrderInput()
		input.Items = nil

		_, err := svc.PlaceOrder(ctx, input)
		assert.ErrorIs(t, err, domain.ErrNoItems)
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("NotifierFailureDoesNotFailPlacement", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		repo.On("OrderIDExists", mock.Anything, mock.Anything).Return(false, nil)
		repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
		notifier.On("NotifyAdminNewOrder", mock.Anything, mock.Anything).Return(false)

		order, err := svc.PlaceOrder(ctx, placeOrderInput())
		require.NoError(t, err)
		assert.NotNil(t, order)
	})
}

func TestGetByOrderID(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		repo.On("GetByOrderID", mock.Anything, "ORD999999999999").Return(nil, nil)

		_, err := svc.GetByOrderID(ctx, "ORD999999999999")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Found", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)

		order, err := svc.GetByOrderID(ctx, stored.OrderID)
		require.NoError(t, err)
		assert.Equal(t, stored.OrderID, order.OrderID)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("NextCursorSetWhenProbeRowPresent", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		base := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
		rows := make([]domain.Order, 3)
		for i := range rows {
			rows[i] = *storedOrder()
			rows[i].CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		}
		repo.On("List", mock.Anything, mock.MatchedBy(func(f ports.OrderFilter) bool {
			return f.Limit == 2
		})).Return(rows, nil)

		page, err := svc.List(ctx, ports.OrderFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Orders, 2)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, page.Orders[1].CreatedAt, *page.NextCursor)
	})

	t.Run("NoNextCursorOnFinalPage", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		repo.On("List", mock.Anything, mock.Anything).Return([]domain.Order{*storedOrder()}, nil)

		page, err := svc.List(ctx, ports.OrderFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Orders, 1)
		assert.Nil(t, page.NextCursor)
	})

	t.Run("DefaultsLimit", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		repo.On("List", mock.Anything, mock.MatchedBy(func(f ports.OrderFilter) bool {
			return f.Limit == defaultListLimit
		})).Return(nil, nil)

		_, err := svc.List(ctx, ports.OrderFilter{})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsThenNotifiesBothAudiences", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		notifier.On("NotifyAdminOrderStatusChange", mock.Anything, mock.Anything,
			domain.OrderStatusPending, domain.OrderStatusProcessing).Return(true).Once()
		notifier.On("NotifyUserOrderStatusChange", mock.Anything, mock.Anything,
			domain.OrderStatusProcessing).Return(true).Once()

		order, err := svc.UpdateStatus(ctx, stored.OrderID, domain.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, order.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("NonAdjacentTransitionStillApplied", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		notifier.On("NotifyAdminOrderStatusChange", mock.Anything, mock.Anything,
			mock.Anything, mock.Anything).Return(true)
		notifier.On("NotifyUserOrderStatusChange", mock.Anything, mock.Anything,
			mock.Anything).Return(true)

		order, err := svc.UpdateStatus(ctx, stored.OrderID, domain.OrderStatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, order.Status)
		require.NotNil(t, order.ActualDelivery)
	})

	t.Run("RejectsUnknownStatus", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)

		_, err := svc.UpdateStatus(ctx, stored.OrderID, domain.OrderStatus("Teleported"))
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("RepoFailureSkipsNotifications", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.UpdateStatus(ctx, stored.OrderID, domain.OrderStatusProcessing)
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "NotifyAdminOrderStatusChange",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresGatewayRefsAndNotifies", func(t *testing.T) {
		repo := new(MockOrderRepository)
		notifier := new(MockOrderNotifier)
		svc := NewOrderService(repo, notifier)

		stored := storedOrder()
		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		notifier.On("NotifyAdminPaymentCompleted", mock.Anything, mock.Anything).Return(true).Once()

		details := domain.PaymentDetails{PaymentRef: "pay_123", Signature: "sig_abc"}
		order, err := svc.VerifyPayment(ctx, stored.OrderID, details)
		require.NoError(t, err)

		assert.Equal(t, domain.PaymentStatusCompleted, order.PaymentStatus)
		assert.Equal(t, "pay_123", order.GatewayPaymentRef)
		assert.Equal(t, "sig_abc", order.GatewaySignature)
		notifier.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		repo.On("GetByOrderID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.VerifyPayment(ctx, "ORD000000000000", domain.PaymentDetails{})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("NilFieldsLeftUntouched", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewOrderService(repo, new(MockOrderNotifier))

		stored := storedOrder()
		existing := "admin-1"
		stored.AssignedAdminID = &existing

		repo.On("GetByOrderID", mock.Anything, stored.OrderID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		agent := "agent-7"
		order, err := svc.Assign(ctx, stored.OrderID, ports.AssignmentInput{DeliveryAgentID: &agent})
		require.NoError(t, err)

		require.NotNil(t, order.AssignedAdminID)
		assert.Equal(t, "admin-1", *order.AssignedAdminID)
		require.NotNil(t, order.DeliveryAgentID)
		assert.Equal(t, "agent-7", *order.DeliveryAgentID)
	})
}
