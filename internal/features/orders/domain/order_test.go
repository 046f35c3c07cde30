package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		Label:   AddressLabelHome,
		Street:  "12 Baker Street",
		City:    "Pune",
		State:   "MH",
		Pincode: "411001",
	}
}

func TestNewOrder(t *testing.T) {
	items := []OrderItem{{ProductID: "cake-1", Quantity: 2, Price: 100}}

	t.Run("Success", func(t *testing.T) {
		order, err := NewOrder("user-1", items, 10, 20, 230, PaymentMethodCOD, validAddress())
		require.NoError(t, err)
		assert.NotEmpty(t, order.ID)
		assert.Empty(t, order.OrderID)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
		assert.False(t, order.CreatedAt.IsZero())
		assert.Nil(t, order.ActualDelivery)
	})

	t.Run("NoItems", func(t *testing.T) {
		_, err := NewOrder("user-1", nil, 0, 0, 0, PaymentMethodCOD, validAddress())
		assert.ErrorIs(t, err, ErrNoItems)
	})

	t.Run("InvalidItem", func(t *testing.T) {
		bad := []OrderItem{{ProductID: "cake-1", Quantity: 0, Price: 100}}
		_, err := NewOrder("user-1", bad, 0, 0, 0, PaymentMethodCOD, validAddress())
		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("NegativeTax", func(t *testing.T) {
		_, err := NewOrder("user-1", items, -1, 0, 0, PaymentMethodCOD, validAddress())
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("InvalidPaymentMethod", func(t *testing.T) {
		_, err := NewOrder("user-1", items, 0, 0, 200, "Cheque", validAddress())
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("InvalidAddressLabel", func(t *testing.T) {
		addr := validAddress()
		addr.Label = "Castle"
		_, err := NewOrder("user-1", items, 0, 0, 200, PaymentMethodCOD, addr)
		assert.ErrorIs(t, err, ErrInvalidAddressLabel)
	})
}

func TestGenerateOrderID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD\d{12}$`)
	now := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		id := GenerateOrderID(now)
		assert.Regexp(t, pattern, id)
		// Date segment is fixed for a fixed clock; only the random tail varies.
		assert.Equal(t, "ORD250307", id[:9])
	}
}

func TestCalculateTotal(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{ProductID: "a", Quantity: 2, Price: 100},
		{ProductID: "b", Quantity: 1, Price: 49.5},
	}}
	assert.InDelta(t, 249.5, order.CalculateTotal(), 0.001)
}

func TestApplyStatus(t *testing.T) {
	t.Run("ShippedDoesNotSetActualDelivery", func(t *testing.T) {
		order := &Order{Status: OrderStatusProcessing}
		before := order.UpdatedAt

		err := order.ApplyStatus(OrderStatusShipped, time.Now())
		require.NoError(t, err)
		assert.Equal(t, OrderStatusShipped, order.Status)
		assert.Nil(t, order.ActualDelivery)
		assert.NotEqual(t, before, order.UpdatedAt)
	})

	t.Run("DeliveredSetsActualDeliveryOnce", func(t *testing.T) {
		order := &Order{Status: OrderStatusShipped}
		deliveredAt := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

		require.NoError(t, order.ApplyStatus(OrderStatusDelivered, deliveredAt))
		require.NotNil(t, order.ActualDelivery)
		assert.Equal(t, deliveredAt, *order.ActualDelivery)

		// A later overwrite never clears or moves the delivery timestamp.
		require.NoError(t, order.ApplyStatus(OrderStatusCancelled, deliveredAt.Add(time.Hour)))
		require.NotNil(t, order.ActualDelivery)
		assert.Equal(t, deliveredAt, *order.ActualDelivery)

		require.NoError(t, order.ApplyStatus(OrderStatusDelivered, deliveredAt.Add(2*time.Hour)))
		assert.Equal(t, deliveredAt, *order.ActualDelivery)
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		order := &Order{Status: OrderStatusPending}
		err := order.ApplyStatus("Lost", time.Now())
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusProcessing))
	assert.True(t, CanTransition(OrderStatusProcessing, OrderStatusShipped))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusDelivered))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusCancelled))

	assert.False(t, CanTransition(OrderStatusPending, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusProcessing))
}

func TestApplyPaymentVerification(t *testing.T) {
	details := PaymentDetails{PaymentRef: "pay_123", Signature: "sig_abc"}

	t.Run("Gateway", func(t *testing.T) {
		order := &Order{PaymentMethod: PaymentMethodGateway, PaymentStatus: PaymentStatusPending}
		order.ApplyPaymentVerification(details, time.Now())

		assert.Equal(t, "pay_123", order.GatewayPaymentRef)
		assert.Equal(t, "sig_abc", order.GatewaySignature)
		assert.Equal(t, PaymentStatusCompleted, order.PaymentStatus)

		// Idempotent on the final state.
		order.ApplyPaymentVerification(details, time.Now())
		assert.Equal(t, "pay_123", order.GatewayPaymentRef)
		assert.Equal(t, PaymentStatusCompleted, order.PaymentStatus)
	})

	t.Run("CODDoesNotStoreGatewayRefs", func(t *testing.T) {
		order := &Order{PaymentMethod: PaymentMethodCOD, PaymentStatus: PaymentStatusPending}
		order.ApplyPaymentVerification(details, time.Now())

		assert.Empty(t, order.GatewayPaymentRef)
		assert.Empty(t, order.GatewaySignature)
		assert.Equal(t, PaymentStatusCompleted, order.PaymentStatus)
	})
}
