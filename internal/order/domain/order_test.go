package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_ComputesTotal(t *testing.T) {
	// Arrange
	customerID := uuid.New()
	items := []OrderItem{
		{ProductID: uuid.New(), ProductName: "Laptop", Quantity: 2, UnitPrice: 999.99},
		{ProductID: uuid.New(), ProductName: "Mouse", Quantity: 4, UnitPrice: 42.49},
	}

	// Act
	order := NewOrder(customerID, items)

	// Assert
	require.NotNil(t, order)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, customerID, order.CustomerID)
	assert.Equal(t, OrderPending, order.Status)
	assert.InDelta(t, 2169.94, order.TotalAmount, 0.001)

	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.OrderID)
		assert.InDelta(t, float64(item.Quantity)*item.UnitPrice, item.TotalPrice, 0.001)
	}
}

func TestOrder_CanTransition(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderPending, OrderInventoryReserved, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderConfirmed, false},
		{OrderInventoryReserved, OrderConfirmed, true},
		{OrderInventoryReserved, OrderFailed, true},
		{OrderInventoryReserved, OrderPending, false},
		{OrderPaymentProcessed, OrderConfirmed, true},
		{OrderConfirmed, OrderCancelled, false},
		{OrderFailed, OrderConfirmed, false},
	}

	for _, tc := range cases {
		order := &Order{Status: tc.from}
		assert.Equalf(t, tc.want, order.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrder_PartitionKey(t *testing.T) {
	order := NewOrder(uuid.New(), []OrderItem{{Quantity: 1, UnitPrice: 1}})
	assert.Equal(t, order.ID.String(), order.PartitionKey())
}
