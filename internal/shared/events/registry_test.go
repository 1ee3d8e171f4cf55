package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ReconstructsTypedEvent(t *testing.T) {
	// Arrange
	original := OrderPlaced{
		Meta:       NewMeta(TypeOrderPlaced),
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Items: []OrderItem{
			{ProductID: uuid.New(), ProductName: "Laptop", Quantity: 1, UnitPrice: 999.99},
		},
		TotalAmount: 999.99,
	}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	// Act
	decoded, err := Decode(TypeOrderPlaced, data)

	// Assert
	require.NoError(t, err)
	placed, ok := decoded.(OrderPlaced)
	require.True(t, ok, "Decode debe devolver el tipo concreto por valor")
	assert.Equal(t, original.EventID, placed.ID())
	assert.Equal(t, original.OrderID, placed.OrderID)
	assert.Equal(t, original.Items, placed.Items)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode("OrderTeleported", []byte(`{}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestRegistry_CoversEveryEventType(t *testing.T) {
	registry := Registry()

	for _, typ := range []string{
		TypeOrderPlaced, TypeOrderConfirmed, TypeOrderCancelled,
		TypeInventoryReserved, TypeInventoryReservationFailed, TypeInventoryReleased,
		TypePaymentProcessed, TypePaymentFailed, TypePaymentRefunded,
	} {
		assert.Contains(t, registry, typ)
	}
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "event.orderplaced", RoutingKey(TypeOrderPlaced))
	assert.Equal(t, "event.inventoryreservationfailed", RoutingKey(TypeInventoryReservationFailed))
}
