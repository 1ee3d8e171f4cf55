package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

func placedEvent() sharedEvents.OrderPlaced {
	return sharedEvents.OrderPlaced{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderPlaced),
		OrderID:     uuid.New(),
		CustomerID:  uuid.New(),
		TotalAmount: 100,
		PlacedAt:    time.Now().UTC(),
	}
}

func TestInMemoryExchange_RoutesByPattern(t *testing.T) {
	// Arrange
	ctx := context.Background()
	exchange := NewInMemoryExchange("order-processing-events")

	matching, err := exchange.Open(ctx, sharedBus.Binding{
		QueueName:   "inventory-service-orderplaced",
		RoutingKeys: []string{"event.orderplaced"},
	})
	require.NoError(t, err)

	other, err := exchange.Open(ctx, sharedBus.Binding{
		QueueName:   "order-service-paymentfailed",
		RoutingKeys: []string{"event.paymentfailed"},
	})
	require.NoError(t, err)

	wildcard, err := exchange.Open(ctx, sharedBus.Binding{
		QueueName:   "analytics-service-allevents",
		RoutingKeys: []string{"event.*"},
	})
	require.NoError(t, err)

	// Act
	evt := placedEvent()
	require.NoError(t, exchange.Publish(ctx, evt))

	// Assert: la cola con patrón exacto y la comodín reciben; la otra no.
	fetchCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	d, err := matching.Fetch(fetchCtx)
	require.NoError(t, err)
	assert.Equal(t, "event.orderplaced", d.RoutingKey)
	assert.Equal(t, sharedEvents.TypeOrderPlaced, d.Type)
	assert.Equal(t, evt.EventID.String(), d.MessageID)

	_, err = wildcard.Fetch(fetchCtx)
	require.NoError(t, err)

	emptyCtx, cancelEmpty := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelEmpty()
	_, err = other.Fetch(emptyCtx)
	assert.Error(t, err, "una cola sin binding para la key no debe recibir nada")
}

func TestInMemoryExchange_ReopenReusesQueue(t *testing.T) {
	ctx := context.Background()
	exchange := NewInMemoryExchange("order-processing-events")
	binding := sharedBus.Binding{
		QueueName:   "inventory-service-orderplaced",
		RoutingKeys: []string{"event.orderplaced"},
	}

	first, err := exchange.Open(ctx, binding)
	require.NoError(t, err)
	require.NoError(t, exchange.Publish(ctx, placedEvent()))
	require.NoError(t, first.Close())

	// Reabrir la cola "durable" conserva los mensajes pendientes.
	second, err := exchange.Open(ctx, binding)
	require.NoError(t, err)

	fetchCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	d, err := second.Fetch(fetchCtx)
	require.NoError(t, err)
	assert.Equal(t, "event.orderplaced", d.RoutingKey)
}
