package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	infraDedup "github.com/davicafu/ordersaga/internal/infra/dedup"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// collector acumula los eventos que llegan al handler de prueba.
type collector struct {
	mu     sync.Mutex
	events []sharedEvents.Event
	fail   bool
}

func (c *collector) handle(ctx context.Context, evt sharedEvents.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("handler exploded")
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestConsumerRuntime_DeliversTypedEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exchange := NewInMemoryExchange("order-processing-events")
	runtime := NewConsumerRuntime(exchange, nil, 0, zap.NewNop())

	col := &collector{}
	runtime.Start(ctx, sharedBus.Binding{
		QueueName:   "inventory-service-orderplaced",
		RoutingKeys: []string{"event.orderplaced"},
		Handler:     col.handle,
	})

	evt := placedEvent()
	require.NoError(t, exchange.Publish(ctx, evt))

	assert.Eventually(t, func() bool { return col.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	col.mu.Lock()
	defer col.mu.Unlock()
	placed, ok := col.events[0].(sharedEvents.OrderPlaced)
	require.True(t, ok)
	assert.Equal(t, evt.OrderID, placed.OrderID)
}

func TestConsumerRuntime_SuppressesDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exchange := NewInMemoryExchange("order-processing-events")
	store := infraDedup.NewInMemoryStore(time.Minute, time.Minute)
	defer store.Stop()

	runtime := NewConsumerRuntime(exchange, store, 0, zap.NewNop())

	col := &collector{}
	runtime.Start(ctx, sharedBus.Binding{
		QueueName:   "inventory-service-orderplaced",
		RoutingKeys: []string{"event.orderplaced"},
		Handler:     col.handle,
	})

	// El mismo evento entregado dos veces: mismo event_id.
	evt := placedEvent()
	require.NoError(t, exchange.Publish(ctx, evt))
	require.NoError(t, exchange.Publish(ctx, evt))

	distinct := placedEvent()
	require.NoError(t, exchange.Publish(ctx, distinct))

	assert.Eventually(t, func() bool { return col.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Margen extra: el duplicado no debe colarse tarde.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, col.count())
}

func TestConsumerRuntime_HandlerErrorDropsMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exchange := NewInMemoryExchange("order-processing-events")
	runtime := NewConsumerRuntime(exchange, nil, 0, zap.NewNop())

	col := &collector{fail: true}
	runtime.Start(ctx, sharedBus.Binding{
		QueueName:   "inventory-service-orderplaced",
		RoutingKeys: []string{"event.orderplaced"},
		Handler:     col.handle,
	})

	require.NoError(t, exchange.Publish(ctx, placedEvent()))
	time.Sleep(100 * time.Millisecond)

	// Sin requeue: el handler fallido no recibe el mensaje otra vez.
	assert.Equal(t, 0, col.count())

	col.mu.Lock()
	col.fail = false
	col.mu.Unlock()

	// El consumidor sigue vivo y procesa el siguiente mensaje.
	require.NoError(t, exchange.Publish(ctx, placedEvent()))
	assert.Eventually(t, func() bool { return col.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}
