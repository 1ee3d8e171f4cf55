package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/inventory/application"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// InventoryConsumer engancha el servicio de inventario al bus: reserva en
// OrderPlaced y compensa en InventoryReleased.
type InventoryConsumer struct {
	service *application.InventoryService
	log     *zap.Logger
}

func NewInventoryConsumer(service *application.InventoryService, log *zap.Logger) *InventoryConsumer {
	return &InventoryConsumer{service: service, log: log}
}

// Bindings declara las colas del servicio de inventario y sus routing keys.
func (c *InventoryConsumer) Bindings() []sharedBus.Binding {
	return []sharedBus.Binding{
		{
			QueueName:   "inventory-service-orderplaced",
			RoutingKeys: []string{"event.orderplaced"},
			Handler:     c.onOrderPlaced,
		},
		{
			QueueName:   "inventory-service-inventoryreleased",
			RoutingKeys: []string{"event.inventoryreleased"},
			Handler:     c.onInventoryReleased,
		},
	}
}

func (c *InventoryConsumer) onOrderPlaced(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.OrderPlaced)
	if !ok {
		return fmt.Errorf("unexpected event %T on orderplaced queue", evt)
	}
	return c.service.HandleOrderPlaced(ctx, e)
}

func (c *InventoryConsumer) onInventoryReleased(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.InventoryReleased)
	if !ok {
		return fmt.Errorf("unexpected event %T on inventoryreleased queue", evt)
	}
	return c.service.HandleInventoryReleased(ctx, e)
}
