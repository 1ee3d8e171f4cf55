package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/payment/application"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// PaymentConsumer engancha el servicio de pagos al bus: OrderPlaced
// alimenta la proyección de importes e InventoryReserved dispara el cobro.
type PaymentConsumer struct {
	service *application.PaymentService
	log     *zap.Logger
}

func NewPaymentConsumer(service *application.PaymentService, log *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{service: service, log: log}
}

// Bindings declara las colas del servicio de pagos y sus routing keys.
func (c *PaymentConsumer) Bindings() []sharedBus.Binding {
	return []sharedBus.Binding{
		{
			QueueName:   "payment-service-orderplaced",
			RoutingKeys: []string{"event.orderplaced"},
			Handler:     c.onOrderPlaced,
		},
		{
			QueueName:   "payment-service-inventoryreserved",
			RoutingKeys: []string{"event.inventoryreserved"},
			Handler:     c.onInventoryReserved,
		},
	}
}

func (c *PaymentConsumer) onOrderPlaced(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.OrderPlaced)
	if !ok {
		return fmt.Errorf("unexpected event %T on orderplaced queue", evt)
	}
	return c.service.HandleOrderPlaced(ctx, e)
}

func (c *PaymentConsumer) onInventoryReserved(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.InventoryReserved)
	if !ok {
		return fmt.Errorf("unexpected event %T on inventoryreserved queue", evt)
	}
	return c.service.HandleInventoryReserved(ctx, e)
}
