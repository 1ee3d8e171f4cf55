package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/order/application"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// OrderConsumer reacciona a los eventos de inventario y pago que mueven la
// máquina de estados del pedido. Una cola por tipo de evento, como en el
// resto de servicios del saga.
type OrderConsumer struct {
	service *application.OrderService
	log     *zap.Logger
}

func NewOrderConsumer(service *application.OrderService, log *zap.Logger) *OrderConsumer {
	return &OrderConsumer{service: service, log: log}
}

// Bindings declara las colas del servicio de pedidos y sus routing keys.
func (c *OrderConsumer) Bindings() []sharedBus.Binding {
	return []sharedBus.Binding{
		{
			QueueName:   "order-service-inventoryreserved",
			RoutingKeys: []string{"event.inventoryreserved"},
			Handler:     c.onInventoryReserved,
		},
		{
			QueueName:   "order-service-inventoryreservationfailed",
			RoutingKeys: []string{"event.inventoryreservationfailed"},
			Handler:     c.onInventoryReservationFailed,
		},
		{
			QueueName:   "order-service-paymentprocessed",
			RoutingKeys: []string{"event.paymentprocessed"},
			Handler:     c.onPaymentProcessed,
		},
		{
			QueueName:   "order-service-paymentfailed",
			RoutingKeys: []string{"event.paymentfailed"},
			Handler:     c.onPaymentFailed,
		},
	}
}

func (c *OrderConsumer) onInventoryReserved(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.InventoryReserved)
	if !ok {
		return fmt.Errorf("unexpected event %T on inventoryreserved queue", evt)
	}
	return c.service.HandleInventoryReserved(ctx, e)
}

func (c *OrderConsumer) onInventoryReservationFailed(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.InventoryReservationFailed)
	if !ok {
		return fmt.Errorf("unexpected event %T on inventoryreservationfailed queue", evt)
	}
	return c.service.HandleInventoryReservationFailed(ctx, e)
}

func (c *OrderConsumer) onPaymentProcessed(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.PaymentProcessed)
	if !ok {
		return fmt.Errorf("unexpected event %T on paymentprocessed queue", evt)
	}
	return c.service.HandlePaymentProcessed(ctx, e)
}

func (c *OrderConsumer) onPaymentFailed(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.PaymentFailed)
	if !ok {
		return fmt.Errorf("unexpected event %T on paymentfailed queue", evt)
	}
	return c.service.HandlePaymentFailed(ctx, e)
}
