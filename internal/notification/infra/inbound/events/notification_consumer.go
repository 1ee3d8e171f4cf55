package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/notification/application"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// NotificationConsumer engancha el servicio de notificaciones al bus.
type NotificationConsumer struct {
	service *application.NotificationService
	log     *zap.Logger
}

func NewNotificationConsumer(service *application.NotificationService, log *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{service: service, log: log}
}

// Bindings declara las colas del servicio de notificaciones y sus
// routing keys.
func (c *NotificationConsumer) Bindings() []sharedBus.Binding {
	return []sharedBus.Binding{
		{
			QueueName:   "notification-service-orderplaced",
			RoutingKeys: []string{"event.orderplaced"},
			Handler:     c.onOrderPlaced,
		},
		{
			QueueName:   "notification-service-orderconfirmed",
			RoutingKeys: []string{"event.orderconfirmed"},
			Handler:     c.onOrderConfirmed,
		},
		{
			QueueName:   "notification-service-ordercancelled",
			RoutingKeys: []string{"event.ordercancelled"},
			Handler:     c.onOrderCancelled,
		},
	}
}

func (c *NotificationConsumer) onOrderPlaced(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.OrderPlaced)
	if !ok {
		return fmt.Errorf("unexpected event %T on orderplaced queue", evt)
	}
	return c.service.HandleOrderPlaced(ctx, e)
}

func (c *NotificationConsumer) onOrderConfirmed(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.OrderConfirmed)
	if !ok {
		return fmt.Errorf("unexpected event %T on orderconfirmed queue", evt)
	}
	return c.service.HandleOrderConfirmed(ctx, e)
}

func (c *NotificationConsumer) onOrderCancelled(ctx context.Context, evt sharedEvents.Event) error {
	e, ok := evt.(sharedEvents.OrderCancelled)
	if !ok {
		return fmt.Errorf("unexpected event %T on ordercancelled queue", evt)
	}
	return c.service.HandleOrderCancelled(ctx, e)
}
