package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/analytics/application"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// AnalyticsConsumer escucha con comodín: una sola cola para todo el
// tráfico del exchange del saga.
type AnalyticsConsumer struct {
	service *application.AnalyticsService
	log     *zap.Logger
}

func NewAnalyticsConsumer(service *application.AnalyticsService, log *zap.Logger) *AnalyticsConsumer {
	return &AnalyticsConsumer{service: service, log: log}
}

// Bindings declara la cola comodín del servicio de analítica.
func (c *AnalyticsConsumer) Bindings() []sharedBus.Binding {
	return []sharedBus.Binding{
		{
			QueueName:   "analytics-service-allevents",
			RoutingKeys: []string{"event.*"},
			Handler:     c.onEvent,
		},
	}
}

func (c *AnalyticsConsumer) onEvent(ctx context.Context, evt sharedEvents.Event) error {
	return c.service.HandleEvent(ctx, evt)
}
