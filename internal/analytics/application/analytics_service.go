package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/analytics/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// AnalyticsService registra TODOS los eventos del saga (binding comodín) y
// sirve las métricas diarias agregadas.
type AnalyticsService struct {
	repo domain.AnalyticsRepository
	log  *zap.Logger
}

func NewAnalyticsService(repo domain.AnalyticsRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, log: log}
}

// HandleEvent registra cualquier evento del saga. El importe solo viaja en
// OrderPlaced y en los eventos de pago; para el resto queda en cero.
func (s *AnalyticsService) HandleEvent(ctx context.Context, evt sharedEvents.Event) error {
	record := &domain.EventRecord{
		EventID:    evt.ID(),
		EventType:  evt.Type(),
		OccurredAt: evt.At(),
		RecordedAt: time.Now().UTC(),
	}

	switch e := evt.(type) {
	case sharedEvents.OrderPlaced:
		record.OrderID = e.OrderID
		record.Amount = e.TotalAmount
	case sharedEvents.OrderConfirmed:
		record.OrderID = e.OrderID
	case sharedEvents.OrderCancelled:
		record.OrderID = e.OrderID
	case sharedEvents.InventoryReserved:
		record.OrderID = e.OrderID
	case sharedEvents.InventoryReservationFailed:
		record.OrderID = e.OrderID
	case sharedEvents.InventoryReleased:
		record.OrderID = e.OrderID
	case sharedEvents.PaymentProcessed:
		record.OrderID = e.OrderID
		record.Amount = e.Amount
	case sharedEvents.PaymentFailed:
		record.OrderID = e.OrderID
		record.Amount = e.Amount
	case sharedEvents.PaymentRefunded:
		record.OrderID = e.OrderID
		record.Amount = e.Amount
	default:
		s.log.Debug("Evento sin order_id registrado en analítica",
			zap.String("event_type", evt.Type()),
		)
	}

	return s.repo.Record(ctx, record)
}

// DailyMetrics devuelve el agregado de la fecha indicada.
func (s *AnalyticsService) DailyMetrics(ctx context.Context, day time.Time) (*domain.OrderMetrics, error) {
	return s.repo.DailyMetrics(ctx, day)
}
