package domain

import (
	"context"
	"time"
)

// AnalyticsRepository es el log analítico append-only del saga.
type AnalyticsRepository interface {
	Record(ctx context.Context, record *EventRecord) error
	DailyMetrics(ctx context.Context, day time.Time) (*OrderMetrics, error)
}
