package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/ordersaga/internal/analytics/domain"
)

// AnalyticsRepoClickHouse es la variante columnar del log analítico,
// pensada para volúmenes de producción.
type AnalyticsRepoClickHouse struct {
	db *sql.DB
}

func NewAnalyticsRepoClickHouse(addr string, dbName string) (*AnalyticsRepoClickHouse, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &AnalyticsRepoClickHouse{db: conn}, nil
}

func (r *AnalyticsRepoClickHouse) Record(ctx context.Context, record *domain.EventRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO saga_events (event_id, event_type, order_id, amount, occurred_at, recorded_at)
		 VALUES (?,?,?,?,?,?)`,
		record.EventID, record.EventType, record.OrderID,
		record.Amount, record.OccurredAt, record.RecordedAt,
	)
	return err
}

func (r *AnalyticsRepoClickHouse) DailyMetrics(ctx context.Context, day time.Time) (*domain.OrderMetrics, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT
			countIf(event_type = 'OrderPlaced') AS total,
			countIf(event_type = 'OrderConfirmed') AS confirmed,
			countIf(event_type = 'OrderCancelled') AS cancelled,
			countIf(event_type = 'PaymentFailed') AS failed,
			sumIf(amount, event_type = 'PaymentProcessed') AS revenue
		FROM saga_events
		WHERE occurred_at >= ? AND occurred_at < ?
	`

	metrics := &domain.OrderMetrics{Day: start.Format("2006-01-02")}
	var total, confirmed, cancelled, failed uint64
	if err := r.db.QueryRowContext(ctx, query, start, end).Scan(
		&total, &confirmed, &cancelled, &failed, &metrics.TotalRevenue,
	); err != nil {
		return nil, err
	}

	metrics.TotalOrders = int(total)
	metrics.ConfirmedOrders = int(confirmed)
	metrics.CancelledOrders = int(cancelled)
	metrics.FailedPayments = int(failed)
	return metrics, nil
}

// InitSchema crea la tabla en ClickHouse si no existe. Particionada por
// mes y ordenada por los campos comunes de consulta.
func (r *AnalyticsRepoClickHouse) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS saga_events (
			event_id    UUID,
			event_type  String,
			order_id    UUID,
			amount      Float64,
			occurred_at DateTime64(3),
			recorded_at DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(occurred_at)
		ORDER BY (event_type, occurred_at);
	`
	_, err := r.db.Exec(query)
	return err
}

// Verificación estática
var _ domain.AnalyticsRepository = (*AnalyticsRepoClickHouse)(nil)
