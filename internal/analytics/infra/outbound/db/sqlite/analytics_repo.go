package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davicafu/ordersaga/internal/analytics/domain"
)

// AnalyticsRepoSQLite es la variante ligera del log analítico, para
// desarrollo local y tests.
type AnalyticsRepoSQLite struct {
	db *sql.DB
}

func NewAnalyticsRepoSQLite(db *sql.DB) *AnalyticsRepoSQLite {
	return &AnalyticsRepoSQLite{db: db}
}

func (r *AnalyticsRepoSQLite) Record(ctx context.Context, record *domain.EventRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO saga_events (event_id, event_type, order_id, amount, occurred_at, recorded_at)
		 VALUES (?,?,?,?,?,?)`,
		record.EventID.String(), record.EventType, record.OrderID.String(),
		record.Amount, record.OccurredAt, record.RecordedAt,
	)
	return err
}

func (r *AnalyticsRepoSQLite) DailyMetrics(ctx context.Context, day time.Time) (*domain.OrderMetrics, error) {
	dayStr := day.UTC().Format("2006-01-02")
	row := r.db.QueryRowContext(ctx,
		`SELECT
            SUM(CASE WHEN event_type = 'OrderPlaced' THEN 1 ELSE 0 END),
            SUM(CASE WHEN event_type = 'OrderConfirmed' THEN 1 ELSE 0 END),
            SUM(CASE WHEN event_type = 'OrderCancelled' THEN 1 ELSE 0 END),
            SUM(CASE WHEN event_type = 'PaymentFailed' THEN 1 ELSE 0 END),
            SUM(CASE WHEN event_type = 'PaymentProcessed' THEN amount ELSE 0 END)
         FROM saga_events
         WHERE date(occurred_at) = ?`, dayStr)

	metrics := &domain.OrderMetrics{Day: dayStr}
	var total, confirmed, cancelled, failed sql.NullInt64
	var revenue sql.NullFloat64
	if err := row.Scan(&total, &confirmed, &cancelled, &failed, &revenue); err != nil {
		return nil, err
	}

	metrics.TotalOrders = int(total.Int64)
	metrics.ConfirmedOrders = int(confirmed.Int64)
	metrics.CancelledOrders = int(cancelled.Int64)
	metrics.FailedPayments = int(failed.Int64)
	metrics.TotalRevenue = revenue.Float64
	return metrics, nil
}

// InitSQLite crea la tabla del log analítico si no existe.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS saga_events (
            event_id TEXT PRIMARY KEY,
            event_type TEXT NOT NULL,
            order_id TEXT NOT NULL,
            amount REAL NOT NULL DEFAULT 0,
            occurred_at DATETIME NOT NULL,
            recorded_at DATETIME NOT NULL
        )
    `)
	return err
}

// Verificación estática
var _ domain.AnalyticsRepository = (*AnalyticsRepoSQLite)(nil)
