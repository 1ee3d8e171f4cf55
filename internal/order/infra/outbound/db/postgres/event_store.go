package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/order/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// EventStorePostgres es la variante de producción del event store.
type EventStorePostgres struct {
	db  *sql.DB
	log *zap.Logger
}

func NewEventStorePostgres(db *sql.DB, log *zap.Logger) *EventStorePostgres {
	return &EventStorePostgres{db: db, log: log}
}

func (s *EventStorePostgres) Append(ctx context.Context, aggregateID uuid.UUID, event sharedEvents.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	var maxVersion sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM event_store WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&maxVersion); err != nil {
		return err
	}
	version := int(maxVersion.Int64) + 1

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_store (aggregate_id, event_type, payload, version, occurred_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		aggregateID, event.Type(), payload, version, event.At(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: aggregate %s version %d", domain.ErrVersionConflict, aggregateID, version)
		}
		return err
	}

	s.log.Debug("Evento guardado en el event store",
		zap.String("aggregate_id", aggregateID.String()),
		zap.String("event_type", event.Type()),
		zap.Int("version", version),
	)
	return nil
}

func (s *EventStorePostgres) Load(ctx context.Context, aggregateID uuid.UUID) ([]sharedEvents.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, payload FROM event_store
		 WHERE aggregate_id = $1 ORDER BY version`,
		aggregateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sharedEvents.Event
	for rows.Next() {
		var eventType string
		var payload []byte
		if err := rows.Scan(&eventType, &payload); err != nil {
			return nil, err
		}

		evt, err := sharedEvents.Decode(eventType, payload)
		if err != nil {
			s.log.Warn("Evento omitido al cargar historial",
				zap.String("aggregate_id", aggregateID.String()),
				zap.String("event_type", eventType),
				zap.Error(err),
			)
			continue
		}
		result = append(result, evt)
	}
	return result, rows.Err()
}

// InitPostgres crea la tabla del event store si no existe.
func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS event_store (
            id BIGSERIAL PRIMARY KEY,
            aggregate_id UUID NOT NULL,
            event_type TEXT NOT NULL,
            payload JSONB NOT NULL,
            version INTEGER NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL,
            UNIQUE (aggregate_id, version)
        )
    `)
	return err
}

// Verificación estática
var _ domain.EventStore = (*EventStorePostgres)(nil)
