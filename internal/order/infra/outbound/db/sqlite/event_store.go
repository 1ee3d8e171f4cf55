package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/order/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// EventStoreSQLite implementa el log append-only versionado por agregado.
type EventStoreSQLite struct {
	db  *sql.DB
	log *zap.Logger
}

func NewEventStoreSQLite(db *sql.DB, log *zap.Logger) *EventStoreSQLite {
	return &EventStoreSQLite{db: db, log: log}
}

// Append calcula version = max(existentes)+1 e inserta. El read-then-write
// no es seguro con escritores concurrentes sobre el mismo agregado: la
// colisión la rechaza el índice único y aflora como ErrVersionConflict
// para que el llamante reintente.
func (s *EventStoreSQLite) Append(ctx context.Context, aggregateID uuid.UUID, event sharedEvents.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	var maxVersion sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM event_store WHERE aggregate_id = ?`,
		aggregateID.String(),
	).Scan(&maxVersion); err != nil {
		return err
	}
	version := int(maxVersion.Int64) + 1

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_store (aggregate_id, event_type, payload, version, occurred_at)
		 VALUES (?,?,?,?,?)`,
		aggregateID.String(), event.Type(), string(payload), version, event.At(),
	)
	if err != nil {
		if isUniqueViolation(err) {
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

// Load devuelve el historial tipado ordenado por versión.
func (s *EventStoreSQLite) Load(ctx context.Context, aggregateID uuid.UUID) ([]sharedEvents.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_type, payload FROM event_store
		 WHERE aggregate_id = ? ORDER BY version`,
		aggregateID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sharedEvents.Event
	for rows.Next() {
		var eventType, payload string
		if err := rows.Scan(&eventType, &payload); err != nil {
			return nil, err
		}

		evt, err := sharedEvents.Decode(eventType, []byte(payload))
		if err != nil {
			// Un tag desconocido (binario viejo leyendo eventos nuevos)
			// se omite; cualquier otro error de decodificación también,
			// con aviso: el historial no debe volverse ilegible entero.
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

// isUniqueViolation detecta la colisión del índice único en sqlite.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Verificación estática
var _ domain.EventStore = (*EventStoreSQLite)(nil)
