package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")

	// ErrVersionConflict señala una colisión de versión en el event store
	// bajo escritores concurrentes; el llamante debe reintentar el append.
	ErrVersionConflict = errors.New("event store version conflict")
)

// ---------- Interfaces (Ports) ----------

// OrderRepository define las operaciones persistentes del read model.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error

	// Debe devolver ErrOrderNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateStatus devuelve ErrOrderNotFound si el pedido no existe.
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error

	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error)
}

// StoredEvent es una entrada del log por agregado.
type StoredEvent struct {
	AggregateID uuid.UUID
	EventType   string
	Payload     []byte
	Version     int
	OccurredAt  time.Time
}

// EventStore es el log append-only versionado por agregado.
// Append calcula version = max(existentes)+1; la unicidad de
// (aggregate_id, version) la garantiza el almacenamiento, no el código:
// una colisión debe aflorar como ErrVersionConflict.
type EventStore interface {
	Append(ctx context.Context, aggregateID uuid.UUID, event sharedEvents.Event) error

	// Load devuelve los eventos tipados ordenados por versión. Los tags
	// desconocidos se omiten con aviso, nunca son fatales.
	Load(ctx context.Context, aggregateID uuid.UUID) ([]sharedEvents.Event, error)
}
