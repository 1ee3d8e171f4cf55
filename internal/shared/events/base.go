package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event es el contrato mínimo de todos los eventos de integración.
type Event interface {
	ID() uuid.UUID
	Type() string
	At() time.Time
}

// Meta viaja embebida en cada evento: el envelope queda plano en JSON
// (event_id, event_type, occurred_at + campos propios del evento).
type Meta struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMeta crea la metadata de un evento recién producido.
func NewMeta(eventType string) Meta {
	return Meta{
		EventID:    uuid.New(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
	}
}

func (m Meta) ID() uuid.UUID { return m.EventID }
func (m Meta) Type() string  { return m.EventType }
func (m Meta) At() time.Time { return m.OccurredAt }

// RoutingKey deriva la clave de enrutado del exchange: event.<tipo en minúsculas>.
func RoutingKey(eventType string) string {
	return "event." + strings.ToLower(eventType)
}
