package dedup

import (
	"context"

	"github.com/google/uuid"
)

// Store registra event_ids ya aplicados para suprimir duplicados
// (entrega at-least-once). El ámbito es la cola: el mismo evento llega
// legítimamente a varias colas, solo la re-entrega a la MISMA cola es un
// duplicado. MarkSeen debe ser atómico: devuelve true si esa cola ya
// había registrado el evento.
type Store interface {
	MarkSeen(ctx context.Context, queue string, eventID uuid.UUID) (alreadySeen bool, err error)
}
