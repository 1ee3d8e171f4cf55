package bus

import (
	"context"
	"strings"
	"time"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// La semántica de topic/clave y formato del payload la deciden los adapters.
type EventBus interface {
	Publish(ctx context.Context, event sharedEvents.Event) error
}

// Handler procesa un evento ya tipado. Si devuelve error, el runtime
// descarta el mensaje (reject sin requeue, sin dead-letter).
type Handler func(ctx context.Context, event sharedEvents.Event) error

// Binding es el contrato de capacidad de un consumidor: una cola durable
// ligada a uno o más patrones de routing key, con su handler.
type Binding struct {
	QueueName   string
	RoutingKeys []string
	Handler     Handler
}

// Matches indica si alguno de los patrones del binding cubre la routing key.
func (b Binding) Matches(routingKey string) bool {
	for _, pattern := range b.RoutingKeys {
		if MatchRoutingKey(pattern, routingKey) {
			return true
		}
	}
	return false
}

// Delivery es un mensaje tal y como llega del transporte, antes de decodificar.
type Delivery struct {
	RoutingKey  string
	ContentType string
	Type        string
	MessageID   string
	Timestamp   time.Time
	Body        []byte
}

// TransportReader entrega mensajes de una cola de uno en uno.
// Commit confirma (ack) el último mensaje entregado por Fetch.
type TransportReader interface {
	Fetch(ctx context.Context) (Delivery, error)
	Commit(ctx context.Context) error
	Close() error
}

// Transport abre lectores de cola; cada Binding obtiene el suyo.
type Transport interface {
	Open(ctx context.Context, b Binding) (TransportReader, error)
}

// MatchRoutingKey implementa el matching por segmentos del topic exchange:
// "*" cubre exactamente un segmento y "#" cubre cero o más.
func MatchRoutingKey(pattern, key string) bool {
	if pattern == key {
		return true
	}

	pp := strings.Split(pattern, ".")
	kk := strings.Split(key, ".")
	return matchSegments(pp, kk)
}

func matchSegments(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}

	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchSegments(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		if len(key) == 0 {
			return false
		}
		return matchSegments(pattern[1:], key[1:])
	default:
		if len(key) == 0 || pattern[0] != key[0] {
			return false
		}
		return matchSegments(pattern[1:], key[1:])
	}
}
