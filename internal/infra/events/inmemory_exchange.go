package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// InMemoryExchange implementa el topic exchange con canales de Go:
// publisher y transporte a la vez. Lo usan los tests y el modo local.
type InMemoryExchange struct {
	name string

	mu     sync.RWMutex
	queues map[string]*memoryQueue
}

type memoryQueue struct {
	name     string
	patterns []string
	ch       chan sharedBus.Delivery
}

func NewInMemoryExchange(name string) *InMemoryExchange {
	return &InMemoryExchange{
		name:   name,
		queues: make(map[string]*memoryQueue),
	}
}

// Publish enruta el envelope a cada cola cuyo patrón cubra la routing key.
// El envío bloquea si la cola está llena: en memoria no se pierden mensajes.
func (e *InMemoryExchange) Publish(ctx context.Context, event sharedEvents.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	routingKey := sharedEvents.RoutingKey(event.Type())
	d := sharedBus.Delivery{
		RoutingKey:  routingKey,
		ContentType: "application/json",
		Type:        event.Type(),
		MessageID:   event.ID().String(),
		Timestamp:   time.Now().UTC(),
		Body:        data,
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, q := range e.queues {
		matched := false
		for _, pattern := range q.patterns {
			if sharedBus.MatchRoutingKey(pattern, routingKey) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		select {
		case q.ch <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Open declara la cola y sus bindings; si la cola ya existe se reutiliza
// (mismo comportamiento que una cola durable ya declarada en el broker).
func (e *InMemoryExchange) Open(ctx context.Context, b sharedBus.Binding) (sharedBus.TransportReader, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.queues[b.QueueName]
	if !ok {
		q = &memoryQueue{
			name:     b.QueueName,
			patterns: b.RoutingKeys,
			ch:       make(chan sharedBus.Delivery, 128),
		}
		e.queues[b.QueueName] = q
	}
	return &memoryReader{queue: q}, nil
}

type memoryReader struct {
	queue *memoryQueue
}

func (r *memoryReader) Fetch(ctx context.Context) (sharedBus.Delivery, error) {
	select {
	case d := <-r.queue.ch:
		return d, nil
	case <-ctx.Done():
		return sharedBus.Delivery{}, ctx.Err()
	}
}

// Commit es un no-op: el canal ya retiró el mensaje en Fetch.
func (r *memoryReader) Commit(ctx context.Context) error { return nil }

func (r *memoryReader) Close() error { return nil }

// Verificación estática
var (
	_ sharedBus.EventBus  = (*InMemoryExchange)(nil)
	_ sharedBus.Transport = (*InMemoryExchange)(nil)
)
