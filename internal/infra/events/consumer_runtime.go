package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
	sharedDedup "github.com/davicafu/ordersaga/internal/shared/infra/platform/dedup"
	"github.com/davicafu/ordersaga/shared/utils"
)

// ConsumerRuntime es el worker genérico por binding: recibe de uno en uno,
// decodifica al evento tipado, suprime duplicados por event_id e invoca el
// handler. Éxito => ack; error del handler => descarte sin requeue (sin
// retry ni dead-letter: el hueco de diseño está asumido y documentado).
type ConsumerRuntime struct {
	transport sharedBus.Transport
	dedup     sharedDedup.Store
	grace     time.Duration
	log       *zap.Logger
}

func NewConsumerRuntime(transport sharedBus.Transport, dedup sharedDedup.Store, grace time.Duration, log *zap.Logger) *ConsumerRuntime {
	return &ConsumerRuntime{
		transport: transport,
		dedup:     dedup,
		grace:     grace,
		log:       log,
	}
}

// Start lanza la goroutine de consumo del binding y retorna inmediatamente.
func (r *ConsumerRuntime) Start(ctx context.Context, b sharedBus.Binding) {
	go r.consume(ctx, b)
}

func (r *ConsumerRuntime) consume(ctx context.Context, b sharedBus.Binding) {
	// Margen inicial acotado: el broker puede tardar en estar disponible.
	if r.grace > 0 {
		select {
		case <-time.After(r.grace):
		case <-ctx.Done():
			return
		}
	}

	var reader sharedBus.TransportReader
	err := utils.Retry(ctx, 5, 2*time.Second, func() error {
		var openErr error
		reader, openErr = r.transport.Open(ctx, b)
		return openErr
	})
	if err != nil {
		r.log.Error("No se pudo abrir la cola, consumidor abortado",
			zap.String("queue", b.QueueName),
			zap.Error(err),
		)
		return
	}
	defer reader.Close()

	r.log.Info("🎧 Consumidor iniciado",
		zap.String("queue", b.QueueName),
		zap.Strings("routing_keys", b.RoutingKeys),
	)

	for {
		d, err := reader.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("🛑 Consumidor detenido", zap.String("queue", b.QueueName))
				return
			}
			r.log.Error("Error al recibir mensaje", zap.String("queue", b.QueueName), zap.Error(err))
			continue
		}

		r.handleDelivery(ctx, b, reader, d)
	}
}

// handleDelivery procesa una entrega y SIEMPRE confirma el mensaje:
// el rechazo sin requeue equivale aquí a ack + descarte.
func (r *ConsumerRuntime) handleDelivery(ctx context.Context, b sharedBus.Binding, reader sharedBus.TransportReader, d sharedBus.Delivery) {
	defer func() {
		if err := reader.Commit(ctx); err != nil {
			r.log.Warn("No se pudo confirmar el mensaje",
				zap.String("queue", b.QueueName),
				zap.String("message_id", d.MessageID),
				zap.Error(err),
			)
		}
	}()

	// Las colas de Kafka reciben el stream entero del topic: los patrones
	// del binding hacen aquí el papel de los bindings del exchange.
	if !b.Matches(d.RoutingKey) {
		return
	}

	evt, err := decodeDelivery(d)
	if err != nil {
		if errors.Is(err, sharedEvents.ErrUnknownEventType) {
			r.log.Warn("Evento de tipo desconocido descartado",
				zap.String("queue", b.QueueName),
				zap.String("type", d.Type),
			)
			return
		}
		r.log.Error("Mensaje indeserializable descartado",
			zap.String("queue", b.QueueName),
			zap.String("message_id", d.MessageID),
			zap.Error(err),
		)
		return
	}

	if r.dedup != nil {
		seen, err := r.dedup.MarkSeen(ctx, b.QueueName, evt.ID())
		if err != nil {
			// fail-open: mejor arriesgar un duplicado que parar el saga
			r.log.Warn("Dedup store no disponible", zap.Error(err))
		} else if seen {
			r.log.Info("Evento duplicado suprimido",
				zap.String("queue", b.QueueName),
				zap.String("event_type", evt.Type()),
				zap.String("event_id", evt.ID().String()),
			)
			return
		}
	}

	if err := b.Handler(ctx, evt); err != nil {
		r.log.Error("Handler falló, evento descartado sin requeue",
			zap.String("queue", b.QueueName),
			zap.String("event_type", evt.Type()),
			zap.String("event_id", evt.ID().String()),
			zap.Error(err),
		)
		return
	}

	r.log.Debug("Evento procesado",
		zap.String("queue", b.QueueName),
		zap.String("event_type", evt.Type()),
		zap.String("event_id", evt.ID().String()),
	)
}

// decodeDelivery resuelve el tipo por la cabecera "type" y, si falta,
// por el tag event_type del propio envelope.
func decodeDelivery(d sharedBus.Delivery) (sharedEvents.Event, error) {
	eventType := d.Type
	if eventType == "" {
		var meta sharedEvents.Meta
		if err := json.Unmarshal(d.Body, &meta); err != nil {
			return nil, err
		}
		eventType = meta.EventType
	}
	return sharedEvents.Decode(eventType, d.Body)
}
