package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// Cabeceras out-of-band del envelope (§ contrato del broker).
const (
	HeaderContentType = "content_type"
	HeaderType        = "type"
	HeaderMessageID   = "message_id"
	HeaderTimestamp   = "timestamp"
	HeaderRoutingKey  = "x-routing-key"
)

// KafkaEventBus publica eventos en el topic-exchange del saga.
// La routing key event.<tipo> viaja como clave del mensaje y como cabecera,
// y cada cola decide en consumo qué patrones le interesan.
type KafkaEventBus struct {
	brokers []string
	topic   string
	log     *zap.Logger

	mu     sync.Mutex
	writer *kafka.Writer
}

func NewKafkaEventBus(brokers []string, topic string, log *zap.Logger) *KafkaEventBus {
	return &KafkaEventBus{brokers: brokers, topic: topic, log: log}
}

// ensureInitialized crea el writer de forma perezosa y exactamente una vez
// por proceso, bajo exclusión mutua.
func (b *KafkaEventBus) ensureInitialized() *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer == nil {
		b.writer = &kafka.Writer{
			Addr:         kafka.TCP(b.brokers...),
			Topic:        b.topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		}
		b.log.Info("🚀 Kafka event bus inicializado",
			zap.Strings("brokers", b.brokers),
			zap.String("topic", b.topic),
		)
	}
	return b.writer
}

// Publish serializa el evento como envelope JSON plano y lo enruta.
// Entrega at-least-once: el publish no está atado transaccionalmente a la
// mutación local previa del llamante.
func (b *KafkaEventBus) Publish(ctx context.Context, event sharedEvents.Event) error {
	writer := b.ensureInitialized()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	routingKey := sharedEvents.RoutingKey(event.Type())
	msg := kafka.Message{
		Key:   []byte(routingKey),
		Value: data,
		Headers: []kafka.Header{
			{Key: HeaderContentType, Value: []byte("application/json")},
			{Key: HeaderType, Value: []byte(event.Type())},
			{Key: HeaderMessageID, Value: []byte(event.ID().String())},
			{Key: HeaderTimestamp, Value: []byte(time.Now().UTC().Format(time.RFC3339))},
			{Key: HeaderRoutingKey, Value: []byte(routingKey)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		b.log.Error("Error publishing event",
			zap.String("event_type", event.Type()),
			zap.String("event_id", event.ID().String()),
			zap.Error(err),
		)
		return err
	}

	b.log.Debug("Event published",
		zap.String("event_type", event.Type()),
		zap.String("routing_key", routingKey),
		zap.String("event_id", event.ID().String()),
	)
	return nil
}

func (b *KafkaEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer == nil {
		return nil
	}
	err := b.writer.Close()
	b.writer = nil
	return err
}

// Verificación estática
var _ sharedBus.EventBus = (*KafkaEventBus)(nil)
