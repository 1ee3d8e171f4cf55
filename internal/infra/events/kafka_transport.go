package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// KafkaTransport abre un lector por cola: la cola durable del exchange se
// traduce en un consumer group, así cada binding recibe su propia copia
// del stream y el offset commit hace de ack.
type KafkaTransport struct {
	brokers []string
	topic   string
	log     *zap.Logger
}

func NewKafkaTransport(brokers []string, topic string, log *zap.Logger) *KafkaTransport {
	return &KafkaTransport{brokers: brokers, topic: topic, log: log}
}

func (t *KafkaTransport) Open(ctx context.Context, b sharedBus.Binding) (sharedBus.TransportReader, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     t.brokers,
		Topic:       t.topic,
		GroupID:     b.QueueName,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
	})

	t.log.Info("🎧 Cola ligada al exchange",
		zap.String("queue", b.QueueName),
		zap.Strings("routing_keys", b.RoutingKeys),
	)

	return &kafkaQueueReader{reader: reader}, nil
}

// kafkaQueueReader mantiene exactamente un mensaje en vuelo: Fetch no se
// vuelve a llamar hasta que el runtime resuelve Commit del anterior.
type kafkaQueueReader struct {
	reader *kafka.Reader
	last   kafka.Message
}

func (r *kafkaQueueReader) Fetch(ctx context.Context) (sharedBus.Delivery, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return sharedBus.Delivery{}, err
	}
	r.last = msg

	d := sharedBus.Delivery{
		RoutingKey: string(msg.Key),
		Timestamp:  msg.Time,
		Body:       msg.Value,
	}
	for _, h := range msg.Headers {
		switch h.Key {
		case HeaderContentType:
			d.ContentType = string(h.Value)
		case HeaderType:
			d.Type = string(h.Value)
		case HeaderMessageID:
			d.MessageID = string(h.Value)
		case HeaderRoutingKey:
			d.RoutingKey = string(h.Value)
		case HeaderTimestamp:
			if ts, err := time.Parse(time.RFC3339, string(h.Value)); err == nil {
				d.Timestamp = ts
			}
		}
	}
	return d, nil
}

func (r *kafkaQueueReader) Commit(ctx context.Context) error {
	return r.reader.CommitMessages(ctx, r.last)
}

func (r *kafkaQueueReader) Close() error {
	return r.reader.Close()
}

// Verificación estática
var _ sharedBus.Transport = (*KafkaTransport)(nil)
