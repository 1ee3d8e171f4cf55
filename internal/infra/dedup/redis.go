package dedup

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	sharedDedup "github.com/davicafu/ordersaga/internal/shared/infra/platform/dedup"
)

// RedisStore registra event_ids procesados con SETNX + TTL.
// Compartido entre réplicas de un mismo servicio.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func dedupKey(queue string, eventID uuid.UUID) string {
	return "saga:processed:" + queue + ":" + eventID.String()
}

// MarkSeen devuelve true si esa cola ya había registrado el evento.
func (s *RedisStore) MarkSeen(ctx context.Context, queue string, eventID uuid.UUID) (bool, error) {
	ok, err := s.client.SetNX(ctx, dedupKey(queue, eventID), 1, s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Verificación estática
var _ sharedDedup.Store = (*RedisStore)(nil)
