package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_MarkSeen(t *testing.T) {
	store := NewInMemoryStore(time.Minute, time.Minute)
	defer store.Stop()

	id := uuid.New()

	seen, err := store.MarkSeen(context.Background(), "payment-service-orderplaced", id)
	require.NoError(t, err)
	assert.False(t, seen, "primera vez: no visto")

	seen, err = store.MarkSeen(context.Background(), "payment-service-orderplaced", id)
	require.NoError(t, err)
	assert.True(t, seen, "segunda vez en la misma cola: duplicado")

	seen, err = store.MarkSeen(context.Background(), "payment-service-orderplaced", uuid.New())
	require.NoError(t, err)
	assert.False(t, seen, "otro event_id no se ve afectado")
}

func TestInMemoryStore_ScopeIsPerQueue(t *testing.T) {
	// El mismo evento llega legítimamente a varias colas: cada una lo
	// procesa una vez.
	store := NewInMemoryStore(time.Minute, time.Minute)
	defer store.Stop()

	id := uuid.New()

	seen, err := store.MarkSeen(context.Background(), "inventory-service-orderplaced", id)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.MarkSeen(context.Background(), "payment-service-orderplaced", id)
	require.NoError(t, err)
	assert.False(t, seen, "otra cola ve el evento por primera vez")
}

func TestInMemoryStore_ExpiredEntriesAreForgotten(t *testing.T) {
	store := NewInMemoryStore(20*time.Millisecond, time.Hour)
	defer store.Stop()

	id := uuid.New()
	_, err := store.MarkSeen(context.Background(), "q", id)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	seen, err := store.MarkSeen(context.Background(), "q", id)
	require.NoError(t, err)
	assert.False(t, seen, "pasado el TTL el evento vuelve a aceptarse")
}
