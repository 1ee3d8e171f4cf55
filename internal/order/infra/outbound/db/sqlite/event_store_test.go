package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSQLite(db))
	return db
}

func TestEventStore_AppendAssignsGaplessVersions(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := newTestDB(t)
	store := NewEventStoreSQLite(db, zap.NewNop())
	aggregateID := uuid.New()

	// Act
	for i := 0; i < 3; i++ {
		evt := sharedEvents.OrderCancelled{
			Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderCancelled),
			OrderID:     aggregateID,
			Reason:      "test",
			CancelledAt: time.Now().UTC(),
		}
		require.NoError(t, store.Append(ctx, aggregateID, evt))
	}

	// Assert: versiones 1..3 sin huecos.
	rows, err := db.Query(
		`SELECT version FROM event_store WHERE aggregate_id = ? ORDER BY version`,
		aggregateID.String())
	require.NoError(t, err)
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	assert.Equal(t, []int{1, 2, 3}, versions)
}

func TestEventStore_VersionsAreIndependentPerAggregate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewEventStoreSQLite(db, zap.NewNop())

	a, b := uuid.New(), uuid.New()
	evt := func(orderID uuid.UUID) sharedEvents.Event {
		return sharedEvents.OrderConfirmed{
			Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderConfirmed),
			OrderID:     orderID,
			ConfirmedAt: time.Now().UTC(),
		}
	}

	require.NoError(t, store.Append(ctx, a, evt(a)))
	require.NoError(t, store.Append(ctx, a, evt(a)))
	require.NoError(t, store.Append(ctx, b, evt(b)))

	var maxA, maxB int
	require.NoError(t, db.QueryRow(
		`SELECT MAX(version) FROM event_store WHERE aggregate_id = ?`, a.String()).Scan(&maxA))
	require.NoError(t, db.QueryRow(
		`SELECT MAX(version) FROM event_store WHERE aggregate_id = ?`, b.String()).Scan(&maxB))
	assert.Equal(t, 2, maxA)
	assert.Equal(t, 1, maxB)
}

func TestEventStore_LoadReturnsTypedEventsInOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewEventStoreSQLite(db, zap.NewNop())
	aggregateID := uuid.New()

	placed := sharedEvents.OrderPlaced{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderPlaced),
		OrderID:     aggregateID,
		CustomerID:  uuid.New(),
		TotalAmount: 55.5,
		PlacedAt:    time.Now().UTC(),
	}
	confirmed := sharedEvents.OrderConfirmed{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderConfirmed),
		OrderID:     aggregateID,
		ConfirmedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, aggregateID, placed))
	require.NoError(t, store.Append(ctx, aggregateID, confirmed))

	history, err := store.Load(ctx, aggregateID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	first, ok := history[0].(sharedEvents.OrderPlaced)
	require.True(t, ok)
	assert.InDelta(t, 55.5, first.TotalAmount, 0.001)
	assert.Equal(t, sharedEvents.TypeOrderConfirmed, history[1].Type())
}

func TestEventStore_DuplicateVersionRejectedByStorage(t *testing.T) {
	// El UNIQUE(aggregate_id, version) protege contra el read-then-write
	// concurrente: la segunda inserción de la misma versión falla y el
	// store la traduce a ErrVersionConflict.
	db := newTestDB(t)
	aggregateID := uuid.New()

	insert := func() error {
		_, err := db.Exec(
			`INSERT INTO event_store (aggregate_id, event_type, payload, version, occurred_at)
			 VALUES (?,?,?,?,?)`,
			aggregateID.String(), sharedEvents.TypeOrderConfirmed, `{}`, 1, time.Now().UTC())
		return err
	}

	require.NoError(t, insert())
	err := insert()
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestEventStore_LoadSkipsUnknownTypes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewEventStoreSQLite(db, zap.NewNop())
	aggregateID := uuid.New()

	confirmed := sharedEvents.OrderConfirmed{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderConfirmed),
		OrderID:     aggregateID,
		ConfirmedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Append(ctx, aggregateID, confirmed))

	// Un binario más nuevo guardó un tipo que este no conoce.
	_, err := db.Exec(
		`INSERT INTO event_store (aggregate_id, event_type, payload, version, occurred_at)
		 VALUES (?,?,?,?,?)`,
		aggregateID.String(), "OrderArchived", `{}`, 2, time.Now().UTC())
	require.NoError(t, err)

	history, err := store.Load(ctx, aggregateID)
	require.NoError(t, err)
	require.Len(t, history, 1, "el tag desconocido se omite sin romper el historial")
	assert.Equal(t, sharedEvents.TypeOrderConfirmed, history[0].Type())
}
