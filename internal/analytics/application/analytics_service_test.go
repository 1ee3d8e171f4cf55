package application

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

	analyticsSqlite "github.com/davicafu/ordersaga/internal/analytics/infra/outbound/db/sqlite"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

func newTestService(t *testing.T) *AnalyticsService {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, analyticsSqlite.InitSQLite(db))
	return NewAnalyticsService(analyticsSqlite.NewAnalyticsRepoSQLite(db), zap.NewNop())
}

func TestDailyMetrics_AggregatesSagaOutcomes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestService(t)
	now := time.Now().UTC()

	events := []sharedEvents.Event{
		sharedEvents.OrderPlaced{Meta: sharedEvents.NewMeta(sharedEvents.TypeOrderPlaced), OrderID: uuid.New(), TotalAmount: 100},
		sharedEvents.OrderPlaced{Meta: sharedEvents.NewMeta(sharedEvents.TypeOrderPlaced), OrderID: uuid.New(), TotalAmount: 250},
		sharedEvents.PaymentProcessed{Meta: sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed), OrderID: uuid.New(), Amount: 100},
		sharedEvents.PaymentProcessed{Meta: sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed), OrderID: uuid.New(), Amount: 250},
		sharedEvents.OrderConfirmed{Meta: sharedEvents.NewMeta(sharedEvents.TypeOrderConfirmed), OrderID: uuid.New()},
		sharedEvents.PaymentFailed{Meta: sharedEvents.NewMeta(sharedEvents.TypePaymentFailed), OrderID: uuid.New(), Amount: 99},
		sharedEvents.OrderCancelled{Meta: sharedEvents.NewMeta(sharedEvents.TypeOrderCancelled), OrderID: uuid.New()},
		sharedEvents.InventoryReserved{Meta: sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved), OrderID: uuid.New()},
	}

	// Act
	for _, evt := range events {
		require.NoError(t, svc.HandleEvent(ctx, evt))
	}

	// Assert
	metrics, err := svc.DailyMetrics(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalOrders)
	assert.Equal(t, 1, metrics.ConfirmedOrders)
	assert.Equal(t, 1, metrics.CancelledOrders)
	assert.Equal(t, 1, metrics.FailedPayments)
	assert.InDelta(t, 350, metrics.TotalRevenue, 0.001)
}

func TestDailyMetrics_EmptyDay(t *testing.T) {
	svc := newTestService(t)

	metrics, err := svc.DailyMetrics(context.Background(), time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.TotalOrders)
	assert.InDelta(t, 0, metrics.TotalRevenue, 0.001)
}
