package application

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/order/domain"
	orderSqlite "github.com/davicafu/ordersaga/internal/order/infra/outbound/db/sqlite"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
)

// captureBus guarda lo publicado para poder afirmarlo después.
type captureBus struct {
	mu        sync.Mutex
	published []sharedEvents.Event
}

func (b *captureBus) Publish(ctx context.Context, event sharedEvents.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) byType(eventType string) []sharedEvents.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []sharedEvents.Event
	for _, e := range b.published {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*OrderService, *captureBus, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, orderSqlite.InitSQLite(db))

	bus := &captureBus{}
	svc := NewOrderService(
		orderSqlite.NewOrderRepoSQLite(db),
		orderSqlite.NewEventStoreSQLite(db, zap.NewNop()),
		bus,
		zap.NewNop(),
	)
	return svc, bus, db
}

func placeTestOrder(t *testing.T, svc *OrderService) *domain.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), uuid.New(), []PlaceOrderItem{
		{ProductID: uuid.New(), ProductName: "Laptop", Quantity: 1, UnitPrice: 999.99},
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrder_PersistsAndPublishes(t *testing.T) {
	// Arrange
	svc, bus, _ := newTestService(t)
	customerID := uuid.New()

	// Act
	order, err := svc.PlaceOrder(context.Background(), customerID, []PlaceOrderItem{
		{ProductID: uuid.New(), ProductName: "Laptop", Quantity: 2, UnitPrice: 999.99},
		{ProductID: uuid.New(), ProductName: "Mouse", Quantity: 4, UnitPrice: 42.49},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.InDelta(t, 2169.94, order.TotalAmount, 0.001)

	placed := bus.byType(sharedEvents.TypeOrderPlaced)
	require.Len(t, placed, 1)
	evt := placed[0].(sharedEvents.OrderPlaced)
	assert.Equal(t, order.ID, evt.OrderID)
	assert.Equal(t, customerID, evt.CustomerID)
	require.Len(t, evt.Items, 2)

	// El event store arranca con OrderPlaced como versión 1.
	history, err := svc.GetOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sharedEvents.TypeOrderPlaced, history[0].Type())
}

func TestPlaceOrder_Validation(t *testing.T) {
	svc, bus, _ := newTestService(t)

	cases := []struct {
		name  string
		items []PlaceOrderItem
	}{
		{"sin items", nil},
		{"cantidad cero", []PlaceOrderItem{{ProductID: uuid.New(), Quantity: 0, UnitPrice: 10}}},
		{"cantidad negativa", []PlaceOrderItem{{ProductID: uuid.New(), Quantity: -2, UnitPrice: 10}}},
		{"precio negativo", []PlaceOrderItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: -0.01}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), uuid.New(), tc.items)
			assert.ErrorIs(t, err, domain.ErrInvalidOrder)
		})
	}

	assert.Empty(t, bus.byType(sharedEvents.TypeOrderPlaced),
		"un pedido inválido nunca entra en la cadena de eventos")
}

func TestHandleInventoryReserved_AdvancesStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := placeTestOrder(t, svc)

	err := svc.HandleInventoryReserved(context.Background(), sharedEvents.InventoryReserved{
		Meta:          sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved),
		OrderID:       order.ID,
		ReservationID: uuid.New(),
		ReservedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInventoryReserved, got.Status)
}

func TestHandleInventoryReservationFailed_CancelsWithoutCompensation(t *testing.T) {
	svc, bus, _ := newTestService(t)
	order := placeTestOrder(t, svc)

	err := svc.HandleInventoryReservationFailed(context.Background(), sharedEvents.InventoryReservationFailed{
		Meta:     sharedEvents.NewMeta(sharedEvents.TypeInventoryReservationFailed),
		OrderID:  order.ID,
		Reason:   "Insufficient inventory",
		FailedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)

	cancelled := bus.byType(sharedEvents.TypeOrderCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "Insufficient inventory", cancelled[0].(sharedEvents.OrderCancelled).Reason)
	// Nunca se reservó nada: no debe salir InventoryReleased.
	assert.Empty(t, bus.byType(sharedEvents.TypeInventoryReleased))
}

func TestHandlePaymentProcessed_ConfirmsOrder(t *testing.T) {
	svc, bus, _ := newTestService(t)
	order := placeTestOrder(t, svc)

	require.NoError(t, svc.HandleInventoryReserved(context.Background(), sharedEvents.InventoryReserved{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved),
		OrderID: order.ID,
	}))

	err := svc.HandlePaymentProcessed(context.Background(), sharedEvents.PaymentProcessed{
		Meta:          sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed),
		OrderID:       order.ID,
		PaymentID:     uuid.New(),
		Amount:        order.TotalAmount,
		TransactionID: "TXN-test",
		ProcessedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)

	confirmed := bus.byType(sharedEvents.TypeOrderConfirmed)
	require.Len(t, confirmed, 1)
}

func TestHandlePaymentFailed_CompensatesAndCancels(t *testing.T) {
	svc, bus, _ := newTestService(t)
	order := placeTestOrder(t, svc)

	require.NoError(t, svc.HandleInventoryReserved(context.Background(), sharedEvents.InventoryReserved{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved),
		OrderID: order.ID,
	}))

	err := svc.HandlePaymentFailed(context.Background(), sharedEvents.PaymentFailed{
		Meta:      sharedEvents.NewMeta(sharedEvents.TypePaymentFailed),
		OrderID:   order.ID,
		Amount:    order.TotalAmount,
		Reason:    "Payment declined by gateway",
		ErrorCode: "INSUFFICIENT_FUNDS",
		FailedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFailed, got.Status)

	// Compensación: exactamente un InventoryReleased y un OrderCancelled.
	require.Len(t, bus.byType(sharedEvents.TypeInventoryReleased), 1)
	cancelled := bus.byType(sharedEvents.TypeOrderCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "Payment failed: Payment declined by gateway",
		cancelled[0].(sharedEvents.OrderCancelled).Reason)

	released := bus.byType(sharedEvents.TypeInventoryReleased)[0].(sharedEvents.InventoryReleased)
	assert.Equal(t, order.ID, released.OrderID)
}

func TestSagaHandlers_UnknownOrderIsDroppedSilently(t *testing.T) {
	// Un evento de un pedido que este servicio no conoce se descarta con
	// aviso: devolver error solo provocaría otro descarte aguas arriba.
	svc, bus, _ := newTestService(t)

	err := svc.HandlePaymentProcessed(context.Background(), sharedEvents.PaymentProcessed{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed),
		OrderID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Empty(t, bus.byType(sharedEvents.TypeOrderConfirmed))
}

func TestGetOrderHistory_TracksSagaProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := placeTestOrder(t, svc)

	require.NoError(t, svc.HandleInventoryReserved(context.Background(), sharedEvents.InventoryReserved{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved),
		OrderID: order.ID,
	}))
	require.NoError(t, svc.HandlePaymentProcessed(context.Background(), sharedEvents.PaymentProcessed{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed),
		OrderID: order.ID,
	}))

	history, err := svc.GetOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)

	var types []string
	for _, evt := range history {
		types = append(types, evt.Type())
	}
	assert.Equal(t, []string{
		sharedEvents.TypeOrderPlaced,
		sharedEvents.TypeInventoryReserved,
		sharedEvents.TypePaymentProcessed,
		sharedEvents.TypeOrderConfirmed,
	}, types)
}
