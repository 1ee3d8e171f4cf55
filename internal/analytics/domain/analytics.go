package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventRecord es la fila del log analítico: una por evento del saga, con
// el importe ya extraído para no re-parsear payloads al agregar.
type EventRecord struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	OrderID    uuid.UUID `json:"order_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OrderMetrics agrega los desenlaces del saga en una fecha.
type OrderMetrics struct {
	Day             string  `json:"day"`
	TotalOrders     int     `json:"total_orders"`
	ConfirmedOrders int     `json:"confirmed_orders"`
	CancelledOrders int     `json:"cancelled_orders"`
	FailedPayments  int     `json:"failed_payments"`
	TotalRevenue    float64 `json:"total_revenue"`
}
