package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeInventoryReserved          = "InventoryReserved"
	TypeInventoryReservationFailed = "InventoryReservationFailed"
	TypeInventoryReleased          = "InventoryReleased"
)

// ReservedItem es la pareja producto/cantidad confirmada en una reserva.
type ReservedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type InventoryReserved struct {
	Meta
	OrderID       uuid.UUID      `json:"order_id"`
	ReservationID uuid.UUID      `json:"reservation_id"`
	ReservedItems []ReservedItem `json:"reserved_items"`
	ReservedAt    time.Time      `json:"reserved_at"`
}

type InventoryReservationFailed struct {
	Meta
	OrderID               uuid.UUID   `json:"order_id"`
	Reason                string      `json:"reason"`
	UnavailableProductIDs []uuid.UUID `json:"unavailable_product_ids"`
	FailedAt              time.Time   `json:"failed_at"`
}

type InventoryReleased struct {
	Meta
	OrderID       uuid.UUID `json:"order_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	ReleasedAt    time.Time `json:"released_at"`
}
