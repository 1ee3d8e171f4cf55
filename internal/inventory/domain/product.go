package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product mantiene los contadores de stock. La ley de conservación es la
// invariante central: available + reserved se mantiene constante a través
// de cada pareja reserve/release.
type Product struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	AvailableQuantity int       `json:"available_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Reservation es el apunte de una reserva multi-ítem. Como mucho una
// reserva ACTIVA por pedido en todo momento.
type Reservation struct {
	ID         uuid.UUID         `json:"id"`
	OrderID    uuid.UUID         `json:"order_id"`
	Items      []ReservationItem `json:"items"`
	IsActive   bool              `json:"is_active"`
	ReservedAt time.Time         `json:"reserved_at"`
	ReleasedAt *time.Time        `json:"released_at,omitempty"`
}

type ReservationItem struct {
	ID            uuid.UUID `json:"id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
}
