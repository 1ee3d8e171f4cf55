package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
)

// ---------- Interfaces (Ports) ----------

// InventoryRepository define el motor de reservas. Reserve y Release son
// atómicos: o mutan todos los contadores implicados o ninguno.
type InventoryRepository interface {
	CreateProduct(ctx context.Context, p *Product) error

	// Debe devolver ErrProductNotFound si no existe.
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)

	ListProducts(ctx context.Context) ([]*Product, error)

	// Reserve intenta la reserva completa del pedido. Sin stock suficiente
	// o con productos inexistentes devuelve (nil, ids_no_disponibles, nil):
	// el fallo de negocio NO es un error, se convierte en evento aguas
	// arriba. Un pedido con reserva activa previa devuelve esa misma
	// reserva sin tocar contadores (entrega duplicada).
	Reserve(ctx context.Context, orderID uuid.UUID, items []ReservationItem) (*Reservation, []uuid.UUID, error)

	// Release revierte la reserva activa del pedido. Si no existe es un
	// no-op idempotente y devuelve (nil, nil).
	Release(ctx context.Context, orderID uuid.UUID) (*Reservation, error)
}
