package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrUnknownOrder    = errors.New("order amount not known")
)

// ---------- Interfaces (Ports) ----------

// PaymentRepository persiste los intentos de cobro y la proyección local
// de importes de pedido. Cada servicio mantiene su propia vista: el
// importe llega por OrderPlaced, nunca consultando al servicio de pedidos.
type PaymentRepository interface {
	Save(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	UpdateResult(ctx context.Context, p *Payment) error

	// Proyección order_id -> importe alimentada por OrderPlaced.
	RecordOrderAmount(ctx context.Context, orderID uuid.UUID, amount float64) error
	// Debe devolver ErrUnknownOrder si el importe no se ha proyectado aún.
	GetOrderAmount(ctx context.Context, orderID uuid.UUID) (float64, error)
}

// PaymentGateway abstrae la pasarela de cobro externa.
type PaymentGateway interface {
	Charge(ctx context.Context, orderID uuid.UUID, amount float64, method string) (*GatewayResult, error)
}
