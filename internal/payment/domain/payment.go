package domain

import (
	"time"

	"github.com/google/uuid"
)

// ---------------- Estados ----------------

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment es el apunte de un intento de cobro contra la pasarela.
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	OrderID       uuid.UUID     `json:"order_id"`
	Amount        float64       `json:"amount"`
	PaymentMethod string        `json:"payment_method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ProcessedAt   *time.Time    `json:"processed_at,omitempty"`
}

// GatewayResult es la respuesta de la pasarela a un intento de cobro.
// Un rechazo viene como Approved=false, no como error: los errores se
// reservan para fallos de transporte con la pasarela.
type GatewayResult struct {
	Approved      bool
	TransactionID string
	Reason        string
	ErrorCode     string
}
