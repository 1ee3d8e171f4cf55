package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePaymentProcessed = "PaymentProcessed"
	TypePaymentFailed    = "PaymentFailed"
	TypePaymentRefunded  = "PaymentRefunded"
)

type PaymentProcessed struct {
	Meta
	OrderID       uuid.UUID `json:"order_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	ProcessedAt   time.Time `json:"processed_at"`
}

type PaymentFailed struct {
	Meta
	OrderID   uuid.UUID `json:"order_id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	ErrorCode string    `json:"error_code"`
	FailedAt  time.Time `json:"failed_at"`
}

type PaymentRefunded struct {
	Meta
	OrderID    uuid.UUID `json:"order_id"`
	PaymentID  uuid.UUID `json:"payment_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	RefundedAt time.Time `json:"refunded_at"`
}
