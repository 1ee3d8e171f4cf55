package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var ErrUnknownCustomer = errors.New("customer for order not known")

// ---------- Interfaces (Ports) ----------

// NotificationRepository persiste los avisos enviados y la proyección
// local order_id -> customer_id alimentada por OrderPlaced.
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Notification, error)

	RecordOrderCustomer(ctx context.Context, orderID, customerID uuid.UUID) error
	// Debe devolver ErrUnknownCustomer si OrderPlaced no llegó aún.
	GetOrderCustomer(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
}

// NotificationSender abstrae el canal de salida (email, SMS...).
type NotificationSender interface {
	Send(ctx context.Context, n *Notification) error
}
