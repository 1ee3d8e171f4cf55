package sender

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/notification/domain"
)

// MockSender "envía" el aviso escribiéndolo en el log. Sustituible por un
// SMTP o proveedor de SMS real sin tocar el servicio.
type MockSender struct {
	log *zap.Logger
}

func NewMockSender(log *zap.Logger) *MockSender {
	return &MockSender{log: log}
}

func (s *MockSender) Send(ctx context.Context, n *domain.Notification) error {
	s.log.Info("📧 Notificación enviada",
		zap.String("order_id", n.OrderID.String()),
		zap.String("customer_id", n.CustomerID.String()),
		zap.String("type", string(n.Type)),
		zap.String("channel", string(n.Channel)),
		zap.String("subject", n.Subject),
	)
	return nil
}

// Verificación estática
var _ domain.NotificationSender = (*MockSender)(nil)
