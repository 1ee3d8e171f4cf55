package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/notification/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	"github.com/davicafu/ordersaga/shared/utils"
)

// NotificationService avisa al cliente de la recepción y del desenlace de
// su pedido. Para confirmación/cancelación el customer_id sale de su propia
// proyección alimentada por OrderPlaced, porque esos eventos no lo llevan.
type NotificationService struct {
	repo   domain.NotificationRepository
	sender domain.NotificationSender
	log    *zap.Logger
}

func NewNotificationService(repo domain.NotificationRepository, sender domain.NotificationSender, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, sender: sender, log: log}
}

// ---------------- Queries ----------------

func (s *NotificationService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// ---------------- Reacciones del saga ----------------

// HandleOrderPlaced proyecta el cliente del pedido y le confirma la
// recepción. Aquí no hay espera de proyección: el propio evento lleva
// customer_id y total.
func (s *NotificationService) HandleOrderPlaced(ctx context.Context, evt sharedEvents.OrderPlaced) error {
	if err := s.repo.RecordOrderCustomer(ctx, evt.OrderID, evt.CustomerID); err != nil {
		return err
	}
	return s.send(ctx, evt.OrderID, evt.CustomerID, domain.NotificationOrderPlaced,
		"Order Placed Successfully",
		fmt.Sprintf("Order %s was placed successfully. Total amount: %.2f",
			evt.OrderID, evt.TotalAmount),
	)
}

func (s *NotificationService) HandleOrderConfirmed(ctx context.Context, evt sharedEvents.OrderConfirmed) error {
	return s.notify(ctx, evt.OrderID, domain.NotificationOrderConfirmed,
		"Your order has been confirmed",
		fmt.Sprintf("Order %s was confirmed at %s. Thank you for your purchase!",
			evt.OrderID, evt.ConfirmedAt.Format(time.RFC3339)),
	)
}

func (s *NotificationService) HandleOrderCancelled(ctx context.Context, evt sharedEvents.OrderCancelled) error {
	return s.notify(ctx, evt.OrderID, domain.NotificationOrderCancelled,
		"Your order has been cancelled",
		fmt.Sprintf("Order %s was cancelled. Reason: %s", evt.OrderID, evt.Reason),
	)
}

// ---------------- Helpers ----------------

func (s *NotificationService) notify(ctx context.Context, orderID uuid.UUID, typ domain.NotificationType, subject, body string) error {
	// El desenlace puede adelantar al OrderPlaced de su pedido (colas
	// independientes): se espera la proyección un margen acotado.
	var customerID uuid.UUID
	err := utils.RetryIf(ctx, 10, 50*time.Millisecond, domain.ErrUnknownCustomer, func() error {
		var lookupErr error
		customerID, lookupErr = s.repo.GetOrderCustomer(ctx, orderID)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCustomer) {
			// Sin proyección no hay destinatario; se descarta con aviso.
			s.log.Warn("Notificación sin cliente proyectado, descartada",
				zap.String("order_id", orderID.String()),
				zap.String("type", string(typ)),
			)
			return nil
		}
		return err
	}

	return s.send(ctx, orderID, customerID, typ, subject, body)
}

// send crea el apunte en pending, intenta el envío y persiste el desenlace.
func (s *NotificationService) send(ctx context.Context, orderID, customerID uuid.UUID, typ domain.NotificationType, subject, body string) error {
	notification := &domain.Notification{
		ID:         uuid.New(),
		OrderID:    orderID,
		CustomerID: customerID,
		Type:       typ,
		Channel:    domain.ChannelEmail,
		Subject:    subject,
		Body:       body,
		Status:     domain.NotificationPending,
	}

	if err := s.sender.Send(ctx, notification); err != nil {
		notification.Status = domain.NotificationFailed
		notification.SentAt = time.Now().UTC()
		if saveErr := s.repo.Save(ctx, notification); saveErr != nil {
			return saveErr
		}
		return err
	}

	notification.Status = domain.NotificationSent
	notification.SentAt = time.Now().UTC()
	return s.repo.Save(ctx, notification)
}
