package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/payment/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
	"github.com/davicafu/ordersaga/shared/utils"
)

// PaymentService cobra cuando el inventario ya está reservado. Mantiene su
// propia proyección de importes alimentada por OrderPlaced: nada de
// consultar al servicio de pedidos por HTTP.
type PaymentService struct {
	repo    domain.PaymentRepository
	gateway domain.PaymentGateway
	bus     sharedBus.EventBus
	log     *zap.Logger
}

func NewPaymentService(repo domain.PaymentRepository, gateway domain.PaymentGateway, bus sharedBus.EventBus, log *zap.Logger) *PaymentService {
	return &PaymentService{repo: repo, gateway: gateway, bus: bus, log: log}
}

// ---------------- Queries ----------------

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

// ---------------- Reacciones del saga ----------------

// HandleOrderPlaced solo proyecta el importe del pedido; el cobro espera a
// que inventario confirme la reserva.
func (s *PaymentService) HandleOrderPlaced(ctx context.Context, evt sharedEvents.OrderPlaced) error {
	if err := s.repo.RecordOrderAmount(ctx, evt.OrderID, evt.TotalAmount); err != nil {
		return err
	}
	s.log.Debug("Importe de pedido proyectado",
		zap.String("order_id", evt.OrderID.String()),
		zap.Float64("amount", evt.TotalAmount),
	)
	return nil
}

// HandleInventoryReserved ejecuta el cobro y publica el resultado como
// PaymentProcessed o PaymentFailed. El rechazo de la pasarela es un
// resultado de negocio, no un error del handler.
func (s *PaymentService) HandleInventoryReserved(ctx context.Context, evt sharedEvents.InventoryReserved) error {
	// Entre colas no hay orden garantizado: la reserva puede adelantar al
	// OrderPlaced de su propio pedido. Se espera la proyección un margen
	// acotado antes de rendirse.
	var amount float64
	err := utils.RetryIf(ctx, 10, 50*time.Millisecond, domain.ErrUnknownOrder, func() error {
		var lookupErr error
		amount, lookupErr = s.repo.GetOrderAmount(ctx, evt.OrderID)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownOrder) {
			// Sin importe no hay cobro; el evento se descarta con rastro y
			// el pedido queda pendiente hasta una re-emisión.
			s.log.Warn("Reserva sin importe proyectado",
				zap.String("order_id", evt.OrderID.String()),
			)
		}
		return err
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		OrderID:       evt.OrderID,
		Amount:        amount,
		PaymentMethod: "credit_card",
		Status:        domain.PaymentProcessing,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, payment); err != nil {
		return err
	}

	result, err := s.gateway.Charge(ctx, evt.OrderID, amount, payment.PaymentMethod)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	payment.ProcessedAt = &now

	if result.Approved {
		payment.Status = domain.PaymentCompleted
		payment.TransactionID = result.TransactionID
		if err := s.repo.UpdateResult(ctx, payment); err != nil {
			return err
		}

		processed := sharedEvents.PaymentProcessed{
			Meta:          sharedEvents.NewMeta(sharedEvents.TypePaymentProcessed),
			OrderID:       evt.OrderID,
			PaymentID:     payment.ID,
			Amount:        amount,
			PaymentMethod: payment.PaymentMethod,
			TransactionID: result.TransactionID,
			ProcessedAt:   now,
		}
		if err := s.bus.Publish(ctx, processed); err != nil {
			return err
		}

		s.log.Info("✅ Pago aceptado",
			zap.String("order_id", evt.OrderID.String()),
			zap.String("transaction_id", result.TransactionID),
			zap.Float64("amount", amount),
		)
		return nil
	}

	payment.Status = domain.PaymentFailed
	payment.FailureReason = result.Reason
	if err := s.repo.UpdateResult(ctx, payment); err != nil {
		return err
	}

	failed := sharedEvents.PaymentFailed{
		Meta:      sharedEvents.NewMeta(sharedEvents.TypePaymentFailed),
		OrderID:   evt.OrderID,
		Amount:    amount,
		Reason:    result.Reason,
		ErrorCode: result.ErrorCode,
		FailedAt:  now,
	}
	if err := s.bus.Publish(ctx, failed); err != nil {
		return err
	}

	s.log.Warn("⚠️ Pago rechazado",
		zap.String("order_id", evt.OrderID.String()),
		zap.String("reason", result.Reason),
		zap.String("error_code", result.ErrorCode),
	)
	return nil
}

// Refund marca el pago como devuelto y publica PaymentRefunded. Pensado
// para operaciones manuales sobre pedidos ya confirmados.
func (s *PaymentService) Refund(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Payment, error) {
	payment, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment.Status = domain.PaymentRefunded
	payment.FailureReason = reason
	payment.ProcessedAt = &now
	if err := s.repo.UpdateResult(ctx, payment); err != nil {
		return nil, err
	}

	refunded := sharedEvents.PaymentRefunded{
		Meta:       sharedEvents.NewMeta(sharedEvents.TypePaymentRefunded),
		OrderID:    orderID,
		PaymentID:  payment.ID,
		Amount:     payment.Amount,
		Reason:     reason,
		RefundedAt: now,
	}
	if err := s.bus.Publish(ctx, refunded); err != nil {
		return nil, err
	}

	s.log.Info("Pago devuelto",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", payment.ID.String()),
	)
	return payment, nil
}
