package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/order/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
	"github.com/davicafu/ordersaga/shared/utils"
)

// PlaceOrderItem es la línea del comando place-order.
type PlaceOrderItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
}

// OrderService define los casos de uso del servicio de pedidos: el comando
// place-order y las reacciones a los eventos del saga. No hay orquestador:
// cada reacción publica el siguiente eslabón de la cadena.
type OrderService struct {
	repo  domain.OrderRepository
	store domain.EventStore
	bus   sharedBus.EventBus
	log   *zap.Logger
}

func NewOrderService(repo domain.OrderRepository, store domain.EventStore, bus sharedBus.EventBus, log *zap.Logger) *OrderService {
	return &OrderService{repo: repo, store: store, bus: bus, log: log}
}

// ---------------- Comando ----------------

// PlaceOrder valida, persiste el pedido, guarda OrderPlaced en el event
// store y lo publica. Los fallos de validación son síncronos y nunca
// entran en la cadena de eventos.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, items []PlaceOrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domain.ErrInvalidOrder)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: all items must have quantity greater than 0", domain.ErrInvalidOrder)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit price cannot be negative", domain.ErrInvalidOrder)
		}
	}

	orderItems := make([]domain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	order := domain.NewOrder(customerID, orderItems)
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	eventItems := make([]sharedEvents.OrderItem, len(order.Items))
	for i, item := range order.Items {
		eventItems[i] = sharedEvents.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	placed := sharedEvents.OrderPlaced{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderPlaced),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Items:       eventItems,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.CreatedAt,
	}

	if err := s.appendEvent(ctx, order.ID, placed); err != nil {
		return nil, err
	}

	// El publish no va en la misma transacción que el estado local: si el
	// proceso cae entre ambos, el evento se pierde (sin outbox en este diseño).
	if err := s.bus.Publish(ctx, placed); err != nil {
		return nil, err
	}

	s.log.Info("✅ Pedido creado y OrderPlaced publicado",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Float64("total_amount", order.TotalAmount),
	)
	return order, nil
}

// ---------------- Queries ----------------

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrderService) GetCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// GetOrderHistory rehidrata el historial de eventos del agregado.
func (s *OrderService) GetOrderHistory(ctx context.Context, id uuid.UUID) ([]sharedEvents.Event, error) {
	return s.store.Load(ctx, id)
}

// ---------------- Reacciones del saga ----------------

// HandleInventoryReserved: el pedido pasa a InventoryReserved. No emite nada;
// el siguiente eslabón lo dispara el servicio de pagos con su propia cola.
func (s *OrderService) HandleInventoryReserved(ctx context.Context, evt sharedEvents.InventoryReserved) error {
	order, ok, err := s.lookup(ctx, evt.OrderID, evt.Type())
	if err != nil || !ok {
		return err
	}

	s.warnIfIllegal(order, domain.OrderInventoryReserved)
	if err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderInventoryReserved); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, order.ID, evt); err != nil {
		return err
	}

	s.log.Info("Pedido con inventario reservado", zap.String("order_id", order.ID.String()))
	return nil
}

// HandleInventoryReservationFailed: cancelación sin compensación (nunca se
// llegó a reservar nada).
func (s *OrderService) HandleInventoryReservationFailed(ctx context.Context, evt sharedEvents.InventoryReservationFailed) error {
	order, ok, err := s.lookup(ctx, evt.OrderID, evt.Type())
	if err != nil || !ok {
		return err
	}

	s.warnIfIllegal(order, domain.OrderCancelled)
	if err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderCancelled); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, order.ID, evt); err != nil {
		return err
	}

	cancelled := sharedEvents.OrderCancelled{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderCancelled),
		OrderID:     order.ID,
		Reason:      evt.Reason,
		CancelledAt: time.Now().UTC(),
	}
	if err := s.appendEvent(ctx, order.ID, cancelled); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, cancelled); err != nil {
		return err
	}

	s.log.Info("Pedido cancelado por falta de inventario",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", evt.Reason),
	)
	return nil
}

// HandlePaymentProcessed: el pago cerró bien, el pedido queda confirmado.
func (s *OrderService) HandlePaymentProcessed(ctx context.Context, evt sharedEvents.PaymentProcessed) error {
	order, ok, err := s.lookup(ctx, evt.OrderID, evt.Type())
	if err != nil || !ok {
		return err
	}

	s.warnIfIllegal(order, domain.OrderConfirmed)
	if err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderConfirmed); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, order.ID, evt); err != nil {
		return err
	}

	confirmed := sharedEvents.OrderConfirmed{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderConfirmed),
		OrderID:     order.ID,
		ConfirmedAt: time.Now().UTC(),
	}
	if err := s.appendEvent(ctx, order.ID, confirmed); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, confirmed); err != nil {
		return err
	}

	s.log.Info("✅ Pedido confirmado tras el pago", zap.String("order_id", order.ID.String()))
	return nil
}

// HandlePaymentFailed: compensación. El inventario reservado se libera y el
// pedido queda en Failed; se emiten InventoryReleased y OrderCancelled.
func (s *OrderService) HandlePaymentFailed(ctx context.Context, evt sharedEvents.PaymentFailed) error {
	order, ok, err := s.lookup(ctx, evt.OrderID, evt.Type())
	if err != nil || !ok {
		return err
	}

	s.warnIfIllegal(order, domain.OrderFailed)
	if err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderFailed); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, order.ID, evt); err != nil {
		return err
	}

	released := sharedEvents.InventoryReleased{
		Meta:    sharedEvents.NewMeta(sharedEvents.TypeInventoryReleased),
		OrderID: order.ID,
		// El id real lo resuelve inventario buscando su reserva activa.
		ReservationID: uuid.New(),
		ReleasedAt:    time.Now().UTC(),
	}
	if err := s.appendEvent(ctx, order.ID, released); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, released); err != nil {
		return err
	}

	cancelled := sharedEvents.OrderCancelled{
		Meta:        sharedEvents.NewMeta(sharedEvents.TypeOrderCancelled),
		OrderID:     order.ID,
		Reason:      "Payment failed: " + evt.Reason,
		CancelledAt: time.Now().UTC(),
	}
	if err := s.appendEvent(ctx, order.ID, cancelled); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, cancelled); err != nil {
		return err
	}

	s.log.Info("Pedido fallido por pago rechazado",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", evt.Reason),
	)
	return nil
}

// ---------------- Helpers ----------------

// lookup devuelve (nil, false, nil) si el pedido no existe: el evento se
// registra como aviso y se descarta con ack, no es un error del handler.
func (s *OrderService) lookup(ctx context.Context, orderID uuid.UUID, eventType string) (*domain.Order, bool, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if err == domain.ErrOrderNotFound {
			s.log.Warn("Evento para pedido inexistente descartado",
				zap.String("order_id", orderID.String()),
				zap.String("event_type", eventType),
			)
			return nil, false, nil
		}
		return nil, false, err
	}
	return order, true, nil
}

func (s *OrderService) warnIfIllegal(order *domain.Order, target domain.OrderStatus) {
	if !order.CanTransition(target) {
		// Entre colas no hay orden garantizado; un salto raro suele ser
		// un evento tardío, se aplica igual y se deja rastro.
		s.log.Warn("Transición fuera del flujo esperado",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(order.Status)),
			zap.String("to", string(target)),
		)
	}
}

// appendEvent reintenta solo ante colisiones de versión del event store.
func (s *OrderService) appendEvent(ctx context.Context, aggregateID uuid.UUID, evt sharedEvents.Event) error {
	return utils.RetryIf(ctx, 3, 25*time.Millisecond, domain.ErrVersionConflict, func() error {
		return s.store.Append(ctx, aggregateID, evt)
	})
}
