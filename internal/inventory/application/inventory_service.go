package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/inventory/domain"
	sharedEvents "github.com/davicafu/ordersaga/internal/shared/events"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
)

// InventoryService reacciona a los eventos del saga que tocan stock:
// OrderPlaced dispara la reserva y InventoryReleased la compensación.
type InventoryService struct {
	repo domain.InventoryRepository
	bus  sharedBus.EventBus
	log  *zap.Logger
}

func NewInventoryService(repo domain.InventoryRepository, bus sharedBus.EventBus, log *zap.Logger) *InventoryService {
	return &InventoryService{repo: repo, bus: bus, log: log}
}

// ---------------- Catálogo ----------------

func (s *InventoryService) CreateProduct(ctx context.Context, name, sku string, quantity int) (*domain.Product, error) {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:                uuid.New(),
		Name:              name,
		SKU:               sku,
		AvailableQuantity: quantity,
		ReservedQuantity:  0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info("Producto dado de alta",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", sku),
		zap.Int("quantity", quantity),
	)
	return product, nil
}

// SeedDemoCatalog da de alta el catálogo de demo. Reejecutable: los SKUs ya
// existentes se dejan tal cual para no pisar contadores de stock.
func (s *InventoryService) SeedDemoCatalog(ctx context.Context) error {
	demo := []struct {
		name     string
		sku      string
		quantity int
	}{
		{"Laptop Pro 15", "SKU-LAPTOP-15", 50},
		{"Wireless Mouse", "SKU-MOUSE-01", 200},
		{"Mechanical Keyboard", "SKU-KEYB-87", 120},
		{"USB-C Hub", "SKU-HUB-7P", 80},
	}
	for _, p := range demo {
		if _, err := s.CreateProduct(ctx, p.name, p.sku, p.quantity); err != nil {
			if errors.Is(err, domain.ErrProductAlreadyExists) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *InventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ---------------- Reacciones del saga ----------------

// HandleOrderPlaced intenta reservar TODOS los ítems del pedido. El
// resultado, bueno o malo, siempre sale como evento: InventoryReserved o
// InventoryReservationFailed. El fallo de stock no es un error del handler.
func (s *InventoryService) HandleOrderPlaced(ctx context.Context, evt sharedEvents.OrderPlaced) error {
	items := make([]domain.ReservationItem, len(evt.Items))
	for i, item := range evt.Items {
		items[i] = domain.ReservationItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	reservation, unavailable, err := s.repo.Reserve(ctx, evt.OrderID, items)
	if err != nil {
		return err
	}

	if reservation == nil {
		failed := sharedEvents.InventoryReservationFailed{
			Meta:                  sharedEvents.NewMeta(sharedEvents.TypeInventoryReservationFailed),
			OrderID:               evt.OrderID,
			Reason:                "Insufficient inventory",
			UnavailableProductIDs: unavailable,
			FailedAt:              time.Now().UTC(),
		}
		if err := s.bus.Publish(ctx, failed); err != nil {
			return err
		}
		s.log.Warn("⚠️ Reserva rechazada por falta de stock",
			zap.String("order_id", evt.OrderID.String()),
			zap.Int("unavailable_products", len(unavailable)),
		)
		return nil
	}

	reservedItems := make([]sharedEvents.ReservedItem, len(reservation.Items))
	for i, item := range reservation.Items {
		reservedItems[i] = sharedEvents.ReservedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	reserved := sharedEvents.InventoryReserved{
		Meta:          sharedEvents.NewMeta(sharedEvents.TypeInventoryReserved),
		OrderID:       evt.OrderID,
		ReservationID: reservation.ID,
		ReservedItems: reservedItems,
		ReservedAt:    reservation.ReservedAt,
	}
	if err := s.bus.Publish(ctx, reserved); err != nil {
		return err
	}

	s.log.Info("✅ Inventario reservado",
		zap.String("order_id", evt.OrderID.String()),
		zap.String("reservation_id", reservation.ID.String()),
	)
	return nil
}

// HandleInventoryReleased revierte la reserva activa del pedido. Repetido
// o sin reserva activa es un no-op: compensación idempotente.
func (s *InventoryService) HandleInventoryReleased(ctx context.Context, evt sharedEvents.InventoryReleased) error {
	reservation, err := s.repo.Release(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if reservation == nil {
		s.log.Debug("Release sin reserva activa, ignorado",
			zap.String("order_id", evt.OrderID.String()),
		)
		return nil
	}

	s.log.Info("Inventario liberado",
		zap.String("order_id", evt.OrderID.String()),
		zap.String("reservation_id", reservation.ID.String()),
	)
	return nil
}
