package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus recorre el saga: cada transición la dispara un evento consumido.
type OrderStatus string

const (
	OrderPending           OrderStatus = "pending"
	OrderInventoryReserved OrderStatus = "inventory_reserved"
	OrderPaymentProcessed  OrderStatus = "payment_processed"
	OrderConfirmed         OrderStatus = "confirmed"
	OrderCancelled         OrderStatus = "cancelled"
	OrderFailed            OrderStatus = "failed"
)

// Order es el agregado raíz del servicio de pedidos. Se crea con el comando
// place-order y a partir de ahí solo muta consumiendo eventos del bus;
// nunca se borra.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
}

// NewOrder construye el pedido calculando el total (Σ cantidad × precio).
func NewOrder(customerID uuid.UUID, items []OrderItem) *Order {
	orderID := uuid.New()
	now := time.Now().UTC()

	total := 0.0
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = orderID
		items[i].TotalPrice = float64(items[i].Quantity) * items[i].UnitPrice
		total += items[i].TotalPrice
	}

	return &Order{
		ID:          orderID,
		CustomerID:  customerID,
		TotalAmount: total,
		Status:      OrderPending,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (o *Order) PartitionKey() string {
	return o.ID.String()
}

// transitions define los saltos legales de la máquina de estados.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:           {OrderInventoryReserved, OrderCancelled},
	OrderInventoryReserved: {OrderPaymentProcessed, OrderConfirmed, OrderFailed, OrderCancelled},
	OrderPaymentProcessed:  {OrderConfirmed, OrderFailed},
}

// CanTransition indica si el salto de estado es legal. Los handlers lo usan
// solo para avisar: con entregas concurrentes entre colas el orden no está
// garantizado y un salto "ilegal" puede ser simplemente un evento tardío.
func (o *Order) CanTransition(target OrderStatus) bool {
	for _, next := range transitions[o.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// SetStatus aplica la transición y refresca UpdatedAt.
func (o *Order) SetStatus(target OrderStatus) {
	o.Status = target
	o.UpdatedAt = time.Now().UTC()
}
