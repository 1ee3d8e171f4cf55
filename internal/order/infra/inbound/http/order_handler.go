package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/ordersaga/internal/order/application"
	"github.com/davicafu/ordersaga/internal/order/domain"
)

// OrderHandler encapsula el command/query boundary del servicio de pedidos.
type OrderHandler struct {
	service *application.OrderService
}

func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// ---------------- Handlers ----------------

// PlaceOrder endpoint POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req struct {
		CustomerID string                       `json:"customer_id" binding:"required"`
		Items      []application.PlaceOrderItem `json:"items" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), customerID, req.Items)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"placed_at":    order.CreatedAt,
	})
}

// GetOrder endpoint GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderHistory endpoint GET /orders/:id/events
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	history, err := h.service.GetOrderHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetCustomerOrders endpoint GET /customers/:id/orders
func (h *OrderHandler) GetCustomerOrders(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	orders, err := h.service.GetCustomerOrders(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// RegisterOrderRoutes registra las rutas del servicio de pedidos.
func RegisterOrderRoutes(router *gin.Engine, h *OrderHandler) {
	router.POST("/orders", h.PlaceOrder)
	router.GET("/orders/:id", h.GetOrder)
	router.GET("/orders/:id/events", h.GetOrderHistory)
	router.GET("/customers/:id/orders", h.GetCustomerOrders)
}
