package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/ordersaga/internal/notification/application"
)

// NotificationHandler expone las notificaciones enviadas por pedido.
type NotificationHandler struct {
	service *application.NotificationService
}

func NewNotificationHandler(service *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListByOrder endpoint GET /orders/:id/notifications
func (h *NotificationHandler) ListByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	notifications, err := h.service.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// RegisterNotificationRoutes registra las rutas del servicio de notificaciones.
func RegisterNotificationRoutes(router *gin.Engine, h *NotificationHandler) {
	router.GET("/orders/:id/notifications", h.ListByOrder)
}
