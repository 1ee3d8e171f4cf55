package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/ordersaga/internal/analytics/application"
)

// AnalyticsHandler expone las métricas diarias del saga.
type AnalyticsHandler struct {
	service *application.AnalyticsService
}

func NewAnalyticsHandler(service *application.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetDailyMetrics endpoint GET /metrics?date=YYYY-MM-DD (hoy por defecto)
func (h *AnalyticsHandler) GetDailyMetrics(c *gin.Context) {
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	metrics, err := h.service.DailyMetrics(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// RegisterAnalyticsRoutes registra las rutas del servicio de analítica.
func RegisterAnalyticsRoutes(router *gin.Engine, h *AnalyticsHandler) {
	router.GET("/metrics", h.GetDailyMetrics)
}
