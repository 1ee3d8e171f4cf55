package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/ordersaga/internal/inventory/application"
	"github.com/davicafu/ordersaga/internal/inventory/domain"
)

// InventoryHandler expone el catálogo: alta y consulta de productos con
// sus contadores de stock.
type InventoryHandler struct {
	service *application.InventoryService
}

func NewInventoryHandler(service *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// CreateProduct endpoint POST /products
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		SKU      string `json:"sku" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req.Name, req.SKU, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrProductAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "product already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct endpoint GET /products/:id
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts endpoint GET /products
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}

// RegisterInventoryRoutes registra las rutas del servicio de inventario.
func RegisterInventoryRoutes(router *gin.Engine, h *InventoryHandler) {
	router.POST("/products", h.CreateProduct)
	router.GET("/products/:id", h.GetProduct)
	router.GET("/products", h.ListProducts)
}
