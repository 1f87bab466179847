package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stockapp "github.com/storefront/backend/internal/application/stock"
)

// StockHandler exposes stock ledger adjustments and queries
type StockHandler struct {
	BaseHandler
	stockService *stockapp.Service
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.Service) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// AdjustStockRequest is the body of increase/decrease requests
type AdjustStockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// SetLevelsRequest is the body of PUT /stock/:product_id/levels
type SetLevelsRequest struct {
	Quantity  int64  `json:"quantity" binding:"gte=0"`
	Threshold *int64 `json:"threshold" binding:"omitempty,gte=0"`
}

// Get returns the stock record for a product
func (h *StockHandler) Get(c *gin.Context) {
	productID, err := parseID(c, "product_id")
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	resp, err := h.stockService.GetByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListLowStock returns every record at or below its threshold
func (h *StockHandler) ListLowStock(c *gin.Context) {
	resp, err := h.stockService.ListLowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Increase adds stock for a product, creating the record on first receipt
func (h *StockHandler) Increase(c *gin.Context) {
	h.adjust(c, h.stockService.Increment)
}

// Decrease removes stock for a product
func (h *StockHandler) Decrease(c *gin.Context) {
	h.adjust(c, h.stockService.Decrement)
}

func (h *StockHandler) adjust(c *gin.Context, op func(context.Context, uuid.UUID, int64) (*stockapp.StockRecordResponse, error)) {
	productID, err := parseID(c, "product_id")
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := op(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetLevels sets the absolute quantity and optionally the threshold
func (h *StockHandler) SetLevels(c *gin.Context) {
	productID, err := parseID(c, "product_id")
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req SetLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.stockService.SetLevels(c.Request.Context(), productID, stockapp.SetLevelsRequest{
		Quantity:  req.Quantity,
		Threshold: req.Threshold,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/low", h.ListLowStock)
		stock.GET("/:product_id", h.Get)
		stock.POST("/:product_id/increase", h.Increase)
		stock.POST("/:product_id/decrease", h.Decrease)
		stock.PUT("/:product_id/levels", h.SetLevels)
	}
}
