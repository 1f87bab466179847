package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderHandler exposes order queries and lifecycle transitions
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// MarkPaidRequest is the body of POST /orders/:id/pay
type MarkPaidRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Actor      string `json:"actor"`
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PAID SHIPPED"`
	Actor  string `json:"actor"`
}

// ShipRequest is the body of POST /orders/:id/ship
type ShipRequest struct {
	Actor string `json:"actor"`
}

// Get returns an order with its lines
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListByCustomer returns a customer's orders, newest first
func (h *OrderHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing customer_id")
		return
	}

	resp, err := h.orderService.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkPaid records payment for a pending order
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	resp, err := h.orderService.MarkPaid(c.Request.Context(), orderID, req.PaymentRef, req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Ship marks a paid order as shipped
func (h *OrderHandler) Ship(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ShipRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.HandleError(c, err)
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	resp, err := h.orderService.Ship(c.Request.Context(), orderID, req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateStatus moves an order to an explicit target status. Cancellation is
// not accepted here; it has its own endpoint with stock restitution.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	resp, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, order.Status(req.Status), req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListByCustomer)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/pay", h.MarkPaid)
		orders.POST("/:id/ship", h.Ship)
		orders.PATCH("/:id/status", h.UpdateStatus)
	}
}
