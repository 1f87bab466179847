package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CheckoutHandler exposes order placement and cancellation
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkoutapp.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkoutapp.Service) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// AddressRequest carries a shipping address in request bodies
type AddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required"`
}

func (r AddressRequest) toAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(r.Line1, r.City, r.PostalCode, r.Country,
		valueobject.WithLine2(r.Line2),
		valueobject.WithRegion(r.Region))
}

// PlaceOrderItemRequest is one product/quantity pair in a placement request
type PlaceOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest is the body of POST /orders
type PlaceOrderRequest struct {
	CustomerID      string                  `json:"customer_id" binding:"required,uuid"`
	Items           []PlaceOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressRequest          `json:"shipping_address" binding:"required"`
	PaymentRef      *string                 `json:"payment_ref"`
	IdempotencyKey  string                  `json:"idempotency_key"`
}

// PlaceOrderFromCartRequest is the body of POST /orders/from-cart
type PlaceOrderFromCartRequest struct {
	CustomerID      string         `json:"customer_id" binding:"required,uuid"`
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	PaymentRef      *string        `json:"payment_ref"`
}

// CancelOrderRequest is the body of POST /orders/:id/cancel
type CancelOrderRequest struct {
	Actor string `json:"actor"`
}

// PlaceOrder creates an order from explicitly supplied items
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	address, err := req.ShippingAddress.toAddress()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]checkoutapp.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		items = append(items, checkoutapp.ItemRequest{ProductID: productID, Quantity: item.Quantity})
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), checkoutapp.PlaceOrderRequest{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: address,
		PaymentRef:      req.PaymentRef,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// PlaceOrderFromCart creates an order from the customer's cart
func (h *CheckoutHandler) PlaceOrderFromCart(c *gin.Context) {
	var req PlaceOrderFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	address, err := req.ShippingAddress.toAddress()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.checkoutService.PlaceOrderFromCart(c.Request.Context(), customerID, address, req.PaymentRef)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// CancelOrder cancels an order and restores its stock
func (h *CheckoutHandler) CancelOrder(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.HandleError(c, err)
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	resp, err := h.checkoutService.CancelOrder(c.Request.Context(), orderID, req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.POST("/from-cart", h.PlaceOrderFromCart)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}
