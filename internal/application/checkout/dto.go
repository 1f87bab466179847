package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ItemRequest is one requested product/quantity pair for programmatic order
// placement.
type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// PlaceOrderRequest carries the inputs of a programmatic order placement
type PlaceOrderRequest struct {
	CustomerID      uuid.UUID
	Items           []ItemRequest
	ShippingAddress valueobject.Address
	PaymentRef      *string
	IdempotencyKey  string
}

// OrderLineResponse is the API view of an order line
type OrderLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          order.Status        `json:"status"`
	PaymentRef      *string             `json:"payment_ref,omitempty"`
	ShippingAddress valueobject.Address `json:"shipping_address"`
	Lines           []OrderLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToOrderResponse converts an order aggregate to its API view
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount(),
		})
	}
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		PaymentRef:      o.PaymentRef,
		ShippingAddress: o.ShippingAddress,
		Lines:           lines,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
