package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Line represents a line item in an order. Quantity and price are snapshotted
// at order time and immutable afterwards; the price is never re-read from the
// catalog.
type Line struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "order_lines"
}

// NewLine creates a new order line with a price snapshot
func NewLine(orderID, productID uuid.UUID, productName string, quantity int64, unitPrice valueobject.Money) (*Line, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &Line{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		CreatedAt:   time.Now(),
	}, nil
}

// Amount returns quantity * unit price
func (l *Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// UnitPriceMoney returns the unit price as a Money value object
func (l *Line) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.UnitPrice)
}

// Order represents a customer purchase. It is created atomically with its
// lines, its total equals the sum of line amounts at creation time, and it is
// never deleted; status only ever moves through the transition table.
type Order struct {
	shared.BaseAggregateRoot
	CustomerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Status          Status              `gorm:"type:varchar(20);not null;index"`
	PaymentRef      *string             `gorm:"type:varchar(100)"`
	ShippingAddress valueobject.Address `gorm:"type:jsonb"`
	Lines           []Line              `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// LineInput describes one requested line when creating an order
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   valueobject.Money
}

// NewOrder creates an order with its lines in one step. A supplied payment
// reference marks the order Paid immediately, otherwise it starts Pending.
func NewOrder(customerID uuid.UUID, address valueobject.Address, paymentRef *string, inputs []LineInput) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if address.IsZero() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must contain at least one line")
	}

	status := StatusPending
	if paymentRef != nil && *paymentRef != "" {
		status = StatusPaid
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		TotalAmount:       decimal.Zero,
		Status:            status,
		PaymentRef:        paymentRef,
		ShippingAddress:   address,
		Lines:             make([]Line, 0, len(inputs)),
	}

	total := decimal.Zero
	for _, in := range inputs {
		line, err := NewLine(o.ID, in.ProductID, in.ProductName, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, *line)
		total = total.Add(line.Amount())
	}
	o.TotalAmount = total.Round(2)

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// TransitionTo moves the order to target through the central transition
// table. A transition to the current status is an idempotent no-op success.
// Illegal transitions return INVALID_TRANSITION and leave status unchanged.
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+target.String())
	}
	if o.Status == target {
		return nil
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(o.Status.String(), target.String())
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target))

	return nil
}

// MarkPaid records the external payment reference and transitions to Paid
func (o *Order) MarkPaid(paymentRef string) error {
	if err := o.TransitionTo(StatusPaid); err != nil {
		return err
	}
	if paymentRef != "" {
		o.PaymentRef = &paymentRef
	}
	return nil
}

// Cancel transitions the order to Cancelled. Only Pending and Paid orders may
// be cancelled. Unlike TransitionTo, cancelling an already-cancelled order is
// an error rather than a no-op: the guard is what guarantees the orchestrator
// restores stock exactly once.
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewInvalidTransitionError(o.Status.String(), StatusCancelled.String())
	}
	if err := o.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// CanCancel returns true if the order may still be cancelled
func (o *Order) CanCancel() bool {
	return o.Status.CanTransitionTo(StatusCancelled)
}

// TotalAmountMoney returns the order total as a Money value object
func (o *Order) TotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// LineCount returns the number of lines in the order
func (o *Order) LineCount() int {
	return len(o.Lines)
}
