package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// StockRecord owns the on-hand quantity and low-stock threshold for a single
// product. It is the aggregate root of the stock ledger; quantity never goes
// below zero, and every mutation re-evaluates the threshold so alert events
// fire exactly on crossings.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Quantity          int64     `gorm:"not null;default:0"`
	LowStockThreshold int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates a stock record for a product. Records are created
// lazily on first stock operation: a product without a record is treated as
// quantity zero, threshold zero. This is a documented default, not an error.
func NewStockRecord(productID uuid.UUID) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		Quantity:          0,
		LowStockThreshold: 0,
	}, nil
}

// IsLowStock returns true when the quantity has fallen to or below the threshold
func (r *StockRecord) IsLowStock() bool {
	return r.Quantity <= r.LowStockThreshold
}

// HasSufficient returns true if the current quantity can satisfy qty
func (r *StockRecord) HasSufficient(qty int64) bool {
	return r.Quantity >= qty
}

// Decrement subtracts qty from the record. It rejects non-positive quantities
// and any subtraction that would take the quantity below zero; a rejected
// decrement leaves the record untouched.
func (r *StockRecord) Decrement(qty int64, productName string) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.Quantity < qty {
		return shared.NewInsufficientStockError(productName, r.Quantity, qty)
	}

	wasLow := r.IsLowStock()
	r.Quantity -= qty
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewStockDecreasedEvent(r, qty))
	r.evaluateThreshold(wasLow)

	return nil
}

// Increment adds qty to the record
func (r *StockRecord) Increment(qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	wasLow := r.IsLowStock()
	r.Quantity += qty
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewStockIncreasedEvent(r, qty))
	r.evaluateThreshold(wasLow)

	return nil
}

// SetLevels sets the quantity and, when threshold is non-nil, the low-stock
// threshold. A nil threshold keeps the prior value.
func (r *StockRecord) SetLevels(quantity int64, threshold *int64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if threshold != nil && *threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Threshold cannot be negative")
	}

	wasLow := r.IsLowStock()
	r.Quantity = quantity
	if threshold != nil {
		r.LowStockThreshold = *threshold
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewStockLevelsSetEvent(r))
	r.evaluateThreshold(wasLow)

	return nil
}

// evaluateThreshold runs after every mutation. While the record is low it
// emits LowStockDetected; the alert handler dedups against existing unread
// notifications, so repeated emissions while the condition persists are safe.
// StockRecovered fires once the quantity rises back above the threshold.
// Recipient fan-out belongs to the alert handler, not the aggregate.
func (r *StockRecord) evaluateThreshold(wasLow bool) {
	if r.IsLowStock() {
		r.AddDomainEvent(NewLowStockDetectedEvent(r))
		return
	}
	if wasLow {
		r.AddDomainEvent(NewStockRecoveredEvent(r))
	}
}
