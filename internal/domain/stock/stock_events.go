package stock

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockRecord = "StockRecord"

// Event type constants
const (
	EventTypeStockIncreased   = "StockIncreased"
	EventTypeStockDecreased   = "StockDecreased"
	EventTypeStockLevelsSet   = "StockLevelsSet"
	EventTypeLowStockDetected = "LowStockDetected"
	EventTypeStockRecovered   = "StockRecovered"
)

// StockIncreasedEvent is raised when stock is added (receiving, cancellation restore)
type StockIncreasedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Remaining int64     `json:"remaining"`
}

// NewStockIncreasedEvent creates a new StockIncreasedEvent
func NewStockIncreasedEvent(record *StockRecord, qty int64) *StockIncreasedEvent {
	return &StockIncreasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockIncreased, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		Quantity:        qty,
		Remaining:       record.Quantity,
	}
}

// EventType returns the event type name
func (e *StockIncreasedEvent) EventType() string {
	return EventTypeStockIncreased
}

// StockDecreasedEvent is raised when stock is consumed by an order
type StockDecreasedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Remaining int64     `json:"remaining"`
}

// NewStockDecreasedEvent creates a new StockDecreasedEvent
func NewStockDecreasedEvent(record *StockRecord, qty int64) *StockDecreasedEvent {
	return &StockDecreasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDecreased, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		Quantity:        qty,
		Remaining:       record.Quantity,
	}
}

// EventType returns the event type name
func (e *StockDecreasedEvent) EventType() string {
	return EventTypeStockDecreased
}

// StockLevelsSetEvent is raised when quantity/threshold are set absolutely
type StockLevelsSetEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Threshold int64     `json:"threshold"`
}

// NewStockLevelsSetEvent creates a new StockLevelsSetEvent
func NewStockLevelsSetEvent(record *StockRecord) *StockLevelsSetEvent {
	return &StockLevelsSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLevelsSet, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		Quantity:        record.Quantity,
		Threshold:       record.LowStockThreshold,
	}
}

// EventType returns the event type name
func (e *StockLevelsSetEvent) EventType() string {
	return EventTypeStockLevelsSet
}

// LowStockDetectedEvent is raised after any mutation that leaves the quantity
// at or below the threshold. Consumers are responsible for deduplication.
type LowStockDetectedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Threshold int64     `json:"threshold"`
}

// NewLowStockDetectedEvent creates a new LowStockDetectedEvent
func NewLowStockDetectedEvent(record *StockRecord) *LowStockDetectedEvent {
	return &LowStockDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockDetected, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		Quantity:        record.Quantity,
		Threshold:       record.LowStockThreshold,
	}
}

// EventType returns the event type name
func (e *LowStockDetectedEvent) EventType() string {
	return EventTypeLowStockDetected
}

// StockRecoveredEvent is raised when a mutation takes the quantity back above
// the threshold; outstanding unread alerts should be retracted.
type StockRecoveredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Threshold int64     `json:"threshold"`
}

// NewStockRecoveredEvent creates a new StockRecoveredEvent
func NewStockRecoveredEvent(record *StockRecord) *StockRecoveredEvent {
	return &StockRecoveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRecovered, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		Quantity:        record.Quantity,
		Threshold:       record.LowStockThreshold,
	}
}

// EventType returns the event type name
func (e *StockRecoveredEvent) EventType() string {
	return EventTypeStockRecovered
}
