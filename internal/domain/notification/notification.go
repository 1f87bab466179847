package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Kind classifies a notification
type Kind string

const (
	KindLowStock           Kind = "LOW_STOCK"
	KindOrderCreated       Kind = "ORDER_CREATED"
	KindOrderStatusChanged Kind = "ORDER_STATUS_CHANGED"
)

// Record is a notification addressed to one recipient. For the LowStock kind
// the payload names the product, and at most one unread record may exist per
// (recipient, product) pair at a time; the alert handler enforces that before
// creating a new one.
type Record struct {
	shared.BaseEntity
	Recipient uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind      Kind       `gorm:"type:varchar(40);not null;index"`
	Title     string     `gorm:"type:varchar(200);not null"`
	Message   string     `gorm:"type:text;not null"`
	Payload   string     `gorm:"type:jsonb;not null;default:'{}'"`
	ProductID *uuid.UUID `gorm:"type:uuid;index"` // set for LowStock, used by the dedup lookup
	ReadAt    *time.Time
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "notifications"
}

// LowStockPayload is the structured payload of a LowStock notification
type LowStockPayload struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	Threshold   int64     `json:"threshold"`
}

// NewLowStock creates an unread low-stock notification carrying a snapshot of
// the current quantity and threshold.
func NewLowStock(recipient uuid.UUID, p LowStockPayload) (*Record, error) {
	if recipient == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "Recipient cannot be empty")
	}
	if p.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal low-stock payload: %w", err)
	}

	productID := p.ProductID
	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		Recipient:  recipient,
		Kind:       KindLowStock,
		Title:      "Low stock alert",
		Message:    fmt.Sprintf("%s is low on stock: %d left (threshold %d)", p.ProductName, p.Quantity, p.Threshold),
		Payload:    string(payload),
		ProductID:  &productID,
	}, nil
}

// IsRead returns true once the recipient has read the notification
func (r *Record) IsRead() bool {
	return r.ReadAt != nil
}

// MarkRead flips ReadAt. It never touches anything else; marking a low-stock
// notification read must not re-trigger stock ledger logic.
func (r *Record) MarkRead() {
	if r.ReadAt != nil {
		return
	}
	now := time.Now()
	r.ReadAt = &now
	r.UpdatedAt = now
}
