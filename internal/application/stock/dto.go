package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/stock"
)

// StockRecordResponse is the API view of a stock record
type StockRecordResponse struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToStockRecordResponse converts a stock record to its API view
func ToStockRecordResponse(record *stock.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:                record.ID,
		ProductID:         record.ProductID,
		Quantity:          record.Quantity,
		LowStockThreshold: record.LowStockThreshold,
		LowStock:          record.IsLowStock(),
		UpdatedAt:         record.UpdatedAt,
	}
}

// SetLevelsRequest carries an absolute stock level update. A nil threshold
// keeps the record's prior threshold.
type SetLevelsRequest struct {
	Quantity  int64  `json:"quantity"`
	Threshold *int64 `json:"threshold,omitempty"`
}
