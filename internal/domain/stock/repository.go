package stock

import (
	"context"

	"github.com/google/uuid"
)

// StockRecordRepository persists stock records
type StockRecordRepository interface {
	// FindByProduct finds the stock record for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) (*StockRecord, error)
	// FindByProductForUpdate finds the stock record for a product, acquiring a
	// row-level write lock for the duration of the surrounding transaction
	FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*StockRecord, error)
	// FindByProducts finds stock records for multiple products
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]StockRecord, error)
	// FindLowStock finds all records at or below their threshold
	FindLowStock(ctx context.Context) ([]StockRecord, error)
	// Save creates or updates a stock record
	Save(ctx context.Context, record *StockRecord) error
	// SaveWithLock updates a record with an optimistic version check; a stale
	// version surfaces TRANSIENT_CONFLICT
	SaveWithLock(ctx context.Context, record *StockRecord) error
}
