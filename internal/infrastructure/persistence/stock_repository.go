package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
)

// GormStockRecordRepository implements stock.StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByProduct finds the stock record for a product
func (r *GormStockRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	var record stock.StockRecord
	if err := r.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProductForUpdate finds the stock record with a SELECT ... FOR UPDATE
// row lock. Must run inside a transaction; the lock is held until commit.
func (r *GormStockRecordRepository) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	var record stock.StockRecord
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProducts finds stock records for multiple products
func (r *GormStockRecordRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]stock.StockRecord, error) {
	if len(productIDs) == 0 {
		return []stock.StockRecord{}, nil
	}

	var records []stock.StockRecord
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindLowStock finds all records at or below their threshold
func (r *GormStockRecordRepository) FindLowStock(ctx context.Context) ([]stock.StockRecord, error) {
	var records []stock.StockRecord
	if err := r.db.WithContext(ctx).
		Where("quantity <= low_stock_threshold").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a stock record
func (r *GormStockRecordRepository) Save(ctx context.Context, record *stock.StockRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveWithLock updates with an optimistic version check. A stale version
// means a concurrent writer won; callers retry through the transient
// conflict path.
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *stock.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(record).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"quantity":            record.Quantity,
			"low_stock_threshold": record.LowStockThreshold,
			"version":             record.Version,
			"updated_at":          record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrTransientConflict
	}
	return nil
}

var _ stock.StockRecordRepository = (*GormStockRecordRepository)(nil)
