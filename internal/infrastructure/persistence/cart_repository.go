package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/cart"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByCustomer returns all cart lines for a customer
func (r *GormCartRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]cart.Line, error) {
	var lines []cart.Line
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// Save creates or updates a cart line. A second add of the same product for
// the same customer updates the quantity in place.
func (r *GormCartRepository) Save(ctx context.Context, line *cart.Line) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(line).Error
}

// DeleteByCustomer removes all cart lines for a customer
func (r *GormCartRepository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&cart.Line{}, "customer_id = ?", customerID).Error
}

var _ cart.Repository = (*GormCartRepository)(nil)
