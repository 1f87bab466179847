package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Record, error) {
	var record notification.Record
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByRecipient lists a recipient's notifications, newest first
func (r *GormNotificationRepository) FindByRecipient(ctx context.Context, recipient uuid.UUID, unreadOnly bool) ([]notification.Record, error) {
	query := r.db.WithContext(ctx).Where("recipient = ?", recipient)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var records []notification.Record
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindUnreadLowStock finds the unread low-stock record for a
// (recipient, product) pair. The alert handler uses this as its dedup check.
func (r *GormNotificationRepository) FindUnreadLowStock(ctx context.Context, recipient, productID uuid.UUID) (*notification.Record, error) {
	var record notification.Record
	if err := r.db.WithContext(ctx).
		Where("recipient = ? AND product_id = ? AND kind = ? AND read_at IS NULL",
			recipient, productID, notification.KindLowStock).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// CreateUnreadLowStock inserts an unread low-stock record, letting the
// partial unique index over (recipient, product_id) arbitrate between
// concurrent inserts. A conflicting unread record makes this a no-op.
func (r *GormNotificationRepository) CreateUnreadLowStock(ctx context.Context, record *notification.Record) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "recipient"}, {Name: "product_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("kind = 'LOW_STOCK' AND read_at IS NULL"),
			}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteUnreadLowStockForProduct removes unread low-stock records for a
// product across all recipients; used when stock recovers
func (r *GormNotificationRepository) DeleteUnreadLowStockForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&notification.Record{},
			"product_id = ? AND kind = ? AND read_at IS NULL",
			productID, notification.KindLowStock).Error
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, record *notification.Record) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// MarkAllRead flips ReadAt on every unread notification for a recipient
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipient uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&notification.Record{}).
		Where("recipient = ? AND read_at IS NULL", recipient).
		Update("read_at", time.Now()).Error
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
