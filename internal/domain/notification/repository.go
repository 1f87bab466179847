package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists notification records
type Repository interface {
	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindByRecipient lists a recipient's notifications, newest first
	FindByRecipient(ctx context.Context, recipient uuid.UUID, unreadOnly bool) ([]Record, error)
	// FindUnreadLowStock finds the unread low-stock record for a
	// (recipient, product) pair, or ErrNotFound
	FindUnreadLowStock(ctx context.Context, recipient, productID uuid.UUID) (*Record, error)
	// CreateUnreadLowStock inserts an unread low-stock record unless the
	// (recipient, product) pair already has one. Returns false when the
	// record was not inserted. The store arbitrates between concurrent
	// callers, so two racing inserts yield exactly one record.
	CreateUnreadLowStock(ctx context.Context, record *Record) (bool, error)
	// DeleteUnreadLowStockForProduct removes unread low-stock records for a
	// product across all recipients; used when stock recovers
	DeleteUnreadLowStockForProduct(ctx context.Context, productID uuid.UUID) error
	// Save creates or updates a notification
	Save(ctx context.Context, record *Record) error
	// MarkAllRead flips ReadAt on every unread notification for a recipient
	MarkAllRead(ctx context.Context, recipient uuid.UUID) error
}
