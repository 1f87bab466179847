package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists cart lines
type Repository interface {
	// FindByCustomer returns all cart lines for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Line, error)
	// Save creates or updates a cart line
	Save(ctx context.Context, line *Line) error
	// DeleteByCustomer removes all cart lines for a customer
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}
