package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository provides read-only access to the product catalog.
// The fulfillment core never writes products.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}
