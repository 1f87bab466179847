package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists orders and their lines. Orders are append-only: there
// is no delete operation.
type Repository interface {
	// FindByID finds an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByCustomer lists a customer's orders, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	// Save creates or updates an order and its lines
	Save(ctx context.Context, o *Order) error
	// SaveWithLock updates an order with an optimistic version check; a stale
	// version surfaces TRANSIENT_CONFLICT
	SaveWithLock(ctx context.Context, o *Order) error
	// CountByStatus counts orders in a given status
	CountByStatus(ctx context.Context, status Status) (int64, error)
	// SumTotalByStatuses sums TotalAmount over orders in any of the given statuses
	SumTotalByStatuses(ctx context.Context, statuses []Status) (decimal.Decimal, error)
}
