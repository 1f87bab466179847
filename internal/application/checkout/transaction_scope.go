package checkout

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// checkout touches. Everything executed within one scope commits or rolls
// back atomically: order creation, stock decrements and cart deletion are
// all-or-nothing.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the checkout repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Orders returns the order repository scoped to the current transaction
	Orders() order.Repository
	// Stock returns the stock record repository scoped to the current transaction
	Stock() stock.StockRecordRepository
	// Cart returns the cart repository scoped to the current transaction
	Cart() cart.Repository
}

// NoOpTransactionScope runs the function without a real transaction.
// It exists for tests and single-store setups.
type NoOpTransactionScope struct {
	orderRepo order.Repository
	stockRepo stock.StockRecordRepository
	cartRepo  cart.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	orderRepo order.Repository,
	stockRepo stock.StockRecordRepository,
	cartRepo cart.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		cartRepo:  cartRepo,
	}
}

// Execute runs the function directly, without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.Repository {
	return s.orderRepo
}

// Stock returns the stock record repository
func (s *NoOpTransactionScope) Stock() stock.StockRecordRepository {
	return s.stockRepo
}

// Cart returns the cart repository
func (s *NoOpTransactionScope) Cart() cart.Repository {
	return s.cartRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
