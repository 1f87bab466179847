package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/stock"
)

// GormTransactionScope implements checkout.TransactionScope on GORM
// transactions. Every repository handed to the unit of work shares one
// transaction, so the order insert, stock decrements and cart deletion
// commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn rolls the
// transaction back; success commits.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos checkout.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Orders returns the order repository scoped to the current transaction
func (r *gormTransactionalRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// Stock returns the stock record repository scoped to the current transaction
func (r *gormTransactionalRepositories) Stock() stock.StockRecordRepository {
	return NewGormStockRecordRepository(r.tx)
}

// Cart returns the cart repository scoped to the current transaction
func (r *gormTransactionalRepositories) Cart() cart.Repository {
	return NewGormCartRepository(r.tx)
}

var _ checkout.TransactionScope = (*GormTransactionScope)(nil)
var _ checkout.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
