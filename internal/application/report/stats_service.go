package report

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/stock"
)

// FulfillmentStats is a point-in-time summary of the order book and the
// stock ledger. It is a read model over committed state only; numbers from
// two calls may differ if orders land in between.
type FulfillmentStats struct {
	PendingOrders   int64           `json:"pending_orders"`
	PaidOrders      int64           `json:"paid_orders"`
	ShippedOrders   int64           `json:"shipped_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	RealizedRevenue decimal.Decimal `json:"realized_revenue"`
	LowStockCount   int64           `json:"low_stock_count"`
}

// Service computes fulfillment statistics
type Service struct {
	orderRepo order.Repository
	stockRepo stock.StockRecordRepository
	logger    *zap.Logger
}

// NewService creates a report service
func NewService(orderRepo order.Repository, stockRepo stock.StockRecordRepository, logger *zap.Logger) *Service {
	return &Service{orderRepo: orderRepo, stockRepo: stockRepo, logger: logger}
}

// Stats returns order counts per status, realized revenue over paid and
// shipped orders, and the number of products currently at or below their
// low-stock threshold. Cancelled orders never contribute to revenue.
func (s *Service) Stats(ctx context.Context) (*FulfillmentStats, error) {
	stats := &FulfillmentStats{RealizedRevenue: decimal.Zero}

	counts := []struct {
		status order.Status
		target *int64
	}{
		{order.StatusPending, &stats.PendingOrders},
		{order.StatusPaid, &stats.PaidOrders},
		{order.StatusShipped, &stats.ShippedOrders},
		{order.StatusCancelled, &stats.CancelledOrders},
	}
	for _, c := range counts {
		n, err := s.orderRepo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = n
	}

	revenue, err := s.orderRepo.SumTotalByStatuses(ctx, []order.Status{order.StatusPaid, order.StatusShipped})
	if err != nil {
		return nil, err
	}
	stats.RealizedRevenue = revenue

	low, err := s.stockRepo.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	stats.LowStockCount = int64(len(low))

	return stats, nil
}
