package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
)

const (
	// DefaultMaxAttempts bounds retries on optimistic lock conflicts
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the base delay between retry attempts
	DefaultRetryDelay = 25 * time.Millisecond
)

// Service handles stock ledger operations outside of checkout: receiving
// inventory, manual adjustments and threshold configuration.
type Service struct {
	stockRepo      stock.StockRecordRepository
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxAttempts    int
	retryDelay     time.Duration
}

// NewService creates a stock service
func NewService(stockRepo stock.StockRecordRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// SetEventPublisher sets the event publisher for threshold alerts
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByProduct returns the stock record for a product
func (s *Service) GetByProduct(ctx context.Context, productID uuid.UUID) (*StockRecordResponse, error) {
	record, err := s.stockRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToStockRecordResponse(record)
	return &response, nil
}

// ListLowStock returns all records at or below their threshold
func (s *Service) ListLowStock(ctx context.Context) ([]StockRecordResponse, error) {
	records, err := s.stockRepo.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]StockRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToStockRecordResponse(&records[i]))
	}
	return responses, nil
}

// Increment adds qty to a product's stock. A missing record is created
// lazily starting from zero; this is the documented default for first touch.
func (s *Service) Increment(ctx context.Context, productID uuid.UUID, qty int64) (*StockRecordResponse, error) {
	return s.mutate(ctx, productID, true, func(record *stock.StockRecord) error {
		return record.Increment(qty)
	})
}

// Decrement subtracts qty from a product's stock. It fails with
// NO_INVENTORY_RECORD if no record exists and INSUFFICIENT_STOCK if the
// quantity cannot cover qty; either way nothing is mutated.
func (s *Service) Decrement(ctx context.Context, productID uuid.UUID, qty int64) (*StockRecordResponse, error) {
	productName := productID.String()
	if product, err := s.productRepo.FindByID(ctx, productID); err == nil {
		productName = product.Name
	}
	return s.mutate(ctx, productID, false, func(record *stock.StockRecord) error {
		return record.Decrement(qty, productName)
	})
}

// SetLevels sets quantity and threshold absolutely, creating the record
// lazily when absent.
func (s *Service) SetLevels(ctx context.Context, productID uuid.UUID, req SetLevelsRequest) (*StockRecordResponse, error) {
	return s.mutate(ctx, productID, true, func(record *stock.StockRecord) error {
		return record.SetLevels(req.Quantity, req.Threshold)
	})
}

// mutate loads (or lazily creates) the record, applies op, and persists with
// an optimistic version check, retrying a bounded number of times when a
// concurrent writer got there first.
func (s *Service) mutate(ctx context.Context, productID uuid.UUID, createIfAbsent bool, op func(*stock.StockRecord) error) (*StockRecordResponse, error) {
	var result *stock.StockRecord

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		record, err := s.stockRepo.FindByProduct(ctx, productID)
		created := false
		if err != nil {
			if shared.ErrorCode(err) != shared.CodeNotFound {
				return nil, err
			}
			if !createIfAbsent {
				return nil, shared.ErrNoInventoryRecord
			}
			record, err = stock.NewStockRecord(productID)
			if err != nil {
				return nil, err
			}
			created = true
		}

		if err := op(record); err != nil {
			return nil, err
		}

		if created {
			err = s.stockRepo.Save(ctx, record)
		} else {
			err = s.stockRepo.SaveWithLock(ctx, record)
		}
		if err == nil {
			result = record
			break
		}
		if !shared.IsTransientConflict(err) {
			return nil, err
		}
		if attempt == s.maxAttempts {
			return nil, err
		}

		s.logger.Debug("stock write conflict, retrying",
			zap.String("product_id", productID.String()),
			zap.Int("attempt", attempt),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}

	s.publishDomainEvents(ctx, result)

	response := ToStockRecordResponse(result)
	return &response, nil
}

// publishDomainEvents publishes pending events from the record
func (s *Service) publishDomainEvents(ctx context.Context, record *stock.StockRecord) {
	if s.eventPublisher == nil || record == nil {
		return
	}
	events := record.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	record.ClearDomainEvents()
}
