package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/stock"
)

const (
	// DefaultMaxAttempts bounds the internal retries on lock/version conflicts
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the base delay between retry attempts
	DefaultRetryDelay = 25 * time.Millisecond
)

// Mailer dispatches order-confirmation messages. Dispatch is fire-and-forget
// relative to the transaction boundary: failures are logged, never surfaced
// as the checkout result.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, o *order.Order) error
}

// Service composes the stock ledger, order aggregate and cart into atomic
// place-order and cancel-order operations.
type Service struct {
	scope          TransactionScope
	productRepo    catalog.ProductRepository
	cartRepo       cart.Repository
	stockRepo      stock.StockRecordRepository
	eventPublisher shared.EventPublisher
	mailer         Mailer
	idempotency    shared.IdempotencyStore
	logger         *zap.Logger
	maxAttempts    int
	retryDelay     time.Duration
}

// NewService creates a checkout service
func NewService(
	scope TransactionScope,
	productRepo catalog.ProductRepository,
	cartRepo cart.Repository,
	stockRepo stock.StockRecordRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:       scope,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		stockRepo:   stockRepo,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMailer sets the order-confirmation mailer
func (s *Service) SetMailer(mailer Mailer) {
	s.mailer = mailer
}

// SetIdempotencyStore sets the store used to reject replayed placement requests
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetRetryPolicy overrides the conflict retry bounds
func (s *Service) SetRetryPolicy(maxAttempts int, retryDelay time.Duration) {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if retryDelay > 0 {
		s.retryDelay = retryDelay
	}
}

// PlaceOrderFromCart converts the customer's cart into a durable order.
// The order, its lines, every stock decrement and the cart deletion commit
// in one unit of work; any failure leaves no partial state.
func (s *Service) PlaceOrderFromCart(ctx context.Context, customerID uuid.UUID, address valueobject.Address, paymentRef *string) (*OrderResponse, error) {
	lines, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shared.ErrEmptyCart
	}

	items := make([]ItemRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, ItemRequest{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	placed, err := s.place(ctx, customerID, items, address, paymentRef, true)
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(placed)
	return &response, nil
}

// PlaceOrder creates an order from directly supplied items. Validation and
// atomicity rules are identical to PlaceOrderFromCart; the cart is untouched.
// An optional idempotency key rejects replays of the same request.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrEmptyCart
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("checkout:%s:%s", req.CustomerID, req.IdempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL)
		if err != nil {
			// The store is an optimization, not a correctness gate; log and continue.
			s.logger.Warn("idempotency store unavailable",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Error(err),
			)
		} else if !fresh {
			return nil, shared.NewDomainError("DUPLICATE_REQUEST", "An order with this idempotency key was already placed")
		}
	}

	placed, err := s.place(ctx, req.CustomerID, req.Items, req.ShippingAddress, req.PaymentRef, false)
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(placed)
	return &response, nil
}

// place runs the shared placement path. The stock pre-check happens before
// any mutation and is repeated inside the unit of work under row locks to
// close the race window.
func (s *Service) place(ctx context.Context, customerID uuid.UUID, items []ItemRequest, address valueobject.Address, paymentRef *string, fromCart bool) (*order.Order, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		productIDs = append(productIDs, it.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	for _, it := range items {
		if _, ok := productsByID[it.ProductID]; !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Unknown product %s", it.ProductID))
		}
	}

	if err := s.precheckStock(ctx, items, productsByID); err != nil {
		return nil, err
	}

	inputs := make([]order.LineInput, 0, len(items))
	for _, it := range items {
		product := productsByID[it.ProductID]
		inputs = append(inputs, order.LineInput{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   product.PriceMoney(),
		})
	}

	var placed *order.Order
	var pending []shared.DomainEvent

	err = s.withRetry(ctx, func() error {
		placed, pending = nil, nil
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			o, err := order.NewOrder(customerID, address, paymentRef, inputs)
			if err != nil {
				return err
			}

			events := make([]shared.DomainEvent, 0)
			for _, it := range items {
				record, err := repos.Stock().FindByProductForUpdate(ctx, it.ProductID)
				if err != nil {
					if shared.ErrorCode(err) == shared.CodeNotFound {
						return shared.ErrNoInventoryRecord
					}
					return err
				}
				if err := record.Decrement(it.Quantity, productsByID[it.ProductID].Name); err != nil {
					return err
				}
				if err := repos.Stock().Save(ctx, record); err != nil {
					return err
				}
				events = append(events, record.GetDomainEvents()...)
				record.ClearDomainEvents()
			}

			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}

			if fromCart {
				if err := repos.Cart().DeleteByCustomer(ctx, customerID); err != nil {
					return err
				}
			}

			events = append(events, o.GetDomainEvents()...)
			o.ClearDomainEvents()

			placed = o
			pending = events
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("status", placed.Status.String()),
		zap.String("total", placed.TotalAmount.StringFixed(2)),
		zap.Int("lines", placed.LineCount()),
	)

	s.publish(ctx, pending)
	s.sendConfirmation(ctx, placed)

	return placed, nil
}

// CancelOrder is the sole compensating action in the system: it restores
// stock for every order line and marks the order Cancelled, atomically.
// A second cancel sees Cancelled and fails the status guard, so stock is
// restored exactly once.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, actor string) (*OrderResponse, error) {
	var cancelled *order.Order
	var from order.Status
	var pending []shared.DomainEvent

	err := s.withRetry(ctx, func() error {
		cancelled, pending = nil, nil
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			o, err := repos.Orders().FindByID(ctx, orderID)
			if err != nil {
				return err
			}

			from = o.Status
			if err := o.Cancel(); err != nil {
				return err
			}

			events := make([]shared.DomainEvent, 0)
			for _, line := range o.Lines {
				record, err := repos.Stock().FindByProductForUpdate(ctx, line.ProductID)
				if err != nil {
					if shared.ErrorCode(err) != shared.CodeNotFound {
						return err
					}
					record, err = stock.NewStockRecord(line.ProductID)
					if err != nil {
						return err
					}
				}
				if err := record.Increment(line.Quantity); err != nil {
					return err
				}
				if err := repos.Stock().Save(ctx, record); err != nil {
					return err
				}
				events = append(events, record.GetDomainEvents()...)
				record.ClearDomainEvents()
			}

			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}

			events = append(events, o.GetDomainEvents()...)
			o.ClearDomainEvents()

			cancelled = o
			pending = events
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status transition",
		zap.String("order_id", cancelled.ID.String()),
		zap.String("actor", actor),
		zap.String("from", from.String()),
		zap.String("to", cancelled.Status.String()),
		zap.Time("at", cancelled.UpdatedAt),
	)

	s.publish(ctx, pending)

	response := ToOrderResponse(cancelled)
	return &response, nil
}

// precheckStock validates availability before any mutation so that obvious
// failures never open a transaction.
func (s *Service) precheckStock(ctx context.Context, items []ItemRequest, productsByID map[uuid.UUID]catalog.Product) error {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}

	records, err := s.stockRepo.FindByProducts(ctx, productIDs)
	if err != nil {
		return err
	}
	recordsByProduct := make(map[uuid.UUID]stock.StockRecord, len(records))
	for _, r := range records {
		recordsByProduct[r.ProductID] = r
	}

	for _, it := range items {
		record, ok := recordsByProduct[it.ProductID]
		if !ok {
			return shared.ErrNoInventoryRecord
		}
		if !record.HasSufficient(it.Quantity) {
			return shared.NewInsufficientStockError(productsByID[it.ProductID].Name, record.Quantity, it.Quantity)
		}
	}
	return nil
}

// withRetry retries fn a bounded number of times on transient lock/version
// conflicts. Deterministic business failures are returned immediately.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !shared.IsTransientConflict(err) {
			return err
		}
		if attempt < s.maxAttempts {
			s.logger.Debug("transient conflict, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return err
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated.
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *Service) sendConfirmation(ctx context.Context, o *order.Order) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendOrderConfirmation(ctx, o); err != nil {
		s.logger.Error("failed to dispatch order confirmation",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}
