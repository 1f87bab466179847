package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/stock"
)

// memoryStore is a single in-memory datastore shared by all fake
// repositories, so a snapshot/restore pair can imitate transaction rollback.
type memoryStore struct {
	stocks    map[uuid.UUID]*stock.StockRecord
	orders    map[uuid.UUID]*order.Order
	cartLines map[uuid.UUID][]cart.Line

	stockSaveErrFor uuid.UUID // inject a save failure for this product
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		stocks:    make(map[uuid.UUID]*stock.StockRecord),
		orders:    make(map[uuid.UUID]*order.Order),
		cartLines: make(map[uuid.UUID][]cart.Line),
	}
}

func (s *memoryStore) snapshot() *memoryStore {
	copied := newMemoryStore()
	for k, v := range s.stocks {
		rec := *v
		copied.stocks[k] = &rec
	}
	for k, v := range s.orders {
		o := *v
		o.Lines = append([]order.Line(nil), v.Lines...)
		copied.orders[k] = &o
	}
	for k, v := range s.cartLines {
		copied.cartLines[k] = append([]cart.Line(nil), v...)
	}
	copied.stockSaveErrFor = s.stockSaveErrFor
	return copied
}

func (s *memoryStore) restore(from *memoryStore) {
	s.stocks = from.stocks
	s.orders = from.orders
	s.cartLines = from.cartLines
}

type memStockRepo struct{ store *memoryStore }

func (r *memStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	if rec, ok := r.store.stocks[productID]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	return r.FindByProduct(ctx, productID)
}

func (r *memStockRepo) FindByProducts(_ context.Context, productIDs []uuid.UUID) ([]stock.StockRecord, error) {
	var out []stock.StockRecord
	for _, id := range productIDs {
		if rec, ok := r.store.stocks[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memStockRepo) FindLowStock(_ context.Context) ([]stock.StockRecord, error) {
	var out []stock.StockRecord
	for _, rec := range r.store.stocks {
		if rec.IsLowStock() {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memStockRepo) Save(_ context.Context, record *stock.StockRecord) error {
	if r.store.stockSaveErrFor != uuid.Nil && record.ProductID == r.store.stockSaveErrFor {
		return errors.New("disk full")
	}
	copied := *record
	r.store.stocks[record.ProductID] = &copied
	return nil
}

func (r *memStockRepo) SaveWithLock(ctx context.Context, record *stock.StockRecord) error {
	return r.Save(ctx, record)
}

type memOrderRepo struct {
	store         *memoryStore
	conflictsLeft int
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := r.store.orders[id]; ok {
		copied := *o
		copied.Lines = append([]order.Line(nil), o.Lines...)
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]order.Order, error) {
	var out []order.Order
	for _, o := range r.store.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) Save(_ context.Context, o *order.Order) error {
	copied := *o
	copied.Lines = append([]order.Line(nil), o.Lines...)
	r.store.orders[o.ID] = &copied
	return nil
}

func (r *memOrderRepo) SaveWithLock(ctx context.Context, o *order.Order) error {
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return shared.ErrTransientConflict
	}
	return r.Save(ctx, o)
}

func (r *memOrderRepo) CountByStatus(_ context.Context, status order.Status) (int64, error) {
	var n int64
	for _, o := range r.store.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memOrderRepo) SumTotalByStatuses(_ context.Context, statuses []order.Status) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range r.store.orders {
		for _, s := range statuses {
			if o.Status == s {
				sum = sum.Add(o.TotalAmount)
				break
			}
		}
	}
	return sum, nil
}

type memCartRepo struct{ store *memoryStore }

func (r *memCartRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]cart.Line, error) {
	return append([]cart.Line(nil), r.store.cartLines[customerID]...), nil
}

func (r *memCartRepo) Save(_ context.Context, line *cart.Line) error {
	r.store.cartLines[line.CustomerID] = append(r.store.cartLines[line.CustomerID], *line)
	return nil
}

func (r *memCartRepo) DeleteByCustomer(_ context.Context, customerID uuid.UUID) error {
	delete(r.store.cartLines, customerID)
	return nil
}

// rollbackScope snapshots the store before running the unit of work and
// restores it when the work fails, mirroring a database rollback.
type rollbackScope struct {
	store     *memoryStore
	orderRepo *memOrderRepo
	stockRepo *memStockRepo
	cartRepo  *memCartRepo
}

func newRollbackScope(store *memoryStore) *rollbackScope {
	return &rollbackScope{
		store:     store,
		orderRepo: &memOrderRepo{store: store},
		stockRepo: &memStockRepo{store: store},
		cartRepo:  &memCartRepo{store: store},
	}
}

func (s *rollbackScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	before := s.store.snapshot()
	if err := fn(s); err != nil {
		s.store.restore(before)
		return err
	}
	return nil
}

func (s *rollbackScope) Orders() order.Repository           { return s.orderRepo }
func (s *rollbackScope) Stock() stock.StockRecordRepository { return s.stockRepo }
func (s *rollbackScope) Cart() cart.Repository              { return s.cartRepo }

type memProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type collectingPublisher struct {
	events []shared.DomainEvent
}

func (p *collectingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *collectingPublisher) typesSeen() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type memIdempotencyStore struct {
	keys map[string]bool
	err  error
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

type confirmationMailer struct {
	sent []uuid.UUID
	err  error
}

func (m *confirmationMailer) SendOrderConfirmation(_ context.Context, o *order.Order) error {
	m.sent = append(m.sent, o.ID)
	return m.err
}

// world bundles the fakes a checkout test needs.
type world struct {
	store     *memoryStore
	scope     *rollbackScope
	products  *memProductRepo
	service   *Service
	publisher *collectingPublisher
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := newMemoryStore()
	scope := newRollbackScope(store)
	products := &memProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
	publisher := &collectingPublisher{}

	svc := NewService(scope, products, scope.cartRepo, scope.stockRepo, zap.NewNop())
	svc.SetEventPublisher(publisher)
	svc.retryDelay = time.Millisecond

	return &world{store: store, scope: scope, products: products, service: svc, publisher: publisher}
}

func (w *world) addProduct(t *testing.T, name string, price int64, quantity, threshold int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	w.products.products[id] = &catalog.Product{
		BaseEntity: shared.BaseEntity{ID: id},
		Name:       name,
		SKU:        name,
		Price:      decimal.NewFromInt(price),
	}

	record, err := stock.NewStockRecord(id)
	require.NoError(t, err)
	require.NoError(t, record.SetLevels(quantity, &threshold))
	record.ClearDomainEvents()
	w.store.stocks[id] = record
	return id
}

func (w *world) quantity(productID uuid.UUID) int64 {
	return w.store.stocks[productID].Quantity
}

func shipTo(t *testing.T) valueobject.Address {
	t.Helper()
	addr, err := valueobject.NewAddress("1 Main St", "Springfield", "12345", "US")
	require.NoError(t, err)
	return addr
}

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path starts pending and decrements stock", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)

		resp, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 2}},
			ShippingAddress: shipTo(t),
		})
		require.NoError(t, err)

		assert.Equal(t, order.StatusPending, resp.Status)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(20)), resp.TotalAmount.String())
		assert.Equal(t, int64(6), w.quantity(productID))
		require.Len(t, w.store.orders, 1)
		assert.Contains(t, w.publisher.typesSeen(), order.EventTypeOrderCreated)
		assert.Contains(t, w.publisher.typesSeen(), stock.EventTypeStockDecreased)
	})

	t.Run("payment reference starts the order paid", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		ref := "pay_42"

		resp, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 1}},
			ShippingAddress: shipTo(t),
			PaymentRef:      &ref,
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, resp.Status)
	})

	t.Run("empty items", func(t *testing.T) {
		w := newWorld(t)

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{CustomerID: uuid.New(), ShippingAddress: shipTo(t)})
		require.Error(t, err)
		assert.Equal(t, shared.CodeEmptyCart, shared.ErrorCode(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		w := newWorld(t)

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: uuid.New(), Quantity: 1}},
			ShippingAddress: shipTo(t),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("product without stock record", func(t *testing.T) {
		w := newWorld(t)
		productID := uuid.New()
		w.products.products[productID] = &catalog.Product{
			BaseEntity: shared.BaseEntity{ID: productID},
			Name:       "Ghost",
			Price:      decimal.NewFromInt(5),
		}

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 1}},
			ShippingAddress: shipTo(t),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeNoInventoryRecord, shared.ErrorCode(err))
	})

	t.Run("insufficient stock names the product and leaves it untouched", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 4, 2)

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 10}},
			ShippingAddress: shipTo(t),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "Widget")
		assert.Contains(t, err.Error(), "available 4")
		assert.Equal(t, int64(4), w.quantity(productID))
		assert.Empty(t, w.store.orders)
	})

	t.Run("zero quantity", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 0}},
			ShippingAddress: shipTo(t),
		})
		require.Error(t, err)
		assert.Equal(t, int64(8), w.quantity(productID))
	})

	t.Run("failure mid-transaction leaves no partial state", func(t *testing.T) {
		w := newWorld(t)
		first := w.addProduct(t, "First", 10, 8, 2)
		second := w.addProduct(t, "Second", 10, 8, 2)
		w.store.stockSaveErrFor = second

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID: uuid.New(),
			Items: []ItemRequest{
				{ProductID: first, Quantity: 3},
				{ProductID: second, Quantity: 3},
			},
			ShippingAddress: shipTo(t),
		})
		require.Error(t, err)

		assert.Equal(t, int64(8), w.quantity(first))
		assert.Equal(t, int64(8), w.quantity(second))
		assert.Empty(t, w.store.orders)
		assert.Empty(t, w.publisher.events)
	})

	t.Run("idempotency key rejects replay", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		w.service.SetIdempotencyStore(&memIdempotencyStore{})
		customerID := uuid.New()

		req := PlaceOrderRequest{
			CustomerID:      customerID,
			Items:           []ItemRequest{{ProductID: productID, Quantity: 1}},
			ShippingAddress: shipTo(t),
			IdempotencyKey:  "req-1",
		}
		_, err := w.service.PlaceOrder(ctx, req)
		require.NoError(t, err)

		_, err = w.service.PlaceOrder(ctx, req)
		require.Error(t, err)
		assert.Equal(t, "DUPLICATE_REQUEST", shared.ErrorCode(err))
		assert.Equal(t, int64(7), w.quantity(productID))
	})

	t.Run("idempotency store outage does not block checkout", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		w.service.SetIdempotencyStore(&memIdempotencyStore{err: errors.New("redis down")})

		_, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 1}},
			ShippingAddress: shipTo(t),
			IdempotencyKey:  "req-1",
		})
		require.NoError(t, err)
	})

	t.Run("confirmation failure does not fail the order", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		mailer := &confirmationMailer{err: errors.New("smtp down")}
		w.service.SetMailer(mailer)

		resp, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: 1}},
			ShippingAddress: shipTo(t),
		})
		require.NoError(t, err)
		assert.Len(t, mailer.sent, 1)
		assert.NotNil(t, resp)
	})
}

func TestService_PlaceOrderFromCart(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes the cart", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		customerID := uuid.New()
		line, err := cart.NewLine(customerID, productID, 2)
		require.NoError(t, err)
		require.NoError(t, w.scope.cartRepo.Save(ctx, line))

		resp, err := w.service.PlaceOrderFromCart(ctx, customerID, shipTo(t), nil)
		require.NoError(t, err)

		assert.Equal(t, int64(6), w.quantity(productID))
		assert.Len(t, resp.Lines, 1)
		remaining, err := w.scope.cartRepo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("empty cart", func(t *testing.T) {
		w := newWorld(t)

		_, err := w.service.PlaceOrderFromCart(ctx, uuid.New(), shipTo(t), nil)
		require.Error(t, err)
		assert.Equal(t, shared.CodeEmptyCart, shared.ErrorCode(err))
	})

	t.Run("cart survives a failed checkout", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 1, 0)
		customerID := uuid.New()
		line, err := cart.NewLine(customerID, productID, 5)
		require.NoError(t, err)
		require.NoError(t, w.scope.cartRepo.Save(ctx, line))

		_, err = w.service.PlaceOrderFromCart(ctx, customerID, shipTo(t), nil)
		require.Error(t, err)

		remaining, err := w.scope.cartRepo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

func TestService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	place := func(t *testing.T, w *world, productID uuid.UUID, qty int64) uuid.UUID {
		t.Helper()
		resp, err := w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: qty}},
			ShippingAddress: shipTo(t),
		})
		require.NoError(t, err)
		return resp.ID
	}

	t.Run("restores stock and marks cancelled", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		orderID := place(t, w, productID, 3)
		require.Equal(t, int64(5), w.quantity(productID))

		resp, err := w.service.CancelOrder(ctx, orderID, "ops")
		require.NoError(t, err)

		assert.Equal(t, order.StatusCancelled, resp.Status)
		assert.Equal(t, int64(8), w.quantity(productID))
	})

	t.Run("second cancel fails and restores nothing", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		orderID := place(t, w, productID, 3)

		_, err := w.service.CancelOrder(ctx, orderID, "ops")
		require.NoError(t, err)
		require.Equal(t, int64(8), w.quantity(productID))

		_, err = w.service.CancelOrder(ctx, orderID, "ops")
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
		assert.Equal(t, int64(8), w.quantity(productID))
	})

	t.Run("shipped orders cannot be cancelled", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		orderID := place(t, w, productID, 3)

		o := w.store.orders[orderID]
		require.NoError(t, o.MarkPaid("pay_1"))
		require.NoError(t, o.TransitionTo(order.StatusShipped))
		o.ClearDomainEvents()

		_, err := w.service.CancelOrder(ctx, orderID, "ops")
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
		assert.Equal(t, int64(5), w.quantity(productID))
	})

	t.Run("retries transient conflicts before giving up", func(t *testing.T) {
		w := newWorld(t)
		productID := w.addProduct(t, "Widget", 10, 8, 2)
		orderID := place(t, w, productID, 3)
		w.scope.orderRepo.conflictsLeft = 2

		resp, err := w.service.CancelOrder(ctx, orderID, "ops")
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, resp.Status)
		assert.Equal(t, int64(8), w.quantity(productID))
	})

	t.Run("unknown order", func(t *testing.T) {
		w := newWorld(t)

		_, err := w.service.CancelOrder(ctx, uuid.New(), "ops")
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}

// TestService_LifecycleScenario walks one product through a full day of
// trading: two successful orders, a rejected oversell, and a cancellation
// that brings stock back above the threshold.
func TestService_LifecycleScenario(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	productID := w.addProduct(t, "P", 10, 8, 5)

	placeQty := func(qty int64) (*OrderResponse, error) {
		return w.service.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:      uuid.New(),
			Items:           []ItemRequest{{ProductID: productID, Quantity: qty}},
			ShippingAddress: shipTo(t),
		})
	}
	countType := func(eventType string) int {
		n := 0
		for _, e := range w.publisher.events {
			if e.EventType() == eventType {
				n++
			}
		}
		return n
	}

	// Order A: 8 -> 6, still above the threshold of 5.
	_, err := placeQty(2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), w.quantity(productID))
	assert.Zero(t, countType(stock.EventTypeLowStockDetected))

	// Order B: 6 -> 4, crosses the threshold.
	orderB, err := placeQty(2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), w.quantity(productID))
	assert.Equal(t, 1, countType(stock.EventTypeLowStockDetected))

	// Oversell: 10 requested with 4 on hand fails and changes nothing.
	_, err = placeQty(10)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
	assert.Contains(t, err.Error(), "available 4, requested 10")
	assert.Equal(t, int64(4), w.quantity(productID))

	// Cancelling order B: 4 -> 6, back above the threshold.
	_, err = w.service.CancelOrder(ctx, orderB.ID, "ops")
	require.NoError(t, err)
	assert.Equal(t, int64(6), w.quantity(productID))
	assert.Equal(t, 1, countType(stock.EventTypeStockRecovered))

	// Cancelling order B again is rejected and stock stays at 6.
	_, err = w.service.CancelOrder(ctx, orderB.ID, "ops")
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	assert.Equal(t, int64(6), w.quantity(productID))
}
