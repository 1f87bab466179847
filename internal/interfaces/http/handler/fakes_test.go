package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
)

type mockProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (m *mockProductRepo) add(name, price string) *catalog.Product {
	p := &catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		SKU:        "SKU-" + name,
		Price:      decimal.RequireFromString(price),
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var result []catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func stockNewRecord(productID uuid.UUID, quantity, threshold int64) (*stock.StockRecord, error) {
	record, err := stock.NewStockRecord(productID)
	if err != nil {
		return nil, err
	}
	if err := record.SetLevels(quantity, &threshold); err != nil {
		return nil, err
	}
	record.ClearDomainEvents()
	return record, nil
}

type mockStockRepo struct {
	records map[uuid.UUID]*stock.StockRecord // keyed by product ID
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{records: make(map[uuid.UUID]*stock.StockRecord)}
}

func (m *mockStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	if r, ok := m.records[productID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockStockRepo) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	return m.FindByProduct(ctx, productID)
}

func (m *mockStockRepo) FindByProducts(_ context.Context, productIDs []uuid.UUID) ([]stock.StockRecord, error) {
	var result []stock.StockRecord
	for _, id := range productIDs {
		if r, ok := m.records[id]; ok {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockStockRepo) FindLowStock(_ context.Context) ([]stock.StockRecord, error) {
	var result []stock.StockRecord
	for _, r := range m.records {
		if r.IsLowStock() {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockStockRepo) Save(_ context.Context, record *stock.StockRecord) error {
	copied := *record
	m.records[record.ProductID] = &copied
	return nil
}

func (m *mockStockRepo) SaveWithLock(ctx context.Context, record *stock.StockRecord) error {
	return m.Save(ctx, record)
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockOrderRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]order.Order, error) {
	var result []order.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockOrderRepo) Save(_ context.Context, o *order.Order) error {
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

func (m *mockOrderRepo) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Save(ctx, o)
}

func (m *mockOrderRepo) CountByStatus(_ context.Context, status order.Status) (int64, error) {
	var count int64
	for _, o := range m.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockOrderRepo) SumTotalByStatuses(_ context.Context, statuses []order.Status) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range m.orders {
		for _, s := range statuses {
			if o.Status == s {
				total = total.Add(o.TotalAmount)
			}
		}
	}
	return total, nil
}

type mockCartRepo struct {
	lines map[uuid.UUID][]cart.Line // keyed by customer ID
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{lines: make(map[uuid.UUID][]cart.Line)}
}

func (m *mockCartRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]cart.Line, error) {
	return m.lines[customerID], nil
}

func (m *mockCartRepo) Save(_ context.Context, line *cart.Line) error {
	m.lines[line.CustomerID] = append(m.lines[line.CustomerID], *line)
	return nil
}

func (m *mockCartRepo) DeleteByCustomer(_ context.Context, customerID uuid.UUID) error {
	delete(m.lines, customerID)
	return nil
}

type mockNotificationRepo struct {
	records map[uuid.UUID]*notification.Record
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{records: make(map[uuid.UUID]*notification.Record)}
}

func (m *mockNotificationRepo) FindByID(_ context.Context, id uuid.UUID) (*notification.Record, error) {
	if r, ok := m.records[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockNotificationRepo) FindByRecipient(_ context.Context, recipient uuid.UUID, unreadOnly bool) ([]notification.Record, error) {
	var result []notification.Record
	for _, r := range m.records {
		if r.Recipient != recipient {
			continue
		}
		if unreadOnly && r.IsRead() {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockNotificationRepo) FindUnreadLowStock(_ context.Context, recipient, productID uuid.UUID) (*notification.Record, error) {
	for _, r := range m.records {
		if r.Recipient == recipient && r.ProductID != nil && *r.ProductID == productID &&
			r.Kind == notification.KindLowStock && !r.IsRead() {
			copied := *r
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockNotificationRepo) CreateUnreadLowStock(ctx context.Context, record *notification.Record) (bool, error) {
	if existing, _ := m.FindUnreadLowStock(ctx, record.Recipient, *record.ProductID); existing != nil {
		return false, nil
	}
	copied := *record
	m.records[record.ID] = &copied
	return true, nil
}

func (m *mockNotificationRepo) DeleteUnreadLowStockForProduct(_ context.Context, productID uuid.UUID) error {
	for id, r := range m.records {
		if r.ProductID != nil && *r.ProductID == productID && r.Kind == notification.KindLowStock && !r.IsRead() {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *mockNotificationRepo) Save(_ context.Context, record *notification.Record) error {
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, recipient uuid.UUID) error {
	for _, r := range m.records {
		if r.Recipient == recipient && !r.IsRead() {
			r.MarkRead()
		}
	}
	return nil
}

var (
	_ catalog.ProductRepository   = (*mockProductRepo)(nil)
	_ stock.StockRecordRepository = (*mockStockRepo)(nil)
	_ order.Repository            = (*mockOrderRepo)(nil)
	_ cart.Repository             = (*mockCartRepo)(nil)
	_ notification.Repository     = (*mockNotificationRepo)(nil)
)
