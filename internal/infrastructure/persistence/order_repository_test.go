package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func testShippingAddress(t *testing.T) valueobject.Address {
	t.Helper()

	addr, err := valueobject.NewAddress("1 Main St", "Springfield", "12345", "US")
	require.NoError(t, err)
	return addr
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, paymentRef *string, prices ...string) *order.Order {
	t.Helper()

	inputs := make([]order.LineInput, 0, len(prices))
	for _, p := range prices {
		price, err := decimal.NewFromString(p)
		require.NoError(t, err)
		inputs = append(inputs, order.LineInput{
			ProductID:   uuid.New(),
			ProductName: "Widget",
			Quantity:    1,
			UnitPrice:   valueobject.NewMoneyUSD(price),
		})
	}

	o, err := order.NewOrder(customerID, testShippingAddress(t), paymentRef, inputs)
	require.NoError(t, err)
	o.ClearDomainEvents()
	require.NoError(t, NewGormOrderRepository(db).Save(context.Background(), o))
	return o
}

func TestGormOrderRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	t.Run("find by id preloads lines", func(t *testing.T) {
		o := seedOrder(t, db, uuid.New(), nil, "10.00", "25.50")

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, found.Status)
		assert.Len(t, found.Lines, 2)
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("35.50")))
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find by customer returns newest first", func(t *testing.T) {
		customerID := uuid.New()
		older := seedOrder(t, db, customerID, nil, "10.00")
		older.CreatedAt = time.Now().Add(-time.Hour)
		require.NoError(t, repo.Save(ctx, older))
		newer := seedOrder(t, db, customerID, nil, "20.00")
		seedOrder(t, db, uuid.New(), nil, "99.00")

		orders, err := repo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, newer.ID, orders[0].ID)
		assert.Equal(t, older.ID, orders[1].ID)
		assert.Len(t, orders[0].Lines, 1)
	})

	t.Run("save with lock persists a status change", func(t *testing.T) {
		o := seedOrder(t, db, uuid.New(), nil, "10.00")

		require.NoError(t, o.MarkPaid("pay-123"))
		require.NoError(t, repo.SaveWithLock(ctx, o))

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, found.Status)
		require.NotNil(t, found.PaymentRef)
		assert.Equal(t, "pay-123", *found.PaymentRef)
		assert.Equal(t, o.Version, found.Version)
	})

	t.Run("save with lock on stale version reports transient conflict", func(t *testing.T) {
		o := seedOrder(t, db, uuid.New(), nil, "10.00")

		o.Version += 2
		err := repo.SaveWithLock(ctx, o)
		assert.ErrorIs(t, err, shared.ErrTransientConflict)

		found, findErr := repo.FindByID(ctx, o.ID)
		require.NoError(t, findErr)
		assert.Equal(t, order.StatusPending, found.Status)
	})
}

func TestGormOrderRepository_Aggregates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	paymentRef := "pay-1"
	seedOrder(t, db, uuid.New(), nil, "10.00")
	paid := seedOrder(t, db, uuid.New(), &paymentRef, "20.00")
	shipped := seedOrder(t, db, uuid.New(), &paymentRef, "30.00")
	require.NoError(t, shipped.TransitionTo(order.StatusShipped))
	require.NoError(t, repo.SaveWithLock(ctx, shipped))
	_ = paid

	t.Run("count by status", func(t *testing.T) {
		pending, err := repo.CountByStatus(ctx, order.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)

		cancelled, err := repo.CountByStatus(ctx, order.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, int64(0), cancelled)
	})

	t.Run("sum total over statuses", func(t *testing.T) {
		total, err := repo.SumTotalByStatuses(ctx, []order.Status{order.StatusPaid, order.StatusShipped})
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("50")), "got %s", total)
	})

	t.Run("sum with no matching orders is zero", func(t *testing.T) {
		total, err := repo.SumTotalByStatuses(ctx, []order.Status{order.StatusCancelled})
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("sum with no statuses is zero", func(t *testing.T) {
		total, err := repo.SumTotalByStatuses(ctx, nil)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}
