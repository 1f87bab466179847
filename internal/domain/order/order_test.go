package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func testAddress(t *testing.T) valueobject.Address {
	t.Helper()
	addr, err := valueobject.NewAddress("1 Main St", "Springfield", "12345", "US")
	require.NoError(t, err)
	return addr
}

func testLineInputs(t *testing.T) []LineInput {
	t.Helper()
	return []LineInput{
		{
			ProductID:   uuid.New(),
			ProductName: "Widget",
			Quantity:    2,
			UnitPrice:   valueobject.NewMoneyUSD(decimal.NewFromFloat(19.99)),
		},
		{
			ProductID:   uuid.New(),
			ProductName: "Gadget",
			Quantity:    1,
			UnitPrice:   valueobject.NewMoneyUSD(decimal.NewFromFloat(5.50)),
		},
	}
}

func TestNewOrder(t *testing.T) {
	customerID := uuid.New()

	t.Run("creates pending order without payment reference", func(t *testing.T) {
		o, err := NewOrder(customerID, testAddress(t), nil, testLineInputs(t))

		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, customerID, o.CustomerID)
		assert.Len(t, o.Lines, 2)
	})

	t.Run("creates paid order with payment reference", func(t *testing.T) {
		ref := "pay_123"
		o, err := NewOrder(customerID, testAddress(t), &ref, testLineInputs(t))

		require.NoError(t, err)
		assert.Equal(t, StatusPaid, o.Status)
		require.NotNil(t, o.PaymentRef)
		assert.Equal(t, "pay_123", *o.PaymentRef)
	})

	t.Run("total equals sum of price times quantity", func(t *testing.T) {
		o, err := NewOrder(customerID, testAddress(t), nil, testLineInputs(t))

		require.NoError(t, err)
		// 2 * 19.99 + 1 * 5.50
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromFloat(45.48)),
			"total was %s", o.TotalAmount)
	})

	t.Run("fails without lines", func(t *testing.T) {
		o, err := NewOrder(customerID, testAddress(t), nil, nil)

		require.Error(t, err)
		assert.Nil(t, o)
	})

	t.Run("fails with nil customer", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, testAddress(t), nil, testLineInputs(t))
		require.Error(t, err)
	})

	t.Run("fails with zero address", func(t *testing.T) {
		_, err := NewOrder(customerID, valueobject.Address{}, nil, testLineInputs(t))
		require.Error(t, err)
	})

	t.Run("fails with non-positive line quantity", func(t *testing.T) {
		inputs := testLineInputs(t)
		inputs[0].Quantity = 0
		_, err := NewOrder(customerID, testAddress(t), nil, inputs)
		require.Error(t, err)
	})

	t.Run("emits created event", func(t *testing.T) {
		o, err := NewOrder(customerID, testAddress(t), nil, testLineInputs(t))

		require.NoError(t, err)
		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	allStatuses := []Status{StatusPending, StatusPaid, StatusShipped, StatusCancelled}
	allowed := map[Status][]Status{
		StatusPending:   {StatusPaid, StatusCancelled},
		StatusPaid:      {StatusShipped, StatusCancelled},
		StatusShipped:   {},
		StatusCancelled: {},
	}

	newOrderInStatus := func(t *testing.T, s Status) *Order {
		o, err := NewOrder(uuid.New(), testAddress(t), nil, testLineInputs(t))
		require.NoError(t, err)
		o.Status = s
		o.ClearDomainEvents()
		return o
	}

	t.Run("every pair outside the table is rejected and leaves status unchanged", func(t *testing.T) {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				if from == to {
					continue
				}
				legal := false
				for _, a := range allowed[from] {
					if a == to {
						legal = true
					}
				}
				if legal {
					continue
				}

				o := newOrderInStatus(t, from)
				err := o.TransitionTo(to)

				require.Error(t, err, "%s -> %s should be rejected", from, to)
				assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
				assert.Contains(t, err.Error(), from.String())
				assert.Contains(t, err.Error(), to.String())
				assert.Equal(t, from, o.Status)
			}
		}
	})

	t.Run("every pair inside the table is accepted", func(t *testing.T) {
		for from, targets := range allowed {
			for _, to := range targets {
				o := newOrderInStatus(t, from)

				require.NoError(t, o.TransitionTo(to))
				assert.Equal(t, to, o.Status)

				events := o.GetDomainEvents()
				require.Len(t, events, 1)
				assert.Equal(t, EventTypeOrderStatusChanged, events[0].EventType())
			}
		}
	})

	t.Run("same-status transition is an idempotent no-op", func(t *testing.T) {
		for _, s := range allStatuses {
			o := newOrderInStatus(t, s)
			version := o.Version

			require.NoError(t, o.TransitionTo(s))
			assert.Equal(t, s, o.Status)
			assert.Equal(t, version, o.Version)
			assert.Empty(t, o.GetDomainEvents())
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		o := newOrderInStatus(t, StatusPending)
		require.Error(t, o.TransitionTo(Status("SHREDDED")))
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("cancels pending order", func(t *testing.T) {
		o, err := NewOrder(uuid.New(), testAddress(t), nil, testLineInputs(t))
		require.NoError(t, err)

		require.NoError(t, o.Cancel())
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("cancels paid order", func(t *testing.T) {
		ref := "pay_456"
		o, err := NewOrder(uuid.New(), testAddress(t), &ref, testLineInputs(t))
		require.NoError(t, err)

		require.NoError(t, o.Cancel())
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("second cancel returns InvalidTransition", func(t *testing.T) {
		o, err := NewOrder(uuid.New(), testAddress(t), nil, testLineInputs(t))
		require.NoError(t, err)
		require.NoError(t, o.Cancel())

		err = o.Cancel()

		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("shipped order cannot be cancelled", func(t *testing.T) {
		o, err := NewOrder(uuid.New(), testAddress(t), nil, testLineInputs(t))
		require.NoError(t, err)
		o.Status = StatusShipped

		err = o.Cancel()

		require.Error(t, err)
		assert.Equal(t, StatusShipped, o.Status)
	})
}

func TestOrder_MarkPaid(t *testing.T) {
	o, err := NewOrder(uuid.New(), testAddress(t), nil, testLineInputs(t))
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid("pay_789"))
	assert.Equal(t, StatusPaid, o.Status)
	require.NotNil(t, o.PaymentRef)
	assert.Equal(t, "pay_789", *o.PaymentRef)
}

func TestLine_Amount(t *testing.T) {
	line, err := NewLine(uuid.New(), uuid.New(), "Widget", 3, valueobject.NewMoneyUSD(decimal.NewFromFloat(2.50)))
	require.NoError(t, err)

	assert.True(t, line.Amount().Equal(decimal.NewFromFloat(7.50)))
}
