package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/alert"
	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
)

// Mailer is the union of the outbound mail surfaces the application uses
type Mailer interface {
	checkout.Mailer
	alert.Mailer
}

// LogMailer writes mail as structured log lines instead of sending it.
// It is the default transport until a real provider is configured, and the
// transport used in development.
type LogMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer creates a logging mailer
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger.Named("mailer")}
}

// SendOrderConfirmation logs an order confirmation message
func (m *LogMailer) SendOrderConfirmation(_ context.Context, o *order.Order) error {
	m.logger.Info("order confirmation mail",
		zap.String("from", m.from),
		zap.String("customer_id", o.CustomerID.String()),
		zap.String("order_id", o.ID.String()),
		zap.String("status", o.Status.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)),
	)
	return nil
}

// SendLowStockAlert logs a low-stock alert message
func (m *LogMailer) SendLowStockAlert(_ context.Context, recipient uuid.UUID, payload notification.LowStockPayload) error {
	m.logger.Warn("low stock alert mail",
		zap.String("from", m.from),
		zap.String("recipient", recipient.String()),
		zap.String("product", payload.ProductName),
		zap.Int64("quantity", payload.Quantity),
		zap.Int64("threshold", payload.Threshold),
	)
	return nil
}

var _ Mailer = (*LogMailer)(nil)

// AsyncMailer decorates a Mailer so sends happen off the caller's goroutine.
// Checkout and alerting treat mail as fire-and-forget; this decorator makes
// that literal without changing either call site. Failures are logged.
type AsyncMailer struct {
	inner   Mailer
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncMailer creates an async decorator around inner
func NewAsyncMailer(inner Mailer, logger *zap.Logger) *AsyncMailer {
	return &AsyncMailer{
		inner:   inner,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// SendOrderConfirmation dispatches the confirmation in the background
func (m *AsyncMailer) SendOrderConfirmation(_ context.Context, o *order.Order) error {
	m.dispatch(func(ctx context.Context) error {
		return m.inner.SendOrderConfirmation(ctx, o)
	})
	return nil
}

// SendLowStockAlert dispatches the alert in the background
func (m *AsyncMailer) SendLowStockAlert(_ context.Context, recipient uuid.UUID, payload notification.LowStockPayload) error {
	m.dispatch(func(ctx context.Context) error {
		return m.inner.SendLowStockAlert(ctx, recipient, payload)
	})
	return nil
}

// Wait blocks until all in-flight sends finish; used on shutdown
func (m *AsyncMailer) Wait() {
	m.wg.Wait()
}

func (m *AsyncMailer) dispatch(send func(ctx context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		// The request context is gone by the time the send runs.
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			m.logger.Error("background mail send failed", zap.Error(err))
		}
	}()
}

var _ Mailer = (*AsyncMailer)(nil)
