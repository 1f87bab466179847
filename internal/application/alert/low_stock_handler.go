package alert

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/stock"
)

// AdminDirectory enumerates the administrator recipients of stock alerts.
// Keeping recipient enumeration behind this interface keeps the transactional
// core decoupled from user management.
type AdminDirectory interface {
	// AdminIDs returns the IDs of all administrators
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Mailer dispatches low-stock alert emails. Failures are logged and
// swallowed; email never gates stock or order outcomes.
type Mailer interface {
	SendLowStockAlert(ctx context.Context, recipient uuid.UUID, payload notification.LowStockPayload) error
}

// LowStockHandler consumes LowStockDetected and StockRecovered events and
// maintains the dedup invariant: for any (recipient, product) pair at most
// one unread low-stock notification exists at a time.
type LowStockHandler struct {
	notificationRepo notification.Repository
	productRepo      catalog.ProductRepository
	admins           AdminDirectory
	mailer           Mailer
	logger           *zap.Logger
}

// NewLowStockHandler creates a handler for stock threshold events
func NewLowStockHandler(notificationRepo notification.Repository, productRepo catalog.ProductRepository, admins AdminDirectory, logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{
		notificationRepo: notificationRepo,
		productRepo:      productRepo,
		admins:           admins,
		logger:           logger,
	}
}

// WithMailer sets the mailer for alert emails
func (h *LowStockHandler) WithMailer(mailer Mailer) *LowStockHandler {
	h.mailer = mailer
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{stock.EventTypeLowStockDetected, stock.EventTypeStockRecovered}
}

// Handle processes a threshold event
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *stock.LowStockDetectedEvent:
		return h.handleDetected(ctx, e)
	case *stock.StockRecoveredEvent:
		return h.handleRecovered(ctx, e)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

// handleDetected creates at most one unread alert per admin recipient.
// An existing unread alert for the pair means the condition was already
// reported and nothing happens.
func (h *LowStockHandler) handleDetected(ctx context.Context, e *stock.LowStockDetectedEvent) error {
	h.logger.Warn("low stock detected",
		zap.String("product_id", e.ProductID.String()),
		zap.Int64("quantity", e.Quantity),
		zap.Int64("threshold", e.Threshold),
	)

	admins, err := h.admins.AdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("list admin recipients: %w", err)
	}

	payload := notification.LowStockPayload{
		ProductID:   e.ProductID,
		ProductName: h.productName(ctx, e.ProductID),
		Quantity:    e.Quantity,
		Threshold:   e.Threshold,
	}

	for _, admin := range admins {
		existing, err := h.notificationRepo.FindUnreadLowStock(ctx, admin, e.ProductID)
		if err != nil && shared.ErrorCode(err) != shared.CodeNotFound {
			return err
		}
		if existing != nil {
			continue
		}

		record, err := notification.NewLowStock(admin, payload)
		if err != nil {
			return err
		}
		// The store arbitrates between concurrent handlers; losing the
		// race means another handler already alerted this pair.
		created, err := h.notificationRepo.CreateUnreadLowStock(ctx, record)
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		if h.mailer != nil {
			if err := h.mailer.SendLowStockAlert(ctx, admin, payload); err != nil {
				h.logger.Error("failed to dispatch low stock alert email",
					zap.String("recipient", admin.String()),
					zap.String("product_id", e.ProductID.String()),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

// handleRecovered retracts unread alerts once stock is back above the
// threshold. Retraction is best-effort.
func (h *LowStockHandler) handleRecovered(ctx context.Context, e *stock.StockRecoveredEvent) error {
	h.logger.Info("stock recovered",
		zap.String("product_id", e.ProductID.String()),
		zap.Int64("quantity", e.Quantity),
		zap.Int64("threshold", e.Threshold),
	)

	if err := h.notificationRepo.DeleteUnreadLowStockForProduct(ctx, e.ProductID); err != nil {
		h.logger.Error("failed to retract low stock alerts",
			zap.String("product_id", e.ProductID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// productName resolves the product name for alert payloads, falling back to
// the raw ID when the catalog lookup fails.
func (h *LowStockHandler) productName(ctx context.Context, productID uuid.UUID) string {
	if h.productRepo == nil {
		return productID.String()
	}
	product, err := h.productRepo.FindByID(ctx, productID)
	if err != nil || product == nil {
		return productID.String()
	}
	return product.Name
}

var _ shared.EventHandler = (*LowStockHandler)(nil)

// StaticAdminDirectory serves a fixed recipient list, typically sourced from
// configuration.
type StaticAdminDirectory struct {
	ids []uuid.UUID
}

// NewStaticAdminDirectory creates a directory over a fixed ID list
func NewStaticAdminDirectory(ids []uuid.UUID) *StaticAdminDirectory {
	return &StaticAdminDirectory{ids: ids}
}

// AdminIDs returns the configured admin IDs
func (d *StaticAdminDirectory) AdminIDs(_ context.Context) ([]uuid.UUID, error) {
	return d.ids, nil
}

var _ AdminDirectory = (*StaticAdminDirectory)(nil)
