package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// IdempotentHandler wraps an EventHandler so each event is processed at most
// once. The alert handler is wrapped with it: a replayed LowStockDetected
// event must not re-run the fan-out.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	logger  *zap.Logger
}

// NewIdempotentHandler creates an idempotent wrapper around handler
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its ID has been seen before.
// When the store is unreachable the event is processed anyway; duplicate
// processing is preferable to dropped alerts.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := fmt.Sprintf("event:%s:%s", event.EventType(), event.EventID())

	fresh, err := h.store.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL)
	if err != nil {
		h.logger.Warn("idempotency store unavailable, processing without dedup",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return h.handler.Handle(ctx, event)
	}
	if !fresh {
		h.logger.Debug("duplicate event skipped",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return nil
	}

	return h.handler.Handle(ctx, event)
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
