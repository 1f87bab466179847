package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// Service drives order status through the lifecycle state machine. It covers
// the forward transitions; cancellation lives in the checkout service because
// it must restore stock in the same transaction.
type Service struct {
	orderRepo      order.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxAttempts    int
	retryDelay     time.Duration
}

// NewService creates an order service
func NewService(orderRepo order.Repository, logger *zap.Logger) *Service {
	return &Service{
		orderRepo:   orderRepo,
		logger:      logger,
		maxAttempts: checkout.DefaultMaxAttempts,
		retryDelay:  checkout.DefaultRetryDelay,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetOrder returns one order with its lines
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*checkout.OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := checkout.ToOrderResponse(o)
	return &response, nil
}

// ListByCustomer returns a customer's orders, newest first
func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]checkout.OrderResponse, error) {
	orders, err := s.orderRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]checkout.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, checkout.ToOrderResponse(&orders[i]))
	}
	return responses, nil
}

// MarkPaid records an external payment and moves the order to Paid
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentRef string, actor string) (*checkout.OrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(o *order.Order) error {
		return o.MarkPaid(paymentRef)
	})
}

// Ship moves a paid order to Shipped
func (s *Service) Ship(ctx context.Context, orderID uuid.UUID, actor string) (*checkout.OrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(o *order.Order) error {
		return o.TransitionTo(order.StatusShipped)
	})
}

// UpdateStatus applies an arbitrary forward transition. Cancellation is
// rejected here: it must go through the checkout service so stock restitution
// commits with the status change.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.Status, actor string) (*checkout.OrderResponse, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+target.String())
	}
	if target == order.StatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cancellation must go through the cancel operation")
	}
	return s.transition(ctx, orderID, actor, func(o *order.Order) error {
		return o.TransitionTo(target)
	})
}

// transition loads the order, applies mutate and saves with an optimistic
// version check, retrying on stale-version conflicts.
func (s *Service) transition(ctx context.Context, orderID uuid.UUID, actor string, mutate func(*order.Order) error) (*checkout.OrderResponse, error) {
	var updated *order.Order

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var o *order.Order
		o, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		from := o.Status
		if err = mutate(o); err != nil {
			return nil, err
		}
		if o.Status == from {
			// Repeating the current status is a no-op; nothing to persist.
			updated = o
			break
		}

		if err = s.orderRepo.SaveWithLock(ctx, o); err != nil {
			if shared.IsTransientConflict(err) && attempt < s.maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(s.retryDelay * time.Duration(attempt)):
				}
				continue
			}
			return nil, err
		}

		s.logger.Info("order status transition",
			zap.String("order_id", o.ID.String()),
			zap.String("actor", actor),
			zap.String("from", from.String()),
			zap.String("to", o.Status.String()),
			zap.Time("at", time.Now()),
		)

		s.publishDomainEvents(ctx, o)
		updated = o
		break
	}
	if updated == nil {
		return nil, err
	}

	response := checkout.ToOrderResponse(updated)
	return &response, nil
}

func (s *Service) publishDomainEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		o.ClearDomainEvents()
		return
	}
	for _, event := range o.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	o.ClearDomainEvents()
}
