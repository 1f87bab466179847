package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/notification"
)

// RecordResponse is the API view of a notification
type RecordResponse struct {
	ID        uuid.UUID         `json:"id"`
	Kind      notification.Kind `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Payload   string            `json:"payload"`
	ProductID *uuid.UUID        `json:"product_id,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToRecordResponse converts a notification record to its API view
func ToRecordResponse(r *notification.Record) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		Kind:      r.Kind,
		Title:     r.Title,
		Message:   r.Message,
		Payload:   r.Payload,
		ProductID: r.ProductID,
		ReadAt:    r.ReadAt,
		CreatedAt: r.CreatedAt,
	}
}

// Service serves a recipient's notification feed. Reading never deletes:
// MarkRead only stamps ReadAt, which is also what releases the low-stock
// dedup slot for the product.
type Service struct {
	repo   notification.Repository
	logger *zap.Logger
}

// NewService creates a notification service
func NewService(repo notification.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns a recipient's notifications, newest first
func (s *Service) List(ctx context.Context, recipient uuid.UUID, unreadOnly bool) ([]RecordResponse, error) {
	records, err := s.repo.FindByRecipient(ctx, recipient, unreadOnly)
	if err != nil {
		return nil, err
	}
	responses := make([]RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToRecordResponse(&records[i]))
	}
	return responses, nil
}

// MarkRead stamps one notification as read. Marking an already-read record
// again changes nothing.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (*RecordResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !record.IsRead() {
		record.MarkRead()
		if err := s.repo.Save(ctx, record); err != nil {
			return nil, err
		}
	}

	response := ToRecordResponse(record)
	return &response, nil
}

// MarkAllRead stamps every unread notification for a recipient
func (s *Service) MarkAllRead(ctx context.Context, recipient uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, recipient)
}
