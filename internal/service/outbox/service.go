// Package outbox exposes the notification outbox to the delivery
// collaborator. Rows are enqueued transactionally by the workflow commands;
// this service only hands them out and marks them sent. Actual delivery
// (email, webhooks) happens outside this backend.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
)

const (
	DefaultBatchSize = 50
	MaxBatchSize     = 500
)

type notificationRepo interface {
	ListPending(ctx context.Context, limit int) ([]*domain.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// Service provides outbox draining operations.
type Service struct {
	notifications notificationRepo
	log           *slog.Logger

	now func() time.Time
}

// NewService creates a new outbox service.
func NewService(log *slog.Logger, notifications notificationRepo) *Service {
	return &Service{
		notifications: notifications,
		log:           log.With("service", "outbox"),
		now:           time.Now,
	}
}

// ListPending returns unsent notifications, oldest first. A non-positive or
// oversized limit falls back to the default batch size.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > MaxBatchSize {
		limit = DefaultBatchSize
	}

	pending, err := s.notifications.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}

	return pending, nil
}

// MarkSent records the delivery time of a notification. Marking an already
// sent notification is a no-op, so delivery retries stay safe.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}

	if err := s.notifications.MarkSent(ctx, id, s.now()); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	s.log.DebugContext(ctx, "notification marked sent",
		slog.String("notification_id", id.String()),
	)

	return nil
}
