package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one outbox row for the external delivery collaborator.
// Rows are written in the same transaction as the state change they
// announce; delivery is at-least-once and happens outside this service.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Template    NotificationTemplate

	// Payload carries template parameters (application id, certificate
	// number, reason, ...). Stored as JSONB.
	Payload map[string]any

	SentAt    *time.Time
	CreatedAt time.Time
}
