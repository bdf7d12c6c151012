package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one append-only entry in the workflow audit trail.
type AuditRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	Action     AuditAction

	// Changes holds action-specific detail (old/new status, reason, ...).
	Changes map[string]any

	CreatedAt time.Time
}
