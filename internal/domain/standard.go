package domain

import (
	"time"

	"github.com/google/uuid"
)

// Standard is a certification scheme published by a certifier.
type Standard struct {
	ID          uuid.UUID
	CertifierID uuid.UUID
	Name        string
	Description string

	// ValidityMonths determines certificate expiry: expires_at = issued_at
	// plus this many months.
	ValidityMonths int

	// PriceCents is informational; payment processing happens elsewhere.
	PriceCents int64

	Published bool

	Criteria []Criterion

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Criterion is one checklist requirement within a standard.
type Criterion struct {
	ID          uuid.UUID
	StandardID  uuid.UUID
	Title       string
	Description string
	Position    int
}

// HasCriterion reports whether the given criterion belongs to this standard.
func (s *Standard) HasCriterion(criterionID uuid.UUID) bool {
	for _, c := range s.Criteria {
		if c.ID == criterionID {
			return true
		}
	}
	return false
}
