package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered party: an applicant organization or a
// certification body. Authentication itself lives in an external identity
// provider; this service only stores what the workflow and the public
// verification snapshot need.
type Account struct {
	ID    uuid.UUID
	Role  Role
	Email string

	// OrgName is the organization's display name, shown on the public
	// certificate verification page.
	OrgName string

	CreatedAt time.Time
	UpdatedAt time.Time
}
