package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Certificate is the verifiable artifact produced from an approved
// application. One certificate per application, never deleted.
//
// Status only ever stores ACTIVE or REVOKED. EXPIRED is derived at read
// time from ExpiresAt, see EffectiveStatus.
type Certificate struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID

	// CertificateNumber is human-readable and globally unique,
	// e.g. "CERT-2026-08-0042".
	CertificateNumber string

	// VerificationCode is the opaque public lookup key. Stored uppercase,
	// matched case-insensitively.
	VerificationCode string

	Status CertificateStatus

	IssuedAt  time.Time
	ExpiresAt time.Time

	RevokedAt        *time.Time
	RevocationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CertificateNumber is the structured form of a certificate number. The
// rendered string is what appears on the certificate; the parts are stored
// alongside it so sequence allocation stays a plain query.
type CertificateNumber struct {
	Rendered string

	Prefix string
	Year   int
	Month  int
	Seq    int
}

// EffectiveStatus derives the presentable status at the given time.
// Revocation takes precedence over expiry in all displays.
func (c *Certificate) EffectiveStatus(now time.Time) CertificateStatus {
	if c.Status == CertificateStatusRevoked {
		return CertificateStatusRevoked
	}
	if !c.ExpiresAt.After(now) {
		return CertificateStatusExpired
	}
	return CertificateStatusActive
}

// IsExpired reports whether the certificate has passed its expiry,
// regardless of revocation.
func (c *Certificate) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Revoke marks the certificate revoked with the given reason. A certificate
// past its expiry may still be revoked; an already revoked one may not,
// so the audit trail records a single revocation event.
func (c *Certificate) Revoke(reason string, now time.Time) error {
	if c.Status == CertificateStatusRevoked {
		return fmt.Errorf("revoke from %s: %w", c.Status, ErrInvalidState)
	}
	c.Status = CertificateStatusRevoked
	c.RevokedAt = &now
	c.RevocationReason = &reason
	return nil
}
