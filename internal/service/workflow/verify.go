package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attestly/certify-backend/internal/domain"
)

// VerificationResult is the public snapshot shown to anyone holding a
// verification code. It never exposes internal identifiers beyond the
// certificate number itself.
type VerificationResult struct {
	CertificateNumber string
	Status            domain.CertificateStatus

	StandardName string
	HolderName   string

	IssuedAt  time.Time
	ExpiresAt time.Time

	RevokedAt        *time.Time
	RevocationReason *string
}

// Verify resolves a verification code to the public certificate snapshot.
// No authentication: this is the endpoint behind the QR code on the printed
// certificate. The returned status is the effective one, so an expired but
// unrevoked certificate reports EXPIRED.
func (s *Service) Verify(ctx context.Context, code string) (*VerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "required")
	}

	cert, err := s.certificates.GetByVerificationCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup certificate: %w", err)
	}

	app, err := s.applications.GetByID(ctx, cert.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}

	holder, err := s.accounts.GetByID(ctx, app.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("get holder account: %w", err)
	}

	return &VerificationResult{
		CertificateNumber: cert.CertificateNumber,
		Status:            cert.EffectiveStatus(s.now()),
		StandardName:      std.Name,
		HolderName:        holder.OrgName,
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		RevokedAt:         cert.RevokedAt,
		RevocationReason:  cert.RevocationReason,
	}, nil
}
