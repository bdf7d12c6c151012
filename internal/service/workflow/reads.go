package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// GetCertificate returns one certificate. Only the applicant and certifier
// of its application may read it; everyone else goes through Verify.
func (s *Service) GetCertificate(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	cert, err := s.certificates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}

	app, err := s.applications.GetByID(ctx, cert.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsApplicant(actor.ID) && !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("certificate %s: %w", cert.ID, domain.ErrForbidden)
	}

	return cert, nil
}

// GetApplicationAudit returns the change history of an application, newest
// first, for its applicant or certifier.
func (s *Service) GetApplicationAudit(ctx context.Context, applicationID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsApplicant(actor.ID) && !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}

	records, err := s.audit.GetByEntity(ctx, domain.EntityTypeApplication, app.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("get audit records: %w", err)
	}

	return records, nil
}
