package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// ListApplications returns the actor's applications: their own for an
// applicant, their assigned ones for a certifier. The role scoping is
// forced server-side, callers cannot widen it.
func (s *Service) ListApplications(ctx context.Context, input ListApplicationsInput) ([]*domain.Application, int, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, 0, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, 0, err
	}

	filter := domain.ApplicationFilter{
		StandardID: input.StandardID,
		Status:     input.Status,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}

	switch actor.Role {
	case domain.RoleApplicant:
		filter.ApplicantID = &actor.ID
	case domain.RoleCertifier:
		filter.CertifierID = &actor.ID
	default:
		return nil, 0, domain.ErrForbidden
	}

	apps, total, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	return apps, total, nil
}

// GetApplication returns one application. Only its applicant and certifier
// may read it.
func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsApplicant(actor.ID) && !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}

	return app, nil
}
