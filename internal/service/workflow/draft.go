package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// CreateDraft starts a new draft application against a published standard.
// The certifier on the application is the standard's owner.
func (s *Service) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Application, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if actor.Role != domain.RoleApplicant {
		return nil, fmt.Errorf("only applicants create applications: %w", domain.ErrForbidden)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	std, err := s.standards.GetByID(ctx, input.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if !std.Published {
		return nil, fmt.Errorf("standard %s is not published: %w", std.ID, domain.ErrNotFound)
	}
	if err := checkResponsesBelong(std, input.Responses); err != nil {
		return nil, err
	}

	app := &domain.Application{
		ID:                uuid.New(),
		ApplicantID:       actor.ID,
		CertifierID:       std.CertifierID,
		StandardID:        std.ID,
		Status:            domain.ApplicationStatusDraft,
		CriteriaResponses: input.Responses,
	}
	if app.CriteriaResponses == nil {
		app.CriteriaResponses = map[uuid.UUID]domain.CriteriaResponse{}
	}

	var created *domain.Application
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.applications.Create(txCtx, app)
		if createErr != nil {
			return fmt.Errorf("create application: %w", createErr)
		}

		auditErr := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actor.ID,
			EntityType: domain.EntityTypeApplication,
			EntityID:   created.ID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"standard_id": std.ID.String(),
			},
			CreatedAt: s.now(),
		})
		if auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "draft application created",
		slog.String("application_id", created.ID.String()),
		slog.String("applicant_id", actor.ID.String()),
		slog.String("standard_id", std.ID.String()),
	)

	return created, nil
}

// UpdateDraft replaces the criteria responses of the applicant's own draft.
func (s *Service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (*domain.Application, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	app, err := s.applications.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsApplicant(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if err := checkResponsesBelong(std, input.Responses); err != nil {
		return nil, err
	}

	updated, err := s.applications.UpdateDraftResponses(ctx, app.ID, input.Responses)
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}

	s.log.InfoContext(ctx, "draft responses updated",
		slog.String("application_id", app.ID.String()),
		slog.Int("responses", len(input.Responses)),
	)

	return updated, nil
}

func checkResponsesBelong(std *domain.Standard, responses map[uuid.UUID]domain.CriteriaResponse) error {
	for criterionID := range responses {
		if !std.HasCriterion(criterionID) {
			return domain.NewValidationError(
				"responses."+criterionID.String(),
				"criterion does not belong to the standard",
			)
		}
	}
	return nil
}
