package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// Submit moves the applicant's draft to SUBMITTED. Every criterion of the
// standard must have a response; the responses freeze on submission.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*domain.Application, error) {
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
	if app.Status != domain.ApplicationStatusDraft {
		return nil, fmt.Errorf("application %s is %s: %w", app.ID, app.Status, domain.ErrInvalidState)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if err := checkResponsesComplete(std, app.CriteriaResponses); err != nil {
		return nil, err
	}

	now := s.now()

	var submitted *domain.Application
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var trErr error
		submitted, trErr = s.applications.Transition(txCtx, domain.ApplicationTransition{
			ID:             app.ID,
			ExpectedStatus: []domain.ApplicationStatus{domain.ApplicationStatusDraft},
			NewStatus:      domain.ApplicationStatusSubmitted,
			SubmittedAt:    &now,
		})
		if trErr != nil {
			return fmt.Errorf("submit application: %w", trErr)
		}

		if _, err := s.outbox.Enqueue(txCtx, &domain.Notification{
			ID:          uuid.New(),
			RecipientID: app.CertifierID,
			Template:    domain.TemplateApplicationSubmitted,
			Payload: map[string]any{
				"application_id": app.ID.String(),
				"standard_name":  std.Name,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actor.ID,
			EntityType: domain.EntityTypeApplication,
			EntityID:   app.ID,
			Action:     domain.AuditActionSubmit,
			Changes: map[string]any{
				"status": map[string]any{
					"old": string(domain.ApplicationStatusDraft),
					"new": string(domain.ApplicationStatusSubmitted),
				},
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "application submitted",
		slog.String("application_id", app.ID.String()),
		slog.String("applicant_id", actor.ID.String()),
	)

	return submitted, nil
}

// checkResponsesComplete requires a response for every criterion of the
// standard before submission.
func checkResponsesComplete(std *domain.Standard, responses map[uuid.UUID]domain.CriteriaResponse) error {
	var errs []domain.FieldError
	for _, c := range std.Criteria {
		if _, ok := responses[c.ID]; !ok {
			errs = append(errs, domain.FieldError{
				Field:   "responses." + c.ID.String(),
				Message: "criterion not answered",
			})
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
