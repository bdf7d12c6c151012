package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// Decide applies the certifier's approve/reject verdict. The status
// transition, the immutable decision record, the audit record and the
// applicant notification land in one transaction; the compare-and-set
// transition guarantees that of two racing decisions exactly one wins.
func (s *Service) Decide(ctx context.Context, input DecideInput) (*domain.Application, error) {
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
	if !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}
	if !app.CanDecide() {
		return nil, fmt.Errorf("application %s in status %s: %w", app.ID, app.Status, domain.ErrInvalidState)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	for criterionID := range input.Assessments {
		if !std.HasCriterion(criterionID) {
			return nil, domain.NewValidationError(
				"assessments."+criterionID.String(),
				"criterion does not belong to the standard",
			)
		}
	}

	now := s.now()
	notes := input.Notes

	transition := domain.ApplicationTransition{
		ID: app.ID,
		ExpectedStatus: []domain.ApplicationStatus{
			domain.ApplicationStatusSubmitted,
			domain.ApplicationStatusUnderReview,
		},
		DecisionNotes: &notes,
	}

	var (
		auditAction domain.AuditAction
		template    domain.NotificationTemplate
	)
	switch input.Action {
	case domain.DecisionActionApprove:
		transition.NewStatus = domain.ApplicationStatusApproved
		transition.ApprovedAt = &now
		auditAction = domain.AuditActionApprove
		template = domain.TemplateApplicationApproved
	case domain.DecisionActionReject:
		transition.NewStatus = domain.ApplicationStatusRejected
		transition.RejectedAt = &now
		auditAction = domain.AuditActionReject
		template = domain.TemplateApplicationRejected
	}

	var decided *domain.Application
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var trErr error
		decided, trErr = s.applications.Transition(txCtx, transition)
		if trErr != nil {
			return fmt.Errorf("decide application: %w", trErr)
		}

		if _, err := s.decisions.Create(txCtx, &domain.ReviewDecision{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			ReviewerID:    actor.ID,
			Action:        input.Action,
			Notes:         input.Notes,
			Assessments:   input.Assessments,
			CreatedAt:     now,
		}); err != nil {
			return fmt.Errorf("create decision record: %w", err)
		}

		if _, err := s.outbox.Enqueue(txCtx, &domain.Notification{
			ID:          uuid.New(),
			RecipientID: app.ApplicantID,
			Template:    template,
			Payload: map[string]any{
				"application_id": app.ID.String(),
				"standard_name":  std.Name,
				"notes":          input.Notes,
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
			Action:     auditAction,
			Changes: map[string]any{
				"status": map[string]any{
					"old": string(app.Status),
					"new": string(transition.NewStatus),
				},
				"notes": input.Notes,
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

	s.log.InfoContext(ctx, "application decided",
		slog.String("application_id", app.ID.String()),
		slog.String("certifier_id", actor.ID.String()),
		slog.String("action", string(input.Action)),
	)

	return decided, nil
}
