package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// BeginReview moves a SUBMITTED application to UNDER_REVIEW. Calling it on
// an application already under review is a no-op returning current state,
// so a certifier opening the review twice does not fail.
func (s *Service) BeginReview(ctx context.Context, input BeginReviewInput) (*domain.Application, error) {
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

	if app.Status == domain.ApplicationStatusUnderReview {
		return app, nil
	}

	reviewed, err := s.beginReviewTx(ctx, actor.ID, app.ID)
	if err != nil {
		// A concurrent BeginReview may have won the CAS; that still counts
		// as success for the idempotent contract.
		if errors.Is(err, domain.ErrInvalidState) {
			current, getErr := s.applications.GetByID(ctx, app.ID)
			if getErr == nil && current.Status == domain.ApplicationStatusUnderReview {
				return current, nil
			}
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "review started",
		slog.String("application_id", app.ID.String()),
		slog.String("certifier_id", actor.ID.String()),
	)

	return reviewed, nil
}

// beginReviewTx performs the SUBMITTED -> UNDER_REVIEW transition with its
// audit record. It is also called implicitly when a certifier's first ledger
// write lands on a SUBMITTED application.
func (s *Service) beginReviewTx(ctx context.Context, actorID, applicationID uuid.UUID) (*domain.Application, error) {
	now := s.now()

	var reviewed *domain.Application
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var trErr error
		reviewed, trErr = s.applications.Transition(txCtx, domain.ApplicationTransition{
			ID:             applicationID,
			ExpectedStatus: []domain.ApplicationStatus{domain.ApplicationStatusSubmitted},
			NewStatus:      domain.ApplicationStatusUnderReview,
			ReviewedAt:     &now,
		})
		if trErr != nil {
			return fmt.Errorf("begin review: %w", trErr)
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID,
			EntityType: domain.EntityTypeApplication,
			EntityID:   applicationID,
			Action:     domain.AuditActionBeginReview,
			Changes: map[string]any{
				"status": map[string]any{
					"old": string(domain.ApplicationStatusSubmitted),
					"new": string(domain.ApplicationStatusUnderReview),
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

	return reviewed, nil
}
