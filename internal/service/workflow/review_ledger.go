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

// PostComment appends a discussion message to a criterion's review thread.
// A certifier commenting on a still-SUBMITTED application implicitly starts
// the review.
func (s *Service) PostComment(ctx context.Context, input PostCommentInput) (*domain.ReviewEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	body := input.Body
	return s.appendEntry(ctx, input.ApplicationID, input.CriterionID, func(entry *domain.ReviewEntry) {
		entry.Kind = domain.ReviewEntryKindComment
		entry.Body = &body
	}, domain.AuditActionComment)
}

// AttachFile appends an evidence file reference to a criterion's review
// thread. Like comments, a certifier's attachment implicitly starts the
// review on a SUBMITTED application.
func (s *Service) AttachFile(ctx context.Context, input AttachFileInput) (*domain.ReviewEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	ref := input.FileRef
	return s.appendEntry(ctx, input.ApplicationID, input.CriterionID, func(entry *domain.ReviewEntry) {
		entry.Kind = domain.ReviewEntryKindFile
		entry.FileRef = &ref
	}, domain.AuditActionAttach)
}

func (s *Service) appendEntry(ctx context.Context, applicationID, criterionID uuid.UUID, fill func(*domain.ReviewEntry), action domain.AuditAction) (*domain.ReviewEntry, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	var authorRole domain.Role
	switch {
	case app.IsApplicant(actor.ID):
		authorRole = domain.RoleApplicant
	case app.IsCertifier(actor.ID):
		authorRole = domain.RoleCertifier
	default:
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}

	if !app.AcceptsReviewEntries() {
		return nil, fmt.Errorf("application %s in status %s: %w", app.ID, app.Status, domain.ErrInvalidState)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if !std.HasCriterion(criterionID) {
		return nil, domain.NewValidationError("criterion_id", "criterion does not belong to the standard")
	}

	// A certifier engaging with a freshly submitted application starts the
	// review as part of the same write.
	if authorRole == domain.RoleCertifier && app.Status == domain.ApplicationStatusSubmitted {
		if _, err := s.beginReviewTx(ctx, actor.ID, app.ID); err != nil && !errors.Is(err, domain.ErrInvalidState) {
			return nil, err
		}
	}

	now := s.now()
	entry := &domain.ReviewEntry{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		CriterionID:   criterionID,
		AuthorID:      actor.ID,
		AuthorRole:    authorRole,
		CreatedAt:     now,
	}
	fill(entry)

	var created *domain.ReviewEntry
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var appendErr error
		created, appendErr = s.entries.Append(txCtx, entry)
		if appendErr != nil {
			return fmt.Errorf("append review entry: %w", appendErr)
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actor.ID,
			EntityType: domain.EntityTypeReviewEntry,
			EntityID:   created.ID,
			Action:     action,
			Changes: map[string]any{
				"application_id": app.ID.String(),
				"criterion_id":   criterionID.String(),
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

	s.log.InfoContext(ctx, "review entry appended",
		slog.String("application_id", app.ID.String()),
		slog.String("criterion_id", criterionID.String()),
		slog.String("kind", string(created.Kind)),
		slog.String("author_role", string(authorRole)),
	)

	return created, nil
}

// ReviewContext is everything a reviewer or applicant sees on the review
// screen: the application, its standard with criteria, the per-criterion
// threads, and the decision record once one exists.
type ReviewContext struct {
	Application *domain.Application
	Standard    *domain.Standard
	Threads     []domain.CriterionThread
	Decision    *domain.ReviewDecision
}

// GetReviewContext loads the full review state of an application. Only the
// applicant and the assigned certifier may see it. The certifier's first
// read of a SUBMITTED application starts the review before the data is
// returned.
func (s *Service) GetReviewContext(ctx context.Context, applicationID uuid.UUID) (*ReviewContext, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if applicationID == uuid.Nil {
		return nil, domain.NewValidationError("application_id", "required")
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsApplicant(actor.ID) && !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}

	if app.IsCertifier(actor.ID) && app.Status == domain.ApplicationStatusSubmitted {
		reviewed, err := s.beginReviewTx(ctx, actor.ID, app.ID)
		if err != nil && !errors.Is(err, domain.ErrInvalidState) {
			return nil, err
		}
		if reviewed != nil {
			app = reviewed
		}
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}

	threads, err := s.entries.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("list review entries: %w", err)
	}

	decision, err := s.decisions.GetByApplicationID(ctx, app.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get decision: %w", err)
	}

	return &ReviewContext{
		Application: app,
		Standard:    std,
		Threads:     threads,
		Decision:    decision,
	}, nil
}
