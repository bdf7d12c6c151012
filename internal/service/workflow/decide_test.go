package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
)

func TestService_Decide_Approve(t *testing.T) {
	t.Parallel()

	applicantID := uuid.New()
	certifierID := uuid.New()
	std := testStandard(certifierID, 2)
	app := testApplication(applicantID, certifierID, std, domain.ApplicationStatusUnderReview)

	d := newDeps()
	d.applications.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Application, error) {
		return app, nil
	}
	d.standards.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
		return std, nil
	}

	var gotTransition domain.ApplicationTransition
	d.applications.TransitionFunc = func(_ context.Context, params domain.ApplicationTransition) (*domain.Application, error) {
		gotTransition = params
		decided := *app
		decided.Status = params.NewStatus
		decided.ApprovedAt = params.ApprovedAt
		decided.DecisionNotes = params.DecisionNotes
		return &decided, nil
	}

	var savedDecision *domain.ReviewDecision
	d.decisions.CreateFunc = func(_ context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error) {
		savedDecision = dec
		return dec, nil
	}

	var notified *domain.Notification
	d.outbox.EnqueueFunc = func(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
		notified = n
		return n, nil
	}

	svc := newTestService(t, d)
	got, err := svc.Decide(actorCtx(certifierID, domain.RoleCertifier), DecideInput{
		ApplicationID: app.ID,
		Action:        domain.DecisionActionApprove,
		Notes:         "all criteria satisfied",
		Assessments: map[uuid.UUID]domain.CriterionAssessment{
			std.Criteria[0].ID: {Meets: domain.AssessmentLevelYes},
		},
	})
	if err != nil {
		t.Fatalf("Decide: unexpected error: %v", err)
	}

	if got.Status != domain.ApplicationStatusApproved {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
	if gotTransition.ApprovedAt == nil || gotTransition.RejectedAt != nil {
		t.Error("approval must stamp ApprovedAt and leave RejectedAt nil")
	}
	if len(gotTransition.ExpectedStatus) != 2 {
		t.Errorf("transition must expect SUBMITTED and UNDER_REVIEW, got %v", gotTransition.ExpectedStatus)
	}

	if savedDecision == nil {
		t.Fatal("expected a decision record")
	}
	if savedDecision.ReviewerID != certifierID {
		t.Errorf("ReviewerID mismatch: got %s", savedDecision.ReviewerID)
	}
	if savedDecision.Action != domain.DecisionActionApprove {
		t.Errorf("decision action mismatch: got %s", savedDecision.Action)
	}
	if len(savedDecision.Assessments) != 1 {
		t.Errorf("expected 1 assessment snapshot, got %d", len(savedDecision.Assessments))
	}

	if notified == nil {
		t.Fatal("expected a notification")
	}
	if notified.RecipientID != applicantID {
		t.Errorf("notification must go to the applicant, got %s", notified.RecipientID)
	}
	if notified.Template != domain.TemplateApplicationApproved {
		t.Errorf("template mismatch: got %s", notified.Template)
	}
}

func TestService_Decide_Reject(t *testing.T) {
	t.Parallel()

	applicantID := uuid.New()
	certifierID := uuid.New()
	std := testStandard(certifierID, 1)
	app := testApplication(applicantID, certifierID, std, domain.ApplicationStatusSubmitted)

	d := newDeps()
	d.applications.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Application, error) {
		return app, nil
	}
	d.standards.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
		return std, nil
	}

	var gotTransition domain.ApplicationTransition
	d.applications.TransitionFunc = func(_ context.Context, params domain.ApplicationTransition) (*domain.Application, error) {
		gotTransition = params
		decided := *app
		decided.Status = params.NewStatus
		return &decided, nil
	}
	d.decisions.CreateFunc = func(_ context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error) {
		return dec, nil
	}

	var notified *domain.Notification
	d.outbox.EnqueueFunc = func(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
		notified = n
		return n, nil
	}

	svc := newTestService(t, d)
	_, err := svc.Decide(actorCtx(certifierID, domain.RoleCertifier), DecideInput{
		ApplicationID: app.ID,
		Action:        domain.DecisionActionReject,
		Notes:         "evidence missing for criterion 1",
	})
	if err != nil {
		t.Fatalf("Decide: unexpected error: %v", err)
	}

	if gotTransition.NewStatus != domain.ApplicationStatusRejected {
		t.Errorf("NewStatus mismatch: got %s", gotTransition.NewStatus)
	}
	if gotTransition.RejectedAt == nil || gotTransition.ApprovedAt != nil {
		t.Error("rejection must stamp RejectedAt and leave ApprovedAt nil")
	}
	if notified.Template != domain.TemplateApplicationRejected {
		t.Errorf("template mismatch: got %s", notified.Template)
	}
}

func TestService_Decide_Errors(t *testing.T) {
	t.Parallel()

	applicantID := uuid.New()
	certifierID := uuid.New()
	std := testStandard(certifierID, 1)

	tests := []struct {
		name    string
		actor   uuid.UUID
		role    domain.Role
		status  domain.ApplicationStatus
		input   DecideInput
		wantErr error
	}{
		{
			name:   "not the certifier",
			actor:  uuid.New(),
			role:   domain.RoleCertifier,
			status: domain.ApplicationStatusUnderReview,
			input: DecideInput{
				Action: domain.DecisionActionApprove,
				Notes:  "ok",
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name:   "applicant cannot decide",
			actor:  applicantID,
			role:   domain.RoleApplicant,
			status: domain.ApplicationStatusUnderReview,
			input: DecideInput{
				Action: domain.DecisionActionApprove,
				Notes:  "ok",
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name:   "already decided",
			actor:  certifierID,
			role:   domain.RoleCertifier,
			status: domain.ApplicationStatusApproved,
			input: DecideInput{
				Action: domain.DecisionActionApprove,
				Notes:  "ok",
			},
			wantErr: domain.ErrInvalidState,
		},
		{
			name:   "draft cannot be decided",
			actor:  certifierID,
			role:   domain.RoleCertifier,
			status: domain.ApplicationStatusDraft,
			input: DecideInput{
				Action: domain.DecisionActionApprove,
				Notes:  "ok",
			},
			wantErr: domain.ErrInvalidState,
		},
		{
			name:   "missing notes",
			actor:  certifierID,
			role:   domain.RoleCertifier,
			status: domain.ApplicationStatusUnderReview,
			input: DecideInput{
				Action: domain.DecisionActionApprove,
			},
			wantErr: domain.ErrValidation,
		},
		{
			name:   "bad action",
			actor:  certifierID,
			role:   domain.RoleCertifier,
			status: domain.ApplicationStatusUnderReview,
			input: DecideInput{
				Action: domain.DecisionAction("MAYBE"),
				Notes:  "hmm",
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := testApplication(applicantID, certifierID, std, tt.status)

			d := newDeps()
			d.applications.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Application, error) {
				return app, nil
			}
			d.standards.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
				return std, nil
			}

			input := tt.input
			input.ApplicationID = app.ID

			svc := newTestService(t, d)
			_, err := svc.Decide(actorCtx(tt.actor, tt.role), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

// The CAS transition losing to a concurrent decision must surface as
// ErrInvalidState without any decision record being written.
func TestService_Decide_LostRace(t *testing.T) {
	t.Parallel()

	applicantID := uuid.New()
	certifierID := uuid.New()
	std := testStandard(certifierID, 1)
	app := testApplication(applicantID, certifierID, std, domain.ApplicationStatusUnderReview)

	d := newDeps()
	d.applications.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Application, error) {
		return app, nil
	}
	d.standards.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
		return std, nil
	}
	d.applications.TransitionFunc = func(_ context.Context, _ domain.ApplicationTransition) (*domain.Application, error) {
		return nil, domain.ErrInvalidState
	}

	decisionWritten := false
	d.decisions.CreateFunc = func(_ context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error) {
		decisionWritten = true
		return dec, nil
	}

	svc := newTestService(t, d)
	_, err := svc.Decide(actorCtx(certifierID, domain.RoleCertifier), DecideInput{
		ApplicationID: app.ID,
		Action:        domain.DecisionActionReject,
		Notes:         "late",
	})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got: %v", err)
	}
	if decisionWritten {
		t.Error("no decision record may be written when the transition loses")
	}
}
