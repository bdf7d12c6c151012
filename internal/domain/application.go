package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CriteriaResponse is the applicant's self-assessment of one criterion.
// Immutable once the application is submitted.
type CriteriaResponse struct {
	Meets AssessmentLevel
	Notes string
}

// Application is one applicant's attempt to certify against one standard.
// ApplicantID, CertifierID and StandardID are immutable references set at
// creation. Status and the decision timestamps must always agree:
// ApprovedAt is non-nil iff status is APPROVED or ISSUED, RejectedAt is
// non-nil iff status is REJECTED, and never both.
type Application struct {
	ID          uuid.UUID
	ApplicantID uuid.UUID
	CertifierID uuid.UUID
	StandardID  uuid.UUID

	Status ApplicationStatus

	// CriteriaResponses maps criterion id to the applicant's self-assessment.
	CriteriaResponses map[uuid.UUID]CriteriaResponse

	// DecisionNotes is set once, by the deciding certifier.
	DecisionNotes *string

	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsApplicant reports whether the actor is the applicant on record.
func (a *Application) IsApplicant(actorID uuid.UUID) bool {
	return a.ApplicantID == actorID
}

// IsCertifier reports whether the actor is the assigned certifier.
func (a *Application) IsCertifier(actorID uuid.UUID) bool {
	return a.CertifierID == actorID
}

// Submit moves the application from DRAFT to SUBMITTED and stamps
// SubmittedAt. Returns ErrInvalidState from any other status.
func (a *Application) Submit(now time.Time) error {
	if a.Status != ApplicationStatusDraft {
		return fmt.Errorf("submit from %s: %w", a.Status, ErrInvalidState)
	}
	a.Status = ApplicationStatusSubmitted
	a.SubmittedAt = &now
	return nil
}

// BeginReview moves a SUBMITTED application to UNDER_REVIEW and stamps
// ReviewedAt if still unset. Already UNDER_REVIEW is a no-op (idempotent);
// the returned bool reports whether a transition happened.
func (a *Application) BeginReview(now time.Time) (bool, error) {
	switch a.Status {
	case ApplicationStatusSubmitted:
		a.Status = ApplicationStatusUnderReview
		if a.ReviewedAt == nil {
			a.ReviewedAt = &now
		}
		return true, nil
	case ApplicationStatusUnderReview:
		return false, nil
	default:
		return false, fmt.Errorf("begin review from %s: %w", a.Status, ErrInvalidState)
	}
}

// CanDecide reports whether a decision is legal from the current status.
func (a *Application) CanDecide() bool {
	return a.Status == ApplicationStatusSubmitted || a.Status == ApplicationStatusUnderReview
}

// Decide applies an approve/reject verdict. Only legal from SUBMITTED or
// UNDER_REVIEW; stamps exactly one of ApprovedAt/RejectedAt.
func (a *Application) Decide(action DecisionAction, notes string, now time.Time) error {
	if !a.CanDecide() {
		return fmt.Errorf("decide from %s: %w", a.Status, ErrInvalidState)
	}

	a.DecisionNotes = &notes
	switch action {
	case DecisionActionApprove:
		a.Status = ApplicationStatusApproved
		a.ApprovedAt = &now
	case DecisionActionReject:
		a.Status = ApplicationStatusRejected
		a.RejectedAt = &now
	default:
		return NewValidationError("decision", "must be APPROVE or REJECT")
	}
	return nil
}

// MarkIssued moves an APPROVED application to ISSUED as part of certificate
// issuance.
func (a *Application) MarkIssued() error {
	if a.Status != ApplicationStatusApproved {
		return fmt.Errorf("issue from %s: %w", a.Status, ErrInvalidState)
	}
	a.Status = ApplicationStatusIssued
	return nil
}

// AcceptsReviewEntries reports whether the criterion review ledger is open
// for this application. Entries are allowed once the application has left
// DRAFT; the ledger stays readable and writable in terminal states.
func (a *Application) AcceptsReviewEntries() bool {
	return a.Status != ApplicationStatusDraft
}

// ApplicationTransition describes a guarded status transition. The update
// applies only when the row is currently in one of ExpectedStatus; timestamp
// and notes fields are written only when non-nil.
type ApplicationTransition struct {
	ID             uuid.UUID
	ExpectedStatus []ApplicationStatus
	NewStatus      ApplicationStatus

	SubmittedAt   *time.Time
	ReviewedAt    *time.Time
	ApprovedAt    *time.Time
	RejectedAt    *time.Time
	DecisionNotes *string
}

// ApplicationFilter narrows application listings for dashboards.
type ApplicationFilter struct {
	ApplicantID *uuid.UUID
	CertifierID *uuid.UUID
	StandardID  *uuid.UUID
	Status      *ApplicationStatus

	// Limit caps the page size. Default 50, max 200.
	Limit  int
	Offset int
}
