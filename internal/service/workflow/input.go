package workflow

import (
	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
)

const (
	maxNotesLen  = 10_000
	maxBodyLen   = 10_000
	maxReasonLen = 1_000
)

// CreateDraftInput holds the parameters for creating a draft application.
type CreateDraftInput struct {
	StandardID uuid.UUID
	Responses  map[uuid.UUID]domain.CriteriaResponse
}

// Validate checks all fields and collects all errors.
func (i *CreateDraftInput) Validate() error {
	var errs []domain.FieldError

	if i.StandardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "standard_id", Message: "required"})
	}
	errs = append(errs, validateResponses(i.Responses)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateDraftInput holds the parameters for replacing a draft's responses.
type UpdateDraftInput struct {
	ApplicationID uuid.UUID
	Responses     map[uuid.UUID]domain.CriteriaResponse
}

// Validate checks all fields and collects all errors.
func (i *UpdateDraftInput) Validate() error {
	var errs []domain.FieldError

	if i.ApplicationID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "application_id", Message: "required"})
	}
	errs = append(errs, validateResponses(i.Responses)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateResponses(responses map[uuid.UUID]domain.CriteriaResponse) []domain.FieldError {
	var errs []domain.FieldError
	for criterionID, resp := range responses {
		if criterionID == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "responses", Message: "criterion id required"})
		}
		if !resp.Meets.IsValid() {
			errs = append(errs, domain.FieldError{
				Field:   "responses." + criterionID.String(),
				Message: "meets must be YES, PARTIAL, or NO",
			})
		}
		if len(resp.Notes) > maxNotesLen {
			errs = append(errs, domain.FieldError{
				Field:   "responses." + criterionID.String(),
				Message: "notes too long",
			})
		}
	}
	return errs
}

// SubmitInput holds the parameters for submitting a draft application.
type SubmitInput struct {
	ApplicationID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *SubmitInput) Validate() error {
	if i.ApplicationID == uuid.Nil {
		return domain.NewValidationError("application_id", "required")
	}
	return nil
}

// BeginReviewInput holds the parameters for starting a review.
type BeginReviewInput struct {
	ApplicationID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *BeginReviewInput) Validate() error {
	if i.ApplicationID == uuid.Nil {
		return domain.NewValidationError("application_id", "required")
	}
	return nil
}

// DecideInput holds the parameters for the approve/reject decision.
type DecideInput struct {
	ApplicationID uuid.UUID
	Action        domain.DecisionAction
	Notes         string

	// Assessments is the optional per-criterion verdict snapshot stored on
	// the decision record.
	Assessments map[uuid.UUID]domain.CriterionAssessment
}

// Validate checks all fields and collects all errors.
func (i *DecideInput) Validate() error {
	var errs []domain.FieldError

	if i.ApplicationID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "application_id", Message: "required"})
	}
	if !i.Action.IsValid() {
		errs = append(errs, domain.FieldError{Field: "action", Message: "must be APPROVE or REJECT"})
	}
	if i.Notes == "" {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "required"})
	}
	if len(i.Notes) > maxNotesLen {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "too long"})
	}
	for criterionID, a := range i.Assessments {
		if !a.Meets.IsValid() {
			errs = append(errs, domain.FieldError{
				Field:   "assessments." + criterionID.String(),
				Message: "meets must be YES, PARTIAL, or NO",
			})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// PostCommentInput holds the parameters for posting a review comment.
type PostCommentInput struct {
	ApplicationID uuid.UUID
	CriterionID   uuid.UUID
	Body          string
}

// Validate checks all fields and collects all errors.
func (i *PostCommentInput) Validate() error {
	var errs []domain.FieldError

	if i.ApplicationID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "application_id", Message: "required"})
	}
	if i.CriterionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "criterion_id", Message: "required"})
	}
	if i.Body == "" {
		errs = append(errs, domain.FieldError{Field: "body", Message: "required"})
	}
	if len(i.Body) > maxBodyLen {
		errs = append(errs, domain.FieldError{Field: "body", Message: "too long"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AttachFileInput holds the parameters for attaching an evidence file.
type AttachFileInput struct {
	ApplicationID uuid.UUID
	CriterionID   uuid.UUID

	// FileRef is an opaque reference to already uploaded content; file
	// storage itself lives outside this service.
	FileRef string
}

// Validate checks all fields and collects all errors.
func (i *AttachFileInput) Validate() error {
	var errs []domain.FieldError

	if i.ApplicationID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "application_id", Message: "required"})
	}
	if i.CriterionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "criterion_id", Message: "required"})
	}
	if i.FileRef == "" {
		errs = append(errs, domain.FieldError{Field: "file_ref", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// IssueInput holds the parameters for issuing a certificate.
type IssueInput struct {
	ApplicationID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *IssueInput) Validate() error {
	if i.ApplicationID == uuid.Nil {
		return domain.NewValidationError("application_id", "required")
	}
	return nil
}

// RevokeInput holds the parameters for revoking a certificate.
type RevokeInput struct {
	CertificateID uuid.UUID
	Reason        string
}

// Validate checks all fields and collects all errors.
func (i *RevokeInput) Validate() error {
	var errs []domain.FieldError

	if i.CertificateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "certificate_id", Message: "required"})
	}
	if i.Reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "required"})
	}
	if len(i.Reason) > maxReasonLen {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "too long"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListApplicationsInput holds the parameters for listing applications.
type ListApplicationsInput struct {
	StandardID *uuid.UUID
	Status     *domain.ApplicationStatus
	Limit      int
	Offset     int
}

// Validate checks all fields and collects all errors.
func (i *ListApplicationsInput) Validate() error {
	var errs []domain.FieldError

	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}
	if i.Limit < 0 || i.Limit > 200 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 0 and 200"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
