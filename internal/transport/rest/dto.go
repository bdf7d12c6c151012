package rest

import (
	"time"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/internal/service/workflow"
)

type criteriaResponseDTO struct {
	Meets string `json:"meets"`
	Notes string `json:"notes,omitempty"`
}

type applicationResponse struct {
	ID          string `json:"id"`
	ApplicantID string `json:"applicantId"`
	CertifierID string `json:"certifierId"`
	StandardID  string `json:"standardId"`
	Status      string `json:"status"`

	CriteriaResponses map[string]criteriaResponseDTO `json:"criteriaResponses"`

	DecisionNotes *string    `json:"decisionNotes,omitempty"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	RejectedAt    *time.Time `json:"rejectedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toApplicationResponse(app *domain.Application) applicationResponse {
	resp := applicationResponse{
		ID:                app.ID.String(),
		ApplicantID:       app.ApplicantID.String(),
		CertifierID:       app.CertifierID.String(),
		StandardID:        app.StandardID.String(),
		Status:            string(app.Status),
		CriteriaResponses: make(map[string]criteriaResponseDTO, len(app.CriteriaResponses)),
		DecisionNotes:     app.DecisionNotes,
		SubmittedAt:       app.SubmittedAt,
		ReviewedAt:        app.ReviewedAt,
		ApprovedAt:        app.ApprovedAt,
		RejectedAt:        app.RejectedAt,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
	for criterionID, r := range app.CriteriaResponses {
		resp.CriteriaResponses[criterionID.String()] = criteriaResponseDTO{
			Meets: string(r.Meets),
			Notes: r.Notes,
		}
	}
	return resp
}

type applicationListResponse struct {
	Applications []applicationResponse `json:"applications"`
	TotalCount   int                   `json:"totalCount"`
}

type certificateResponse struct {
	ID                string     `json:"id"`
	ApplicationID     string     `json:"applicationId"`
	CertificateNumber string     `json:"certificateNumber"`
	VerificationCode  string     `json:"verificationCode"`
	Status            string     `json:"status"`
	IssuedAt          time.Time  `json:"issuedAt"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	RevokedAt         *time.Time `json:"revokedAt,omitempty"`
	RevocationReason  *string    `json:"revocationReason,omitempty"`
}

func toCertificateResponse(cert *domain.Certificate) certificateResponse {
	return certificateResponse{
		ID:                cert.ID.String(),
		ApplicationID:     cert.ApplicationID.String(),
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
		Status:            string(cert.Status),
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		RevokedAt:         cert.RevokedAt,
		RevocationReason:  cert.RevocationReason,
	}
}

type verificationResponse struct {
	CertificateNumber string     `json:"certificateNumber"`
	Status            string     `json:"status"`
	StandardName      string     `json:"standardName"`
	HolderName        string     `json:"holderName"`
	IssuedAt          time.Time  `json:"issuedAt"`
	ExpiresAt         time.Time  `json:"expiresAt"`
	RevokedAt         *time.Time `json:"revokedAt,omitempty"`
	RevocationReason  *string    `json:"revocationReason,omitempty"`
}

func toVerificationResponse(v *workflow.VerificationResult) verificationResponse {
	return verificationResponse{
		CertificateNumber: v.CertificateNumber,
		Status:            string(v.Status),
		StandardName:      v.StandardName,
		HolderName:        v.HolderName,
		IssuedAt:          v.IssuedAt,
		ExpiresAt:         v.ExpiresAt,
		RevokedAt:         v.RevokedAt,
		RevocationReason:  v.RevocationReason,
	}
}

type criterionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

type standardResponse struct {
	ID             string              `json:"id"`
	CertifierID    string              `json:"certifierId"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	ValidityMonths int                 `json:"validityMonths"`
	PriceCents     int64               `json:"priceCents"`
	Published      bool                `json:"published"`
	Criteria       []criterionResponse `json:"criteria"`
}

func toStandardResponse(std *domain.Standard) standardResponse {
	resp := standardResponse{
		ID:             std.ID.String(),
		CertifierID:    std.CertifierID.String(),
		Name:           std.Name,
		Description:    std.Description,
		ValidityMonths: std.ValidityMonths,
		PriceCents:     std.PriceCents,
		Published:      std.Published,
		Criteria:       make([]criterionResponse, 0, len(std.Criteria)),
	}
	for _, c := range std.Criteria {
		resp.Criteria = append(resp.Criteria, criterionResponse{
			ID:          c.ID.String(),
			Title:       c.Title,
			Description: c.Description,
			Position:    c.Position,
		})
	}
	return resp
}

type reviewEntryResponse struct {
	ID          string    `json:"id"`
	CriterionID string    `json:"criterionId"`
	AuthorID    string    `json:"authorId"`
	AuthorRole  string    `json:"authorRole"`
	Kind        string    `json:"kind"`
	Body        *string   `json:"body,omitempty"`
	FileRef     *string   `json:"fileRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toReviewEntryResponse(e *domain.ReviewEntry) reviewEntryResponse {
	return reviewEntryResponse{
		ID:          e.ID.String(),
		CriterionID: e.CriterionID.String(),
		AuthorID:    e.AuthorID.String(),
		AuthorRole:  string(e.AuthorRole),
		Kind:        string(e.Kind),
		Body:        e.Body,
		FileRef:     e.FileRef,
		CreatedAt:   e.CreatedAt,
	}
}

type criterionThreadResponse struct {
	CriterionID string                `json:"criterionId"`
	Entries     []reviewEntryResponse `json:"entries"`
}

type decisionResponse struct {
	ID          string                         `json:"id"`
	ReviewerID  string                         `json:"reviewerId"`
	Action      string                         `json:"action"`
	Notes       string                         `json:"notes"`
	Assessments map[string]criteriaResponseDTO `json:"assessments,omitempty"`
	CreatedAt   time.Time                      `json:"createdAt"`
}

func toDecisionResponse(d *domain.ReviewDecision) *decisionResponse {
	if d == nil {
		return nil
	}
	resp := &decisionResponse{
		ID:         d.ID.String(),
		ReviewerID: d.ReviewerID.String(),
		Action:     string(d.Action),
		Notes:      d.Notes,
		CreatedAt:  d.CreatedAt,
	}
	if len(d.Assessments) > 0 {
		resp.Assessments = make(map[string]criteriaResponseDTO, len(d.Assessments))
		for criterionID, a := range d.Assessments {
			resp.Assessments[criterionID.String()] = criteriaResponseDTO{
				Meets: string(a.Meets),
				Notes: a.Notes,
			}
		}
	}
	return resp
}

type reviewContextResponse struct {
	Application applicationResponse       `json:"application"`
	Standard    standardResponse          `json:"standard"`
	Threads     []criterionThreadResponse `json:"threads"`
	Decision    *decisionResponse         `json:"decision,omitempty"`
}

func toReviewContextResponse(rc *workflow.ReviewContext) reviewContextResponse {
	resp := reviewContextResponse{
		Application: toApplicationResponse(rc.Application),
		Standard:    toStandardResponse(rc.Standard),
		Threads:     make([]criterionThreadResponse, 0, len(rc.Threads)),
		Decision:    toDecisionResponse(rc.Decision),
	}
	for _, thread := range rc.Threads {
		tr := criterionThreadResponse{
			CriterionID: thread.CriterionID.String(),
			Entries:     make([]reviewEntryResponse, 0, len(thread.Entries)),
		}
		for i := range thread.Entries {
			tr.Entries = append(tr.Entries, toReviewEntryResponse(&thread.Entries[i]))
		}
		resp.Threads = append(resp.Threads, tr)
	}
	return resp
}

type auditRecordResponse struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	Action    string         `json:"action"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toAuditRecordResponses(records []domain.AuditRecord) []auditRecordResponse {
	out := make([]auditRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, auditRecordResponse{
			ID:        rec.ID.String(),
			ActorID:   rec.ActorID.String(),
			Action:    string(rec.Action),
			Changes:   rec.Changes,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out
}

type notificationResponse struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipientId"`
	Template    string         `json:"template"`
	Payload     map[string]any `json:"payload,omitempty"`
	SentAt      *time.Time     `json:"sentAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toNotificationResponses(notifications []*domain.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationResponse{
			ID:          n.ID.String(),
			RecipientID: n.RecipientID.String(),
			Template:    string(n.Template),
			Payload:     n.Payload,
			SentAt:      n.SentAt,
			CreatedAt:   n.CreatedAt,
		})
	}
	return out
}
