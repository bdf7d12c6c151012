package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/internal/service/workflow"
)

// workflowService defines the minimal interface needed by ApplicationHandler.
type workflowService interface {
	CreateDraft(ctx context.Context, input workflow.CreateDraftInput) (*domain.Application, error)
	UpdateDraft(ctx context.Context, input workflow.UpdateDraftInput) (*domain.Application, error)
	Submit(ctx context.Context, input workflow.SubmitInput) (*domain.Application, error)
	BeginReview(ctx context.Context, input workflow.BeginReviewInput) (*domain.Application, error)
	Decide(ctx context.Context, input workflow.DecideInput) (*domain.Application, error)
	PostComment(ctx context.Context, input workflow.PostCommentInput) (*domain.ReviewEntry, error)
	AttachFile(ctx context.Context, input workflow.AttachFileInput) (*domain.ReviewEntry, error)
	Issue(ctx context.Context, input workflow.IssueInput) (*domain.Certificate, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	GetReviewContext(ctx context.Context, applicationID uuid.UUID) (*workflow.ReviewContext, error)
	GetApplicationAudit(ctx context.Context, applicationID uuid.UUID, limit int) ([]domain.AuditRecord, error)
	ListApplications(ctx context.Context, input workflow.ListApplicationsInput) ([]*domain.Application, int, error)
}

// ApplicationHandler serves the application workflow REST endpoints.
type ApplicationHandler struct {
	svc workflowService
	log *slog.Logger
}

// NewApplicationHandler creates an ApplicationHandler.
func NewApplicationHandler(svc workflowService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, log: logger.With("handler", "applications")}
}

type criteriaResponseRequest struct {
	Meets string `json:"meets"`
	Notes string `json:"notes"`
}

type createDraftRequest struct {
	StandardID string                             `json:"standardId"`
	Responses  map[string]criteriaResponseRequest `json:"responses"`
}

type updateDraftRequest struct {
	Responses map[string]criteriaResponseRequest `json:"responses"`
}

type decideRequest struct {
	Action      string                             `json:"action"`
	Notes       string                             `json:"notes"`
	Assessments map[string]criteriaResponseRequest `json:"assessments"`
}

type postCommentRequest struct {
	CriterionID string `json:"criterionId"`
	Body        string `json:"body"`
}

type attachFileRequest struct {
	CriterionID string `json:"criterionId"`
	FileRef     string `json:"fileRef"`
}

// CreateDraft handles POST /api/v1/applications.
func (h *ApplicationHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	standardID, err := uuid.Parse(req.StandardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid standardId")
		return
	}
	responses, ok := parseResponses(w, req.Responses)
	if !ok {
		return
	}

	app, err := h.svc.CreateDraft(r.Context(), workflow.CreateDraftInput{
		StandardID: standardID,
		Responses:  responses,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// UpdateDraft handles PATCH /api/v1/applications/{id}.
func (h *ApplicationHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	responses, ok := parseResponses(w, req.Responses)
	if !ok {
		return
	}

	app, err := h.svc.UpdateDraft(r.Context(), workflow.UpdateDraftInput{
		ApplicationID: id,
		Responses:     responses,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Submit handles POST /api/v1/applications/{id}/submit.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	app, err := h.svc.Submit(r.Context(), workflow.SubmitInput{ApplicationID: id})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// BeginReview handles POST /api/v1/applications/{id}/review.
func (h *ApplicationHandler) BeginReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	app, err := h.svc.BeginReview(r.Context(), workflow.BeginReviewInput{ApplicationID: id})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Decide handles POST /api/v1/applications/{id}/decision.
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req decideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := workflow.DecideInput{
		ApplicationID: id,
		Action:        domain.DecisionAction(req.Action),
		Notes:         req.Notes,
	}
	if len(req.Assessments) > 0 {
		input.Assessments = make(map[uuid.UUID]domain.CriterionAssessment, len(req.Assessments))
		for key, a := range req.Assessments {
			criterionID, err := uuid.Parse(key)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid criterion id in assessments")
				return
			}
			input.Assessments[criterionID] = domain.CriterionAssessment{
				Meets: domain.AssessmentLevel(a.Meets),
				Notes: a.Notes,
			}
		}
	}

	app, err := h.svc.Decide(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// PostComment handles POST /api/v1/applications/{id}/comments.
func (h *ApplicationHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req postCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	criterionID, err := uuid.Parse(req.CriterionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid criterionId")
		return
	}

	entry, err := h.svc.PostComment(r.Context(), workflow.PostCommentInput{
		ApplicationID: id,
		CriterionID:   criterionID,
		Body:          req.Body,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewEntryResponse(entry))
}

// AttachFile handles POST /api/v1/applications/{id}/files.
func (h *ApplicationHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req attachFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	criterionID, err := uuid.Parse(req.CriterionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid criterionId")
		return
	}

	entry, err := h.svc.AttachFile(r.Context(), workflow.AttachFileInput{
		ApplicationID: id,
		CriterionID:   criterionID,
		FileRef:       req.FileRef,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewEntryResponse(entry))
}

// Issue handles POST /api/v1/applications/{id}/certificate.
func (h *ApplicationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cert, err := h.svc.Issue(r.Context(), workflow.IssueInput{ApplicationID: id})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

// Get handles GET /api/v1/applications/{id}.
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	app, err := h.svc.GetApplication(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// GetReview handles GET /api/v1/applications/{id}/review.
func (h *ApplicationHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	rc, err := h.svc.GetReviewContext(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewContextResponse(rc))
}

// GetAudit handles GET /api/v1/applications/{id}/audit.
func (h *ApplicationHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.svc.GetApplicationAudit(r.Context(), id, limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": toAuditRecordResponses(records)})
}

// List handles GET /api/v1/applications.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := workflow.ListApplicationsInput{}
	if s := q.Get("standardId"); s != "" {
		standardID, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid standardId")
			return
		}
		input.StandardID = &standardID
	}
	if s := q.Get("status"); s != "" {
		status := domain.ApplicationStatus(s)
		input.Status = &status
	}
	input.Limit, _ = strconv.Atoi(q.Get("limit"))
	input.Offset, _ = strconv.Atoi(q.Get("offset"))

	apps, total, err := h.svc.ListApplications(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := applicationListResponse{
		Applications: make([]applicationResponse, 0, len(apps)),
		TotalCount:   total,
	}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, toApplicationResponse(app))
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseResponses(w http.ResponseWriter, raw map[string]criteriaResponseRequest) (map[uuid.UUID]domain.CriteriaResponse, bool) {
	responses := make(map[uuid.UUID]domain.CriteriaResponse, len(raw))
	for key, r := range raw {
		criterionID, err := uuid.Parse(key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid criterion id in responses")
			return nil, false
		}
		responses[criterionID] = domain.CriteriaResponse{
			Meets: domain.AssessmentLevel(r.Meets),
			Notes: r.Notes,
		}
	}
	return responses, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
