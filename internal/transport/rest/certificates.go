package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/internal/service/workflow"
)

// certificateService defines the minimal interface needed by CertificateHandler.
type certificateService interface {
	GetCertificate(ctx context.Context, id uuid.UUID) (*domain.Certificate, error)
	Revoke(ctx context.Context, input workflow.RevokeInput) (*domain.Certificate, error)
	Verify(ctx context.Context, code string) (*workflow.VerificationResult, error)
}

// CertificateHandler serves certificate REST endpoints, including the
// public verification lookup.
type CertificateHandler struct {
	svc certificateService
	log *slog.Logger
}

// NewCertificateHandler creates a CertificateHandler.
func NewCertificateHandler(svc certificateService, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{svc: svc, log: logger.With("handler", "certificates")}
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

// Get handles GET /api/v1/certificates/{id}.
func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cert, err := h.svc.GetCertificate(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// Revoke handles POST /api/v1/certificates/{id}/revoke.
func (h *CertificateHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cert, err := h.svc.Revoke(r.Context(), workflow.RevokeInput{
		CertificateID: id,
		Reason:        req.Reason,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// Verify handles GET /verify/{code}. Public, no authentication.
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	result, err := h.svc.Verify(r.Context(), code)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toVerificationResponse(result))
}
