package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/internal/service/catalog"
)

// catalogService defines the minimal interface needed by StandardHandler.
type catalogService interface {
	CreateStandard(ctx context.Context, input catalog.CreateStandardInput) (*domain.Standard, error)
	GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
	ListPublished(ctx context.Context) ([]*domain.Standard, error)
}

// StandardHandler serves the standards catalog REST endpoints.
type StandardHandler struct {
	svc catalogService
	log *slog.Logger
}

// NewStandardHandler creates a StandardHandler.
func NewStandardHandler(svc catalogService, logger *slog.Logger) *StandardHandler {
	return &StandardHandler{svc: svc, log: logger.With("handler", "standards")}
}

type criterionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createStandardRequest struct {
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	ValidityMonths int                `json:"validityMonths"`
	PriceCents     int64              `json:"priceCents"`
	Published      bool               `json:"published"`
	Criteria       []criterionRequest `json:"criteria"`
}

// Create handles POST /api/v1/standards.
func (h *StandardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStandardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := catalog.CreateStandardInput{
		Name:           req.Name,
		Description:    req.Description,
		ValidityMonths: req.ValidityMonths,
		PriceCents:     req.PriceCents,
		Published:      req.Published,
	}
	for _, c := range req.Criteria {
		input.Criteria = append(input.Criteria, catalog.CriterionInput{
			Title:       c.Title,
			Description: c.Description,
		})
	}

	std, err := h.svc.CreateStandard(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStandardResponse(std))
}

// Get handles GET /api/v1/standards/{id}.
func (h *StandardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	std, err := h.svc.GetStandard(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toStandardResponse(std))
}

// List handles GET /api/v1/standards.
func (h *StandardHandler) List(w http.ResponseWriter, r *http.Request) {
	standards, err := h.svc.ListPublished(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]standardResponse, 0, len(standards))
	for _, std := range standards {
		out = append(out, toStandardResponse(std))
	}

	writeJSON(w, http.StatusOK, map[string]any{"standards": out})
}
