package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
)

// outboxService defines the minimal interface needed by OutboxHandler.
type outboxService interface {
	ListPending(ctx context.Context, limit int) ([]*domain.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// OutboxHandler serves the notification outbox endpoints used by the
// delivery collaborator.
type OutboxHandler struct {
	svc outboxService
	log *slog.Logger
}

// NewOutboxHandler creates an OutboxHandler.
func NewOutboxHandler(svc outboxService, logger *slog.Logger) *OutboxHandler {
	return &OutboxHandler{svc: svc, log: logger.With("handler", "outbox")}
}

// ListPending handles GET /api/v1/outbox.
func (h *OutboxHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	pending, err := h.svc.ListPending(r.Context(), limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": toNotificationResponses(pending)})
}

// MarkSent handles POST /api/v1/outbox/{id}/sent.
func (h *OutboxHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkSent(r.Context(), id); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
