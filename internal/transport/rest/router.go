package rest

import "net/http"

// Handlers groups the REST handlers wired into the router.
type Handlers struct {
	Applications *ApplicationHandler
	Certificates *CertificateHandler
	Standards    *StandardHandler
	Outbox       *OutboxHandler
	Health       *HealthHandler
}

// NewRouter builds the HTTP route table. Authentication and the rest of
// the middleware chain wrap the returned mux in the app wiring; the
// /verify route stays reachable anonymously because the auth middleware
// passes tokenless requests through.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /livez", h.Health.Live)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("GET /verify/{code}", h.Certificates.Verify)

	mux.HandleFunc("POST /api/v1/standards", h.Standards.Create)
	mux.HandleFunc("GET /api/v1/standards", h.Standards.List)
	mux.HandleFunc("GET /api/v1/standards/{id}", h.Standards.Get)

	mux.HandleFunc("POST /api/v1/applications", h.Applications.CreateDraft)
	mux.HandleFunc("GET /api/v1/applications", h.Applications.List)
	mux.HandleFunc("GET /api/v1/applications/{id}", h.Applications.Get)
	mux.HandleFunc("PATCH /api/v1/applications/{id}", h.Applications.UpdateDraft)
	mux.HandleFunc("POST /api/v1/applications/{id}/submit", h.Applications.Submit)
	mux.HandleFunc("POST /api/v1/applications/{id}/review", h.Applications.BeginReview)
	mux.HandleFunc("GET /api/v1/applications/{id}/review", h.Applications.GetReview)
	mux.HandleFunc("POST /api/v1/applications/{id}/decision", h.Applications.Decide)
	mux.HandleFunc("POST /api/v1/applications/{id}/comments", h.Applications.PostComment)
	mux.HandleFunc("POST /api/v1/applications/{id}/files", h.Applications.AttachFile)
	mux.HandleFunc("POST /api/v1/applications/{id}/certificate", h.Applications.Issue)
	mux.HandleFunc("GET /api/v1/applications/{id}/audit", h.Applications.GetAudit)

	mux.HandleFunc("GET /api/v1/certificates/{id}", h.Certificates.Get)
	mux.HandleFunc("POST /api/v1/certificates/{id}/revoke", h.Certificates.Revoke)

	mux.HandleFunc("GET /api/v1/outbox", h.Outbox.ListPending)
	mux.HandleFunc("POST /api/v1/outbox/{id}/sent", h.Outbox.MarkSent)

	return mux
}
