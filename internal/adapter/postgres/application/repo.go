// Package application implements the Application repository using PostgreSQL.
// Status transitions are compare-and-set updates: the expected current
// status is part of the WHERE clause, so two racing transitions on the same
// row resolve to exactly one winner.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

// Repo provides application persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new application repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const applicationColumns = `id, applicant_id, certifier_id, standard_id, status,
criteria_responses, decision_notes, submitted_at, reviewed_at, approved_at,
rejected_at, created_at, updated_at`

const createSQL = `
INSERT INTO applications (id, applicant_id, certifier_id, standard_id, status, criteria_responses)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + applicationColumns

const getByIDSQL = `
SELECT ` + applicationColumns + `
FROM applications
WHERE id = $1`

const getStatusSQL = `SELECT status FROM applications WHERE id = $1`

const updateDraftResponsesSQL = `
UPDATE applications
SET criteria_responses = $2, updated_at = now()
WHERE id = $1 AND status = 'DRAFT'
RETURNING ` + applicationColumns

const transitionSQL = `
UPDATE applications
SET status         = $2,
    submitted_at   = COALESCE($3, submitted_at),
    reviewed_at    = COALESCE($4, reviewed_at),
    approved_at    = COALESCE($5, approved_at),
    rejected_at    = COALESCE($6, rejected_at),
    decision_notes = COALESCE($7, decision_notes),
    updated_at     = now()
WHERE id = $1 AND status = ANY($8)
RETURNING ` + applicationColumns

// Create inserts a new draft application.
func (r *Repo) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	responses, err := marshalResponses(app.CriteriaResponses)
	if err != nil {
		return nil, fmt.Errorf("application marshal criteria_responses: %w", err)
	}

	row := querier.QueryRow(ctx, createSQL,
		app.ID, app.ApplicantID, app.CertifierID, app.StandardID, app.Status, responses)

	created, err := scanApplication(row)
	if err != nil {
		return nil, mapError(err, "application", app.ID)
	}

	return created, nil
}

// GetByID returns the application with the given id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	app, err := scanApplication(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "application", id)
	}

	return app, nil
}

// UpdateDraftResponses replaces the criteria responses of a DRAFT
// application. Returns domain.ErrInvalidState if the application exists but
// has left DRAFT, domain.ErrNotFound if it does not exist.
func (r *Repo) UpdateDraftResponses(ctx context.Context, id uuid.UUID, responses map[uuid.UUID]domain.CriteriaResponse) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	data, err := marshalResponses(responses)
	if err != nil {
		return nil, fmt.Errorf("application marshal criteria_responses: %w", err)
	}

	app, err := scanApplication(querier.QueryRow(ctx, updateDraftResponsesSQL, id, data))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.describeMiss(ctx, id)
		}
		return nil, mapError(err, "application", id)
	}

	return app, nil
}

// Transition performs a compare-and-set status update. When the row is not
// in one of the expected statuses the update matches zero rows and the
// method returns domain.ErrInvalidState (or ErrNotFound for a missing row).
func (r *Repo) Transition(ctx context.Context, params domain.ApplicationTransition) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	expected := make([]string, len(params.ExpectedStatus))
	for i, st := range params.ExpectedStatus {
		expected[i] = string(st)
	}

	row := querier.QueryRow(ctx, transitionSQL,
		params.ID, params.NewStatus,
		params.SubmittedAt, params.ReviewedAt, params.ApprovedAt, params.RejectedAt,
		params.DecisionNotes, expected)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.describeMiss(ctx, params.ID)
		}
		return nil, mapError(err, "application", params.ID)
	}

	return app, nil
}

// describeMiss disambiguates a zero-row CAS update: a missing row is
// ErrNotFound, an existing row in the wrong status is ErrInvalidState.
func (r *Repo) describeMiss(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var status string
	err := querier.QueryRow(ctx, getStatusSQL, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("application %s: %w", id, err)
	}
	return fmt.Errorf("application %s in status %s: %w", id, status, domain.ErrInvalidState)
}

// ---------------------------------------------------------------------------
// Scanning and JSONB helpers
// ---------------------------------------------------------------------------

// criteriaResponseJSON is the storage shape of one criteria response.
// Domain structs carry no json tags; the repo layer owns serialization.
type criteriaResponseJSON struct {
	Meets string `json:"meets"`
	Notes string `json:"notes,omitempty"`
}

func marshalResponses(responses map[uuid.UUID]domain.CriteriaResponse) ([]byte, error) {
	out := make(map[string]criteriaResponseJSON, len(responses))
	for id, resp := range responses {
		out[id.String()] = criteriaResponseJSON{
			Meets: string(resp.Meets),
			Notes: resp.Notes,
		}
	}
	return json.Marshal(out)
}

func unmarshalResponses(data []byte) (map[uuid.UUID]domain.CriteriaResponse, error) {
	responses := make(map[uuid.UUID]domain.CriteriaResponse)
	if len(data) == 0 {
		return responses, nil
	}

	var raw map[string]criteriaResponseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal criteria_responses: %w", err)
	}

	for key, resp := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("criteria_responses key %q: %w", key, err)
		}
		responses[id] = domain.CriteriaResponse{
			Meets: domain.AssessmentLevel(resp.Meets),
			Notes: resp.Notes,
		}
	}

	return responses, nil
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var (
		app       domain.Application
		status    string
		responses []byte
	)

	err := row.Scan(
		&app.ID, &app.ApplicantID, &app.CertifierID, &app.StandardID, &status,
		&responses, &app.DecisionNotes, &app.SubmittedAt, &app.ReviewedAt,
		&app.ApprovedAt, &app.RejectedAt, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationStatus(status)
	app.CriteriaResponses, err = unmarshalResponses(responses)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", app.ID, err)
	}

	return &app, nil
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	// pgx.ErrNoRows -> domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %s: %w", entity, id, err)
}
