// Package decision implements the ReviewDecision repository using
// PostgreSQL. Decision records are written once and never mutated; the
// per-criterion assessment snapshot is stored as JSONB.
package decision

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

// Repo provides review decision persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new review decision repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const decisionColumns = `id, application_id, reviewer_id, action, notes, assessments, created_at`

const createSQL = `
INSERT INTO review_decisions (id, application_id, reviewer_id, action, notes, assessments, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + decisionColumns

const getByApplicationIDSQL = `
SELECT ` + decisionColumns + `
FROM review_decisions
WHERE application_id = $1`

// Create inserts the decision record. The unique constraint on
// application_id guarantees a single decision per application; a duplicate
// maps to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	assessments, err := marshalAssessments(dec.Assessments)
	if err != nil {
		return nil, fmt.Errorf("review_decision marshal assessments: %w", err)
	}

	row := querier.QueryRow(ctx, createSQL,
		dec.ID, dec.ApplicationID, dec.ReviewerID, dec.Action, dec.Notes,
		assessments, dec.CreatedAt)

	created, err := scanDecision(row)
	if err != nil {
		return nil, mapError(err, "review_decision", dec.ID)
	}

	return created, nil
}

// GetByApplicationID returns the decision record for an application.
func (r *Repo) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.ReviewDecision, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	dec, err := scanDecision(querier.QueryRow(ctx, getByApplicationIDSQL, applicationID))
	if err != nil {
		return nil, mapError(err, "review_decision", applicationID)
	}
	return dec, nil
}

// ---------------------------------------------------------------------------
// JSONB helpers for the assessment snapshot
// ---------------------------------------------------------------------------

type assessmentJSON struct {
	Meets string `json:"meets"`
	Notes string `json:"notes,omitempty"`
}

func marshalAssessments(assessments map[uuid.UUID]domain.CriterionAssessment) ([]byte, error) {
	out := make(map[string]assessmentJSON, len(assessments))
	for id, a := range assessments {
		out[id.String()] = assessmentJSON{Meets: string(a.Meets), Notes: a.Notes}
	}
	return json.Marshal(out)
}

func unmarshalAssessments(data []byte) (map[uuid.UUID]domain.CriterionAssessment, error) {
	assessments := make(map[uuid.UUID]domain.CriterionAssessment)
	if len(data) == 0 {
		return assessments, nil
	}

	var raw map[string]assessmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal assessments: %w", err)
	}

	for key, a := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("assessments key %q: %w", key, err)
		}
		assessments[id] = domain.CriterionAssessment{
			Meets: domain.AssessmentLevel(a.Meets),
			Notes: a.Notes,
		}
	}

	return assessments, nil
}

func scanDecision(row pgx.Row) (*domain.ReviewDecision, error) {
	var (
		dec         domain.ReviewDecision
		action      string
		assessments []byte
	)

	err := row.Scan(&dec.ID, &dec.ApplicationID, &dec.ReviewerID, &action,
		&dec.Notes, &assessments, &dec.CreatedAt)
	if err != nil {
		return nil, err
	}

	dec.Action = domain.DecisionAction(action)
	dec.Assessments, err = unmarshalAssessments(assessments)
	if err != nil {
		return nil, fmt.Errorf("review_decision %s: %w", dec.ID, err)
	}

	return &dec, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

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

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
