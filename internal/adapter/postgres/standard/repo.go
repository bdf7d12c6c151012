// Package standard implements the Standard repository using PostgreSQL.
// Standards and their criteria are read-mostly: the workflow core reads
// them to validate applications and compute certificate expiry.
package standard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

// Repo provides standard persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new standard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const standardColumns = `id, certifier_id, name, description, validity_months, price_cents,
published, created_at, updated_at`

const createSQL = `
INSERT INTO standards (id, certifier_id, name, description, validity_months, price_cents, published)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + standardColumns

const createCriterionSQL = `
INSERT INTO criteria (id, standard_id, title, description, position)
VALUES ($1, $2, $3, $4, $5)`

const getByIDSQL = `
SELECT ` + standardColumns + `
FROM standards
WHERE id = $1`

const listPublishedSQL = `
SELECT ` + standardColumns + `
FROM standards
WHERE published
ORDER BY name ASC`

const getCriteriaSQL = `
SELECT id, standard_id, title, description, position
FROM criteria
WHERE standard_id = $1
ORDER BY position ASC`

// Create inserts a standard together with its criteria.
func (r *Repo) Create(ctx context.Context, std *domain.Standard) (*domain.Standard, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL,
		std.ID, std.CertifierID, std.Name, std.Description,
		std.ValidityMonths, std.PriceCents, std.Published)

	created, err := scanStandard(row)
	if err != nil {
		return nil, fmt.Errorf("standard %s: %w", std.ID, err)
	}

	for _, c := range std.Criteria {
		if _, err := querier.Exec(ctx, createCriterionSQL,
			c.ID, std.ID, c.Title, c.Description, c.Position); err != nil {
			return nil, fmt.Errorf("criterion %s: %w", c.ID, err)
		}
	}
	created.Criteria = std.Criteria

	return created, nil
}

// GetByID returns the standard with its criteria ordered by position.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	std, err := scanStandard(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("standard %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("standard %s: %w", id, err)
	}

	std.Criteria, err = r.criteria(ctx, id)
	if err != nil {
		return nil, err
	}

	return std, nil
}

// ListPublished returns all published standards with their criteria.
func (r *Repo) ListPublished(ctx context.Context) ([]*domain.Standard, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPublishedSQL)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	defer rows.Close()

	standards := []*domain.Standard{}
	for rows.Next() {
		std, err := scanStandard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan standard: %w", err)
		}
		standards = append(standards, std)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standards: %w", err)
	}

	for _, std := range standards {
		std.Criteria, err = r.criteria(ctx, std.ID)
		if err != nil {
			return nil, err
		}
	}

	return standards, nil
}

func (r *Repo) criteria(ctx context.Context, standardID uuid.UUID) ([]domain.Criterion, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getCriteriaSQL, standardID)
	if err != nil {
		return nil, fmt.Errorf("get criteria: %w", err)
	}
	defer rows.Close()

	criteria := []domain.Criterion{}
	for rows.Next() {
		var c domain.Criterion
		if err := rows.Scan(&c.ID, &c.StandardID, &c.Title, &c.Description, &c.Position); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criteria: %w", err)
	}

	return criteria, nil
}

func scanStandard(row pgx.Row) (*domain.Standard, error) {
	var std domain.Standard
	err := row.Scan(&std.ID, &std.CertifierID, &std.Name, &std.Description,
		&std.ValidityMonths, &std.PriceCents, &std.Published,
		&std.CreatedAt, &std.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &std, nil
}
