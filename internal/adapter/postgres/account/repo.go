// Package account implements the Account repository using PostgreSQL.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

// Repo provides account persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new account repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const accountColumns = `id, role, email, org_name, created_at, updated_at`

const createSQL = `
INSERT INTO accounts (id, role, email, org_name)
VALUES ($1, $2, $3, $4)
RETURNING ` + accountColumns

const getByIDSQL = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1`

// Create inserts a new account. A duplicate email maps to
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanAccount(querier.QueryRow(ctx, createSQL,
		acc.ID, acc.Role, acc.Email, acc.OrgName))
	if err != nil {
		return nil, mapError(err, acc.ID)
	}
	return created, nil
}

// GetByID returns the account with the given id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	acc, err := scanAccount(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, mapError(err, id)
	}
	return acc, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		acc  domain.Account
		role string
	)
	err := row.Scan(&acc.ID, &role, &acc.Email, &acc.OrgName, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	acc.Role = domain.Role(role)
	return &acc, nil
}

func mapError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("account %s: %w", id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("account %s: %w", id, domain.ErrAlreadyExists)
	}

	return fmt.Errorf("account %s: %w", id, err)
}
