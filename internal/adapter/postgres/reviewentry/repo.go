// Package reviewentry implements the criterion review ledger repository
// using PostgreSQL. The ledger is append-only: no update or delete is
// exposed. Reads are ordered by created_at ascending with the insertion
// sequence breaking ties.
package reviewentry

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

// Repo provides review ledger persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new review ledger repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const entryColumns = `id, application_id, criterion_id, author_id, author_role, kind,
body, file_ref, seq, created_at`

const appendSQL = `
INSERT INTO review_entries (id, application_id, criterion_id, author_id, author_role,
                            kind, body, file_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + entryColumns

const listByApplicationSQL = `
SELECT ` + entryColumns + `
FROM review_entries
WHERE application_id = $1
ORDER BY criterion_id, created_at ASC, seq ASC`

const listByCriterionSQL = `
SELECT ` + entryColumns + `
FROM review_entries
WHERE application_id = $1 AND criterion_id = $2
ORDER BY created_at ASC, seq ASC`

// Append inserts a new ledger entry and returns it with its assigned
// insertion sequence.
func (r *Repo) Append(ctx context.Context, entry *domain.ReviewEntry) (*domain.ReviewEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, appendSQL,
		entry.ID, entry.ApplicationID, entry.CriterionID, entry.AuthorID,
		entry.AuthorRole, entry.Kind, entry.Body, entry.FileRef, entry.CreatedAt)

	created, err := scanEntry(row)
	if err != nil {
		return nil, mapError(err, "review_entry", entry.ID)
	}

	return created, nil
}

// ListByApplication returns all ledger entries of an application grouped by
// criterion, each thread ordered by creation time then insertion sequence.
func (r *Repo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]domain.CriterionThread, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByApplicationSQL, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list review_entries: %w", err)
	}
	defer rows.Close()

	threads := []domain.CriterionThread{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review_entry: %w", err)
		}

		n := len(threads)
		if n == 0 || threads[n-1].CriterionID != entry.CriterionID {
			threads = append(threads, domain.CriterionThread{CriterionID: entry.CriterionID})
			n++
		}
		threads[n-1].Entries = append(threads[n-1].Entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review_entries: %w", err)
	}

	return threads, nil
}

// ListByCriterion returns one criterion's thread in append order.
func (r *Repo) ListByCriterion(ctx context.Context, applicationID, criterionID uuid.UUID) ([]domain.ReviewEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByCriterionSQL, applicationID, criterionID)
	if err != nil {
		return nil, fmt.Errorf("list review_entries by criterion: %w", err)
	}
	defer rows.Close()

	entries := []domain.ReviewEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review_entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review_entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*domain.ReviewEntry, error) {
	var (
		entry domain.ReviewEntry
		role  string
		kind  string
	)

	err := row.Scan(
		&entry.ID, &entry.ApplicationID, &entry.CriterionID, &entry.AuthorID,
		&role, &kind, &entry.Body, &entry.FileRef, &entry.Seq, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.AuthorRole = domain.Role(role)
	entry.Kind = domain.ReviewEntryKind(kind)
	return &entry, nil
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
