// Package certificate implements the Certificate repository using PostgreSQL.
//
// Uniqueness of certificate numbers and verification codes is enforced by
// database constraints, not in-process locks, so it holds across service
// instances. Revocation is a compare-and-set update on the stored status.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

// Repo provides certificate persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new certificate repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const certificateColumns = `id, application_id, certificate_number, verification_code, status,
issued_at, expires_at, revoked_at, revocation_reason, created_at, updated_at`

const createSQL = `
INSERT INTO certificates (id, application_id, certificate_number, verification_code,
                          number_prefix, number_year, number_month, number_seq,
                          status, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + certificateColumns

const getByIDSQL = `
SELECT ` + certificateColumns + `
FROM certificates
WHERE id = $1`

const getByApplicationIDSQL = `
SELECT ` + certificateColumns + `
FROM certificates
WHERE application_id = $1`

const getByVerificationCodeSQL = `
SELECT ` + certificateColumns + `
FROM certificates
WHERE upper(verification_code) = upper($1)`

const maxSequenceSQL = `
SELECT COALESCE(max(number_seq), 0)
FROM certificates
WHERE number_prefix = $1 AND number_year = $2 AND number_month = $3`

const existsByCodeSQL = `
SELECT EXISTS (SELECT 1 FROM certificates WHERE upper(verification_code) = upper($1))`

const existsByApplicationSQL = `
SELECT EXISTS (SELECT 1 FROM certificates WHERE application_id = $1)`

const revokeSQL = `
UPDATE certificates
SET status = 'REVOKED', revoked_at = $2, revocation_reason = $3, updated_at = now()
WHERE id = $1 AND status = 'ACTIVE'
RETURNING ` + certificateColumns

const getStatusSQL = `SELECT status FROM certificates WHERE id = $1`

// Create inserts a new active certificate. A unique violation (duplicate
// number sequence, verification code, or a second certificate for the same
// application) maps to domain.ErrAlreadyExists so the caller can retry
// number generation or fail the one-to-one invariant as appropriate.
func (r *Repo) Create(ctx context.Context, cert *domain.Certificate, parts domain.CertificateNumber) (*domain.Certificate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL,
		cert.ID, cert.ApplicationID, cert.CertificateNumber, cert.VerificationCode,
		parts.Prefix, parts.Year, parts.Month, parts.Seq,
		cert.Status, cert.IssuedAt, cert.ExpiresAt)

	created, err := scanCertificate(row)
	if err != nil {
		return nil, mapError(err, "certificate", cert.ID)
	}

	return created, nil
}

// GetByID returns the certificate with the given id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	cert, err := scanCertificate(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "certificate", id)
	}
	return cert, nil
}

// GetByApplicationID returns the certificate issued for an application.
func (r *Repo) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Certificate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	cert, err := scanCertificate(querier.QueryRow(ctx, getByApplicationIDSQL, applicationID))
	if err != nil {
		return nil, mapError(err, "certificate", applicationID)
	}
	return cert, nil
}

// GetByVerificationCode looks a certificate up by its public verification
// code, case-insensitively.
func (r *Repo) GetByVerificationCode(ctx context.Context, code string) (*domain.Certificate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	cert, err := scanCertificate(querier.QueryRow(ctx, getByVerificationCodeSQL, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("certificate code %q: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("certificate code %q: %w", code, err)
	}
	return cert, nil
}

// MaxSequence returns the highest issued sequence for the prefix/year/month
// segment, 0 when none exist yet.
func (r *Repo) MaxSequence(ctx context.Context, prefix string, year, month int) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var seq int
	if err := querier.QueryRow(ctx, maxSequenceSQL, prefix, year, month).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max certificate sequence: %w", err)
	}
	return seq, nil
}

// ExistsByVerificationCode reports whether any certificate already uses the
// code (case-insensitive).
func (r *Repo) ExistsByVerificationCode(ctx context.Context, code string) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, existsByCodeSQL, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("verification code exists: %w", err)
	}
	return exists, nil
}

// ExistsByApplicationID reports whether a certificate was already issued
// for the application.
func (r *Repo) ExistsByApplicationID(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, existsByApplicationSQL, applicationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("certificate exists for application: %w", err)
	}
	return exists, nil
}

// Revoke performs a compare-and-set revocation: only a stored ACTIVE row is
// updated. An existing non-ACTIVE row returns domain.ErrInvalidState, a
// missing row domain.ErrNotFound.
func (r *Repo) Revoke(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) (*domain.Certificate, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	cert, err := scanCertificate(querier.QueryRow(ctx, revokeSQL, id, revokedAt, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.describeMiss(ctx, id)
		}
		return nil, mapError(err, "certificate", id)
	}
	return cert, nil
}

func (r *Repo) describeMiss(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var status string
	err := querier.QueryRow(ctx, getStatusSQL, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("certificate %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("certificate %s: %w", id, err)
	}
	return fmt.Errorf("certificate %s in status %s: %w", id, status, domain.ErrInvalidState)
}

// ---------------------------------------------------------------------------
// Scanning and error mapping
// ---------------------------------------------------------------------------

func scanCertificate(row pgx.Row) (*domain.Certificate, error) {
	var (
		cert   domain.Certificate
		status string
	)

	err := row.Scan(
		&cert.ID, &cert.ApplicationID, &cert.CertificateNumber, &cert.VerificationCode,
		&status, &cert.IssuedAt, &cert.ExpiresAt, &cert.RevokedAt, &cert.RevocationReason,
		&cert.CreatedAt, &cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.Status = domain.CertificateStatus(status)
	return &cert, nil
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
