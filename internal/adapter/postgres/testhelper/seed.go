package testhelper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestly/certify-backend/internal/domain"
)

// uniqueSuffix returns a short random suffix for test data uniqueness.
func uniqueSuffix() string {
	return uuid.NewString()[:8]
}

// SeedAccount inserts an account with the given role directly into the DB
// and returns the created domain entity.
func SeedAccount(t *testing.T, pool *pgxpool.Pool, role domain.Role) *domain.Account {
	t.Helper()

	acc := &domain.Account{
		ID:      uuid.New(),
		Role:    role,
		Email:   "acct-" + uniqueSuffix() + "@example.com",
		OrgName: "Org " + uniqueSuffix(),
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO accounts (id, role, email, org_name)
		VALUES ($1, $2, $3, $4)`,
		acc.ID, acc.Role, acc.Email, acc.OrgName)
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	return acc
}

// SeedStandard inserts a published standard owned by the given certifier,
// with numCriteria criteria, and returns it with Criteria populated.
func SeedStandard(t *testing.T, pool *pgxpool.Pool, certifierID uuid.UUID, numCriteria int) *domain.Standard {
	t.Helper()

	std := &domain.Standard{
		ID:             uuid.New(),
		CertifierID:    certifierID,
		Name:           "Standard " + uniqueSuffix(),
		Description:    "seeded standard",
		ValidityMonths: 12,
		PriceCents:     50000,
		Published:      true,
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO standards (id, certifier_id, name, description, validity_months, price_cents, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		std.ID, std.CertifierID, std.Name, std.Description,
		std.ValidityMonths, std.PriceCents, std.Published)
	if err != nil {
		t.Fatalf("failed to seed standard: %v", err)
	}

	for i := 0; i < numCriteria; i++ {
		c := domain.Criterion{
			ID:          uuid.New(),
			StandardID:  std.ID,
			Title:       "Criterion " + uniqueSuffix(),
			Description: "seeded criterion",
			Position:    i + 1,
		}
		_, err := pool.Exec(context.Background(), `
			INSERT INTO criteria (id, standard_id, title, description, position)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.StandardID, c.Title, c.Description, c.Position)
		if err != nil {
			t.Fatalf("failed to seed criterion: %v", err)
		}
		std.Criteria = append(std.Criteria, c)
	}

	return std
}

// SeedApplication inserts an application in the given status with timestamps
// consistent with that status, and returns the created domain entity.
func SeedApplication(t *testing.T, pool *pgxpool.Pool, applicantID, certifierID, standardID uuid.UUID, status domain.ApplicationStatus) *domain.Application {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)

	app := &domain.Application{
		ID:                uuid.New(),
		ApplicantID:       applicantID,
		CertifierID:       certifierID,
		StandardID:        standardID,
		Status:            status,
		CriteriaResponses: map[uuid.UUID]domain.CriteriaResponse{},
	}

	switch status {
	case domain.ApplicationStatusDraft:
	case domain.ApplicationStatusSubmitted:
		app.SubmittedAt = &now
	case domain.ApplicationStatusUnderReview:
		app.SubmittedAt = &now
		app.ReviewedAt = &now
	case domain.ApplicationStatusApproved, domain.ApplicationStatusIssued:
		app.SubmittedAt = &now
		app.ReviewedAt = &now
		app.ApprovedAt = &now
	case domain.ApplicationStatusRejected:
		app.SubmittedAt = &now
		app.ReviewedAt = &now
		app.RejectedAt = &now
	default:
		t.Fatalf("cannot seed application with status %q", status)
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO applications (id, applicant_id, certifier_id, standard_id, status,
			criteria_responses, submitted_at, reviewed_at, approved_at, rejected_at)
		VALUES ($1, $2, $3, $4, $5, '{}', $6, $7, $8, $9)`,
		app.ID, app.ApplicantID, app.CertifierID, app.StandardID, app.Status,
		app.SubmittedAt, app.ReviewedAt, app.ApprovedAt, app.RejectedAt)
	if err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}

	return app
}

// SeedCertificate inserts an active certificate for the given application
// and returns the created domain entity. The number parts are randomized to
// avoid unique collisions across parallel tests.
func SeedCertificate(t *testing.T, pool *pgxpool.Pool, applicationID uuid.UUID) *domain.Certificate {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	code := strings.ToUpper("V" + uniqueSuffix())

	cert := &domain.Certificate{
		ID:                uuid.New(),
		ApplicationID:     applicationID,
		CertificateNumber: "TST-" + uniqueSuffix(),
		VerificationCode:  code,
		Status:            domain.CertificateStatusActive,
		IssuedAt:          now,
		ExpiresAt:         now.AddDate(1, 0, 0),
	}

	// Random-ish sequence keeps (prefix, year, month, seq) unique per seed.
	seq := int(uuid.New().ID()%100000) + 1

	_, err := pool.Exec(context.Background(), `
		INSERT INTO certificates (id, application_id, certificate_number, verification_code,
			number_prefix, number_year, number_month, number_seq, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, 'TST', $5, $6, $7, $8, $9, $10)`,
		cert.ID, cert.ApplicationID, cert.CertificateNumber, cert.VerificationCode,
		now.Year(), int(now.Month()), seq, cert.Status, cert.IssuedAt, cert.ExpiresAt)
	if err != nil {
		t.Fatalf("failed to seed certificate: %v", err)
	}

	return cert
}
