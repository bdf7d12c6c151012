package decision_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestly/certify-backend/internal/adapter/postgres/decision"
	"github.com/attestly/certify-backend/internal/adapter/postgres/testhelper"
	"github.com/attestly/certify-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*decision.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return decision.New(pool), pool
}

func seedReviewedApplication(t *testing.T, pool *pgxpool.Pool) (*domain.Application, *domain.Account, *domain.Standard) {
	t.Helper()
	applicant := testhelper.SeedAccount(t, pool, domain.RoleApplicant)
	certifier := testhelper.SeedAccount(t, pool, domain.RoleCertifier)
	std := testhelper.SeedStandard(t, pool, certifier.ID, 2)
	app := testhelper.SeedApplication(t, pool, applicant.ID, certifier.ID, std.ID, domain.ApplicationStatusUnderReview)
	return app, certifier, std
}

func TestRepo_Create_AndGetByApplicationID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	app, certifier, std := seedReviewedApplication(t, pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	dec := &domain.ReviewDecision{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		ReviewerID:    certifier.ID,
		Action:        domain.DecisionActionApprove,
		Notes:         "meets all criteria",
		Assessments: map[uuid.UUID]domain.CriterionAssessment{
			std.Criteria[0].ID: {Meets: domain.AssessmentLevelYes},
			std.Criteria[1].ID: {Meets: domain.AssessmentLevelPartial, Notes: "remediation planned"},
		},
		CreatedAt: now,
	}

	created, err := repo.Create(ctx, dec)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if created.Action != domain.DecisionActionApprove {
		t.Errorf("Action mismatch: got %s, want %s", created.Action, domain.DecisionActionApprove)
	}

	got, err := repo.GetByApplicationID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByApplicationID: unexpected error: %v", err)
	}
	if got.ID != dec.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, dec.ID)
	}
	if got.Notes != "meets all criteria" {
		t.Errorf("Notes mismatch: got %q", got.Notes)
	}
	if len(got.Assessments) != 2 {
		t.Fatalf("expected 2 assessments, got %d", len(got.Assessments))
	}
	a := got.Assessments[std.Criteria[1].ID]
	if a.Meets != domain.AssessmentLevelPartial || a.Notes != "remediation planned" {
		t.Errorf("assessment mismatch: got %+v", a)
	}
}

// A second decision for the same application must fail: decisions are
// written once.
func TestRepo_Create_SecondDecision(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	app, certifier, _ := seedReviewedApplication(t, pool)

	first := &domain.ReviewDecision{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		ReviewerID:    certifier.ID,
		Action:        domain.DecisionActionApprove,
		Notes:         "ok",
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create[1]: unexpected error: %v", err)
	}

	second := &domain.ReviewDecision{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		ReviewerID:    certifier.ID,
		Action:        domain.DecisionActionReject,
		Notes:         "changed my mind",
		CreatedAt:     time.Now().UTC(),
	}
	_, err := repo.Create(ctx, second)
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

func TestRepo_GetByApplicationID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByApplicationID(context.Background(), uuid.New())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}
