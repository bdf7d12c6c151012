package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

type standardRepoMock struct {
	CreateFunc        func(ctx context.Context, std *domain.Standard) (*domain.Standard, error)
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
	ListPublishedFunc func(ctx context.Context) ([]*domain.Standard, error)
}

func (m *standardRepoMock) Create(ctx context.Context, std *domain.Standard) (*domain.Standard, error) {
	return m.CreateFunc(ctx, std)
}
func (m *standardRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *standardRepoMock) ListPublished(ctx context.Context) ([]*domain.Standard, error) {
	return m.ListPublishedFunc(ctx)
}

func newTestService(t *testing.T, repo *standardRepoMock) *Service {
	t.Helper()
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func actorCtx(id uuid.UUID, role domain.Role) context.Context {
	return ctxutil.WithActor(context.Background(), ctxutil.Actor{ID: id, Role: role})
}

func TestService_CreateStandard(t *testing.T) {
	t.Parallel()

	certifierID := uuid.New()

	var created *domain.Standard
	repo := &standardRepoMock{
		CreateFunc: func(_ context.Context, std *domain.Standard) (*domain.Standard, error) {
			created = std
			return std, nil
		},
	}

	svc := newTestService(t, repo)
	got, err := svc.CreateStandard(actorCtx(certifierID, domain.RoleCertifier), CreateStandardInput{
		Name:           "  SOC 2 Type II Readiness ",
		ValidityMonths: 12,
		Published:      true,
		Criteria: []CriterionInput{
			{Title: "Access control policy"},
			{Title: "Incident response runbook"},
		},
	})
	if err != nil {
		t.Fatalf("CreateStandard: unexpected error: %v", err)
	}

	if got.Name != "SOC 2 Type II Readiness" {
		t.Errorf("Name must be trimmed, got %q", got.Name)
	}
	if got.CertifierID != certifierID {
		t.Errorf("CertifierID mismatch: got %s", got.CertifierID)
	}
	if len(created.Criteria) != 2 {
		t.Fatalf("expected 2 criteria, got %d", len(created.Criteria))
	}
	if created.Criteria[0].Position != 1 || created.Criteria[1].Position != 2 {
		t.Errorf("positions must follow input order, got %d and %d",
			created.Criteria[0].Position, created.Criteria[1].Position)
	}
}

func TestService_CreateStandard_Errors(t *testing.T) {
	t.Parallel()

	certifierID := uuid.New()

	tests := []struct {
		name    string
		role    domain.Role
		input   CreateStandardInput
		wantErr error
	}{
		{
			name:    "applicant cannot create",
			role:    domain.RoleApplicant,
			input:   CreateStandardInput{Name: "X", ValidityMonths: 12, Criteria: []CriterionInput{{Title: "a"}}},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "missing name",
			role:    domain.RoleCertifier,
			input:   CreateStandardInput{ValidityMonths: 12, Criteria: []CriterionInput{{Title: "a"}}},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "no criteria",
			role:    domain.RoleCertifier,
			input:   CreateStandardInput{Name: "X", ValidityMonths: 12},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "zero validity",
			role:    domain.RoleCertifier,
			input:   CreateStandardInput{Name: "X", Criteria: []CriterionInput{{Title: "a"}}},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "blank criterion title",
			role:    domain.RoleCertifier,
			input:   CreateStandardInput{Name: "X", ValidityMonths: 12, Criteria: []CriterionInput{{Title: "   "}}},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t, &standardRepoMock{})
			_, err := svc.CreateStandard(actorCtx(certifierID, tt.role), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_ListPublished(t *testing.T) {
	t.Parallel()

	repo := &standardRepoMock{
		ListPublishedFunc: func(_ context.Context) ([]*domain.Standard, error) {
			return []*domain.Standard{{ID: uuid.New()}, {ID: uuid.New()}}, nil
		},
	}

	svc := newTestService(t, repo)
	standards, err := svc.ListPublished(actorCtx(uuid.New(), domain.RoleApplicant))
	if err != nil {
		t.Fatalf("ListPublished: unexpected error: %v", err)
	}
	if len(standards) != 2 {
		t.Errorf("expected 2 standards, got %d", len(standards))
	}
}

func TestService_ListPublished_NoActor(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &standardRepoMock{})
	_, err := svc.ListPublished(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestService_GetStandard(t *testing.T) {
	t.Parallel()

	certifierID := uuid.New()

	t.Run("published visible to anyone", func(t *testing.T) {
		t.Parallel()

		std := &domain.Standard{ID: uuid.New(), CertifierID: certifierID, Published: true}
		repo := &standardRepoMock{
			GetByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
				return std, nil
			},
		}

		svc := newTestService(t, repo)
		got, err := svc.GetStandard(actorCtx(uuid.New(), domain.RoleApplicant), std.ID)
		if err != nil {
			t.Fatalf("GetStandard: unexpected error: %v", err)
		}
		if got.ID != std.ID {
			t.Error("standard mismatch")
		}
	})

	t.Run("unpublished hidden from others", func(t *testing.T) {
		t.Parallel()

		std := &domain.Standard{ID: uuid.New(), CertifierID: certifierID, Published: false}
		repo := &standardRepoMock{
			GetByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Standard, error) {
				return std, nil
			},
		}

		svc := newTestService(t, repo)
		if _, err := svc.GetStandard(actorCtx(certifierID, domain.RoleCertifier), std.ID); err != nil {
			t.Fatalf("owner must see their unpublished standard: %v", err)
		}

		_, err := svc.GetStandard(actorCtx(uuid.New(), domain.RoleApplicant), std.ID)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for non-owner, got: %v", err)
		}
	})
}
