// Package workflow implements the certification workflow: drafting and
// submitting applications, reviewing them criterion by criterion, deciding,
// issuing certificates and revoking them.
//
// Every state-changing command runs its writes in one transaction: the
// entity mutation, the decision record where applicable, the audit record
// and the notification outbox row either all land or none do.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type applicationRepo interface {
	Create(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	UpdateDraftResponses(ctx context.Context, id uuid.UUID, responses map[uuid.UUID]domain.CriteriaResponse) (*domain.Application, error)
	Transition(ctx context.Context, params domain.ApplicationTransition) (*domain.Application, error)
	List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, int, error)
}

type certificateRepo interface {
	Create(ctx context.Context, cert *domain.Certificate, parts domain.CertificateNumber) (*domain.Certificate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Certificate, error)
	GetByVerificationCode(ctx context.Context, code string) (*domain.Certificate, error)
	ExistsByApplicationID(ctx context.Context, applicationID uuid.UUID) (bool, error)
	Revoke(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) (*domain.Certificate, error)
}

type entryRepo interface {
	Append(ctx context.Context, entry *domain.ReviewEntry) (*domain.ReviewEntry, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]domain.CriterionThread, error)
	ListByCriterion(ctx context.Context, applicationID, criterionID uuid.UUID) ([]domain.ReviewEntry, error)
}

type decisionRepo interface {
	Create(ctx context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.ReviewDecision, error)
}

type standardRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type notifier interface {
	Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error)
}

type numberGenerator interface {
	NextNumber(ctx context.Context, now time.Time) (domain.CertificateNumber, error)
	NewVerificationCode(ctx context.Context) (string, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the certification workflow business logic.
type Service struct {
	applications applicationRepo
	certificates certificateRepo
	entries      entryRepo
	decisions    decisionRepo
	standards    standardRepo
	accounts     accountRepo
	outbox       notifier
	audit        auditLogger
	numbers      numberGenerator
	tx           txManager
	log          *slog.Logger

	now func() time.Time
}

// NewService creates a new workflow service.
func NewService(
	log *slog.Logger,
	applications applicationRepo,
	certificates certificateRepo,
	entries entryRepo,
	decisions decisionRepo,
	standards standardRepo,
	accounts accountRepo,
	outbox notifier,
	audit auditLogger,
	numbers numberGenerator,
	tx txManager,
) *Service {
	return &Service{
		applications: applications,
		certificates: certificates,
		entries:      entries,
		decisions:    decisions,
		standards:    standards,
		accounts:     accounts,
		outbox:       outbox,
		audit:        audit,
		numbers:      numbers,
		tx:           tx,
		log:          log.With("service", "workflow"),
		now:          time.Now,
	}
}
