package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Function-field mocks for the service's private interfaces
// ---------------------------------------------------------------------------

type applicationRepoMock struct {
	CreateFunc               func(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByIDFunc              func(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	UpdateDraftResponsesFunc func(ctx context.Context, id uuid.UUID, responses map[uuid.UUID]domain.CriteriaResponse) (*domain.Application, error)
	TransitionFunc           func(ctx context.Context, params domain.ApplicationTransition) (*domain.Application, error)
	ListFunc                 func(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, int, error)
}

func (m *applicationRepoMock) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	return m.CreateFunc(ctx, app)
}
func (m *applicationRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *applicationRepoMock) UpdateDraftResponses(ctx context.Context, id uuid.UUID, responses map[uuid.UUID]domain.CriteriaResponse) (*domain.Application, error) {
	return m.UpdateDraftResponsesFunc(ctx, id, responses)
}
func (m *applicationRepoMock) Transition(ctx context.Context, params domain.ApplicationTransition) (*domain.Application, error) {
	return m.TransitionFunc(ctx, params)
}
func (m *applicationRepoMock) List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, int, error) {
	return m.ListFunc(ctx, filter)
}

type certificateRepoMock struct {
	CreateFunc                func(ctx context.Context, cert *domain.Certificate, parts domain.CertificateNumber) (*domain.Certificate, error)
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*domain.Certificate, error)
	GetByApplicationIDFunc    func(ctx context.Context, applicationID uuid.UUID) (*domain.Certificate, error)
	GetByVerificationCodeFunc func(ctx context.Context, code string) (*domain.Certificate, error)
	ExistsByApplicationIDFunc func(ctx context.Context, applicationID uuid.UUID) (bool, error)
	RevokeFunc                func(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) (*domain.Certificate, error)
}

func (m *certificateRepoMock) Create(ctx context.Context, cert *domain.Certificate, parts domain.CertificateNumber) (*domain.Certificate, error) {
	return m.CreateFunc(ctx, cert, parts)
}
func (m *certificateRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *certificateRepoMock) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Certificate, error) {
	return m.GetByApplicationIDFunc(ctx, applicationID)
}
func (m *certificateRepoMock) GetByVerificationCode(ctx context.Context, code string) (*domain.Certificate, error) {
	return m.GetByVerificationCodeFunc(ctx, code)
}
func (m *certificateRepoMock) ExistsByApplicationID(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	return m.ExistsByApplicationIDFunc(ctx, applicationID)
}
func (m *certificateRepoMock) Revoke(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) (*domain.Certificate, error) {
	return m.RevokeFunc(ctx, id, reason, revokedAt)
}

type entryRepoMock struct {
	AppendFunc            func(ctx context.Context, entry *domain.ReviewEntry) (*domain.ReviewEntry, error)
	ListByApplicationFunc func(ctx context.Context, applicationID uuid.UUID) ([]domain.CriterionThread, error)
	ListByCriterionFunc   func(ctx context.Context, applicationID, criterionID uuid.UUID) ([]domain.ReviewEntry, error)
}

func (m *entryRepoMock) Append(ctx context.Context, entry *domain.ReviewEntry) (*domain.ReviewEntry, error) {
	return m.AppendFunc(ctx, entry)
}
func (m *entryRepoMock) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]domain.CriterionThread, error) {
	return m.ListByApplicationFunc(ctx, applicationID)
}
func (m *entryRepoMock) ListByCriterion(ctx context.Context, applicationID, criterionID uuid.UUID) ([]domain.ReviewEntry, error) {
	return m.ListByCriterionFunc(ctx, applicationID, criterionID)
}

type decisionRepoMock struct {
	CreateFunc             func(ctx context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error)
	GetByApplicationIDFunc func(ctx context.Context, applicationID uuid.UUID) (*domain.ReviewDecision, error)
}

func (m *decisionRepoMock) Create(ctx context.Context, dec *domain.ReviewDecision) (*domain.ReviewDecision, error) {
	return m.CreateFunc(ctx, dec)
}
func (m *decisionRepoMock) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.ReviewDecision, error) {
	return m.GetByApplicationIDFunc(ctx, applicationID)
}

type standardRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
}

func (m *standardRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	return m.GetByIDFunc(ctx, id)
}

type accountRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

func (m *accountRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

type notifierMock struct {
	EnqueueFunc func(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

func (m *notifierMock) Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	return m.EnqueueFunc(ctx, n)
}

type auditLoggerMock struct {
	LogFunc         func(ctx context.Context, record domain.AuditRecord) error
	GetByEntityFunc func(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error)
}

func (m *auditLoggerMock) Log(ctx context.Context, record domain.AuditRecord) error {
	return m.LogFunc(ctx, record)
}
func (m *auditLoggerMock) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	return m.GetByEntityFunc(ctx, entityType, entityID, limit)
}

type numberGeneratorMock struct {
	NextNumberFunc          func(ctx context.Context, now time.Time) (domain.CertificateNumber, error)
	NewVerificationCodeFunc func(ctx context.Context) (string, error)
}

func (m *numberGeneratorMock) NextNumber(ctx context.Context, now time.Time) (domain.CertificateNumber, error) {
	return m.NextNumberFunc(ctx, now)
}
func (m *numberGeneratorMock) NewVerificationCode(ctx context.Context) (string, error) {
	return m.NewVerificationCodeFunc(ctx)
}

// txManagerMock runs the callback inline; the repos under it are mocks, so
// transactionality itself is covered by the repo integration tests.
type txManagerMock struct{}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// deps bundles all mocks; newTestService wires them into a Service.
type deps struct {
	applications *applicationRepoMock
	certificates *certificateRepoMock
	entries      *entryRepoMock
	decisions    *decisionRepoMock
	standards    *standardRepoMock
	accounts     *accountRepoMock
	outbox       *notifierMock
	audit        *auditLoggerMock
	numbers      *numberGeneratorMock
}

func newDeps() *deps {
	return &deps{
		applications: &applicationRepoMock{},
		certificates: &certificateRepoMock{},
		entries:      &entryRepoMock{},
		decisions:    &decisionRepoMock{},
		standards:    &standardRepoMock{},
		accounts:     &accountRepoMock{},
		outbox: &notifierMock{
			EnqueueFunc: func(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
				return n, nil
			},
		},
		audit: &auditLoggerMock{
			LogFunc: func(_ context.Context, _ domain.AuditRecord) error { return nil },
		},
		numbers: &numberGeneratorMock{},
	}
}

func newTestService(t *testing.T, d *deps) *Service {
	t.Helper()
	return NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		d.applications,
		d.certificates,
		d.entries,
		d.decisions,
		d.standards,
		d.accounts,
		d.outbox,
		d.audit,
		d.numbers,
		&txManagerMock{},
	)
}

func actorCtx(id uuid.UUID, role domain.Role) context.Context {
	return ctxutil.WithActor(context.Background(), ctxutil.Actor{ID: id, Role: role})
}

// fixture entities shared by the command tests.

func testStandard(certifierID uuid.UUID, numCriteria int) *domain.Standard {
	std := &domain.Standard{
		ID:             uuid.New(),
		CertifierID:    certifierID,
		Name:           "ISO 27001 Readiness",
		ValidityMonths: 12,
		Published:      true,
	}
	for i := 0; i < numCriteria; i++ {
		std.Criteria = append(std.Criteria, domain.Criterion{
			ID:         uuid.New(),
			StandardID: std.ID,
			Title:      "Criterion",
			Position:   i + 1,
		})
	}
	return std
}

func testApplication(applicantID, certifierID uuid.UUID, std *domain.Standard, status domain.ApplicationStatus) *domain.Application {
	app := &domain.Application{
		ID:                uuid.New(),
		ApplicantID:       applicantID,
		CertifierID:       certifierID,
		StandardID:        std.ID,
		Status:            status,
		CriteriaResponses: map[uuid.UUID]domain.CriteriaResponse{},
	}
	for _, c := range std.Criteria {
		app.CriteriaResponses[c.ID] = domain.CriteriaResponse{Meets: domain.AssessmentLevelYes}
	}
	return app
}
