package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// maxNumberAttempts bounds how often an issuance recomputes its certificate
// number after losing the sequence race to a concurrent issuance. Past the
// budget the issuance aborts retryably; the application stays APPROVED.
const maxNumberAttempts = 5

// Issue creates the certificate for an APPROVED application and moves the
// application to ISSUED, all in one transaction. The certificate number is
// allocated optimistically: on a unique collision with a concurrent
// issuance the whole transaction retries with a fresh number, up to
// maxNumberAttempts.
func (s *Service) Issue(ctx context.Context, input IssueInput) (*domain.Certificate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	app, err := s.applications.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}
	if app.Status != domain.ApplicationStatusApproved {
		return nil, fmt.Errorf("application %s in status %s: %w", app.ID, app.Status, domain.ErrInvalidState)
	}

	exists, err := s.certificates.ExistsByApplicationID(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing certificate: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("application %s already has a certificate: %w", app.ID, domain.ErrConflict)
	}

	std, err := s.standards.GetByID(ctx, app.StandardID)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}

	code, err := s.numbers.NewVerificationCode(ctx)
	if err != nil {
		return nil, err
	}

	var issued *domain.Certificate
	for attempt := 1; ; attempt++ {
		issued, err = s.issueTx(ctx, actor.ID, app, std, code)
		if err == nil {
			break
		}
		// Only a lost uniqueness race is retryable.
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		// The violated constraint may be one-certificate-per-application
		// rather than the number sequence; that race has a winner already.
		if exists, checkErr := s.certificates.ExistsByApplicationID(ctx, app.ID); checkErr == nil && exists {
			return nil, fmt.Errorf("application %s already has a certificate: %w", app.ID, domain.ErrConflict)
		}
		if attempt == maxNumberAttempts {
			return nil, fmt.Errorf("allocate certificate number: %d attempts lost to concurrent issuances: %w",
				maxNumberAttempts, domain.ErrResourceExhausted)
		}
	}

	s.log.InfoContext(ctx, "certificate issued",
		slog.String("application_id", app.ID.String()),
		slog.String("certificate_id", issued.ID.String()),
		slog.String("certificate_number", issued.CertificateNumber),
	)

	return issued, nil
}

func (s *Service) issueTx(ctx context.Context, actorID uuid.UUID, app *domain.Application, std *domain.Standard, code string) (*domain.Certificate, error) {
	now := s.now()

	number, err := s.numbers.NextNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	cert := &domain.Certificate{
		ID:                uuid.New(),
		ApplicationID:     app.ID,
		CertificateNumber: number.Rendered,
		VerificationCode:  code,
		Status:            domain.CertificateStatusActive,
		IssuedAt:          now,
		ExpiresAt:         now.AddDate(0, std.ValidityMonths, 0),
	}

	var created *domain.Certificate
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.certificates.Create(txCtx, cert, number)
		if createErr != nil {
			return fmt.Errorf("create certificate: %w", createErr)
		}

		if _, err := s.applications.Transition(txCtx, domain.ApplicationTransition{
			ID:             app.ID,
			ExpectedStatus: []domain.ApplicationStatus{domain.ApplicationStatusApproved},
			NewStatus:      domain.ApplicationStatusIssued,
		}); err != nil {
			return fmt.Errorf("mark application issued: %w", err)
		}

		if _, err := s.outbox.Enqueue(txCtx, &domain.Notification{
			ID:          uuid.New(),
			RecipientID: app.ApplicantID,
			Template:    domain.TemplateCertificateIssued,
			Payload: map[string]any{
				"application_id":     app.ID.String(),
				"certificate_number": cert.CertificateNumber,
				"verification_code":  cert.VerificationCode,
				"expires_at":         cert.ExpiresAt,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID,
			EntityType: domain.EntityTypeCertificate,
			EntityID:   cert.ID,
			Action:     domain.AuditActionIssue,
			Changes: map[string]any{
				"application_id":     app.ID.String(),
				"certificate_number": cert.CertificateNumber,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
