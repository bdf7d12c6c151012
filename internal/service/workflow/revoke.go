package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

// Revoke marks a certificate revoked with a mandatory reason. Only the
// certifier who oversees the certificate's application may revoke. An
// expired certificate can still be revoked; a revoked one cannot be revoked
// again.
func (s *Service) Revoke(ctx context.Context, input RevokeInput) (*domain.Certificate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	cert, err := s.certificates.GetByID(ctx, input.CertificateID)
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}

	app, err := s.applications.GetByID(ctx, cert.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if !app.IsCertifier(actor.ID) {
		return nil, fmt.Errorf("certificate %s: %w", cert.ID, domain.ErrForbidden)
	}

	now := s.now()

	var revoked *domain.Certificate
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var revokeErr error
		revoked, revokeErr = s.certificates.Revoke(txCtx, cert.ID, input.Reason, now)
		if revokeErr != nil {
			return fmt.Errorf("revoke certificate: %w", revokeErr)
		}

		if _, err := s.outbox.Enqueue(txCtx, &domain.Notification{
			ID:          uuid.New(),
			RecipientID: app.ApplicantID,
			Template:    domain.TemplateCertificateRevoked,
			Payload: map[string]any{
				"certificate_number": cert.CertificateNumber,
				"reason":             input.Reason,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actor.ID,
			EntityType: domain.EntityTypeCertificate,
			EntityID:   cert.ID,
			Action:     domain.AuditActionRevoke,
			Changes: map[string]any{
				"reason": input.Reason,
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

	s.log.InfoContext(ctx, "certificate revoked",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("certifier_id", actor.ID.String()),
	)

	return revoked, nil
}
