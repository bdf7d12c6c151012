// Package catalog serves the standards certifiers publish and applicants
// browse before applying.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

type standardRepo interface {
	Create(ctx context.Context, std *domain.Standard) (*domain.Standard, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Standard, error)
	ListPublished(ctx context.Context) ([]*domain.Standard, error)
}

// Service provides standard catalog operations.
type Service struct {
	standards standardRepo
	log       *slog.Logger
}

// NewService creates a new catalog service.
func NewService(log *slog.Logger, standards standardRepo) *Service {
	return &Service{
		standards: standards,
		log:       log.With("service", "catalog"),
	}
}

// ListPublished returns all published standards with their criteria.
// Both roles may browse the catalog.
func (s *Service) ListPublished(ctx context.Context) ([]*domain.Standard, error) {
	if _, ok := ctxutil.ActorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}

	standards, err := s.standards.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published standards: %w", err)
	}

	return standards, nil
}

// GetStandard returns one standard with its criteria. An unpublished
// standard is visible only to the certifier who owns it.
func (s *Service) GetStandard(ctx context.Context, id uuid.UUID) (*domain.Standard, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	std, err := s.standards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if !std.Published && std.CertifierID != actor.ID {
		return nil, fmt.Errorf("standard %s: %w", std.ID, domain.ErrNotFound)
	}

	return std, nil
}
