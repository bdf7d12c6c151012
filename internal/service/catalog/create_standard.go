package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/pkg/ctxutil"
)

const (
	maxNameLen        = 200
	maxDescriptionLen = 10_000
	maxCriteria       = 500
)

// CriterionInput is one checklist requirement in a new standard.
type CriterionInput struct {
	Title       string
	Description string
}

// CreateStandardInput holds the parameters for publishing a new standard.
type CreateStandardInput struct {
	Name           string
	Description    string
	ValidityMonths int
	PriceCents     int64
	Published      bool
	Criteria       []CriterionInput
}

// Validate checks all fields and collects all errors.
func (i *CreateStandardInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(i.Name) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "too long"})
	}
	if len(i.Description) > maxDescriptionLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	if i.ValidityMonths <= 0 {
		errs = append(errs, domain.FieldError{Field: "validity_months", Message: "must be positive"})
	}
	if i.PriceCents < 0 {
		errs = append(errs, domain.FieldError{Field: "price_cents", Message: "must be >= 0"})
	}
	if len(i.Criteria) == 0 {
		errs = append(errs, domain.FieldError{Field: "criteria", Message: "at least one criterion required"})
	}
	if len(i.Criteria) > maxCriteria {
		errs = append(errs, domain.FieldError{Field: "criteria", Message: "too many criteria"})
	}
	for idx, c := range i.Criteria {
		if strings.TrimSpace(c.Title) == "" {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("criteria[%d].title", idx),
				Message: "required",
			})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CreateStandard creates a standard owned by the calling certifier.
// Criterion positions follow the input order.
func (s *Service) CreateStandard(ctx context.Context, input CreateStandardInput) (*domain.Standard, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if actor.Role != domain.RoleCertifier {
		return nil, fmt.Errorf("only certifiers create standards: %w", domain.ErrForbidden)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	std := &domain.Standard{
		ID:             uuid.New(),
		CertifierID:    actor.ID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		ValidityMonths: input.ValidityMonths,
		PriceCents:     input.PriceCents,
		Published:      input.Published,
	}
	for idx, c := range input.Criteria {
		std.Criteria = append(std.Criteria, domain.Criterion{
			ID:          uuid.New(),
			StandardID:  std.ID,
			Title:       strings.TrimSpace(c.Title),
			Description: c.Description,
			Position:    idx + 1,
		})
	}

	created, err := s.standards.Create(ctx, std)
	if err != nil {
		return nil, fmt.Errorf("create standard: %w", err)
	}

	s.log.InfoContext(ctx, "standard created",
		slog.String("standard_id", created.ID.String()),
		slog.String("certifier_id", actor.ID.String()),
		slog.Int("criteria", len(created.Criteria)),
		slog.Bool("published", created.Published),
	)

	return created, nil
}
