package application

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// builder is the shared squirrel statement builder with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// List returns applications matching the filter, newest first, plus the
// total count ignoring pagination.
func (r *Repo) List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := filterPredicates(filter)

	countSQL, countArgs, err := builder.
		Select("count(*)").
		From("applications").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	listSQL, listArgs, err := builder.
		Select("id", "applicant_id", "certifier_id", "standard_id", "status",
			"criteria_responses", "decision_notes", "submitted_at", "reviewed_at",
			"approved_at", "rejected_at", "created_at", "updated_at").
		From("applications").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := querier.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []*domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, total, nil
}

// filterPredicates builds the WHERE conjunction from the optional filter fields.
func filterPredicates(filter domain.ApplicationFilter) sq.And {
	where := sq.And{}
	if filter.ApplicantID != nil {
		where = append(where, sq.Eq{"applicant_id": *filter.ApplicantID})
	}
	if filter.CertifierID != nil {
		where = append(where, sq.Eq{"certifier_id": *filter.CertifierID})
	}
	if filter.StandardID != nil {
		where = append(where, sq.Eq{"standard_id": *filter.StandardID})
	}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": string(*filter.Status)})
	}
	if len(where) == 0 {
		// squirrel requires a non-empty conjunction; TRUE keeps the query valid.
		where = append(where, sq.Expr("TRUE"))
	}
	return where
}
