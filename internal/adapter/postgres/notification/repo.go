// Package notification implements the notification outbox repository using
// PostgreSQL. Rows are enqueued inside the same transaction as the state
// change they announce; an external sender drains the outbox and marks rows
// sent with at-least-once semantics.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/attestly/certify-backend/internal/adapter/postgres"
	"github.com/attestly/certify-backend/internal/domain"
)

// Repo provides notification outbox persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new notification repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const notificationColumns = `id, recipient_id, template, payload, sent_at, created_at`

const enqueueSQL = `
INSERT INTO notifications (id, recipient_id, template, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + notificationColumns

const listPendingSQL = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE sent_at IS NULL
ORDER BY created_at ASC
LIMIT $1`

const markSentSQL = `
UPDATE notifications SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL`

// Enqueue appends one outbox row.
func (r *Repo) Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return nil, fmt.Errorf("notification marshal payload: %w", err)
	}

	created, err := scanNotification(querier.QueryRow(ctx, enqueueSQL,
		n.ID, n.RecipientID, n.Template, payload, n.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", n.ID, err)
	}

	return created, nil
}

// ListPending returns undelivered notifications, oldest first.
func (r *Repo) ListPending(ctx context.Context, limit int) ([]*domain.Notification, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPendingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	defer rows.Close()

	pending := []*domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		pending = append(pending, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return pending, nil
}

// MarkSent stamps a pending notification as delivered. Marking an already
// sent row is a no-op (at-least-once delivery tolerates duplicates).
func (r *Repo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, markSentSQL, id, sentAt); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n        domain.Notification
		template string
		payload  []byte
	)

	err := row.Scan(&n.ID, &n.RecipientID, &template, &payload, &n.SentAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	n.Template = domain.NotificationTemplate(template)
	if len(payload) > 0 {
		n.Payload = make(map[string]any)
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	return &n, nil
}
