package postgres

import (
	"context"
	"database/sql"
	"time"

	"bloodbridge/internal/domain"

	"github.com/lib/pq"
)

type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a domain.NotificationRecorder implemented with Postgres.
func NewNotificationRepository(db *sql.DB) domain.NotificationRecorder {
	return &notificationRepository{DB: db}
}

// RecordSent inserts one row per donor. An empty requestID is stored as NULL.
func (r *notificationRepository) RecordSent(ctx context.Context, requestID string, donorIDs []string, sentAt time.Time) error {
	if len(donorIDs) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO donor_notifications (donor_id, request_id, sent_at)
		SELECT t.donor_id, NULLIF($1, '')::uuid, $3
		FROM unnest($2::uuid[]) AS t(donor_id)
	`, requestID, pq.Array(donorIDs), sentAt)
	return err
}
