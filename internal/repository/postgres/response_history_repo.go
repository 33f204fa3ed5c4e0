package postgres

import (
	"context"
	"database/sql"

	"bloodbridge/internal/domain"
)

type responseHistoryRepository struct {
	DB *sql.DB
}

// NewResponseHistoryRepository returns a domain.ResponseHistoryRepository implemented with Postgres.
func NewResponseHistoryRepository(db *sql.DB) domain.ResponseHistoryRepository {
	return &responseHistoryRepository{DB: db}
}

func (r *responseHistoryRepository) GetByDonorID(ctx context.Context, donorID string) (*domain.ResponseHistory, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(responded_at),
		       COUNT(*) FILTER (WHERE donation_completed),
		       COALESCE(AVG(EXTRACT(EPOCH FROM (responded_at - sent_at)) / 60) FILTER (WHERE responded_at IS NOT NULL), 0)
		FROM donor_notifications
		WHERE donor_id = $1
	`
	h := &domain.ResponseHistory{DonorID: donorID}
	err := r.DB.QueryRowContext(ctx, query, donorID).Scan(
		&h.NotificationsReceived, &h.Responses, &h.DonationsCompleted, &h.AvgResponseMinutes)
	if err != nil {
		return nil, err
	}
	if h.NotificationsReceived == 0 {
		return nil, domain.ErrNotFound
	}
	return h, nil
}
