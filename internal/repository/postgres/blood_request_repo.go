package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloodbridge/internal/domain"

	"github.com/lib/pq"
)

type bloodRequestRepository struct {
	DB *sql.DB
}

// NewBloodRequestRepository returns a domain.BloodRequestRepository implemented with Postgres.
func NewBloodRequestRepository(db *sql.DB) domain.BloodRequestRepository {
	return &bloodRequestRepository{DB: db}
}

func (r *bloodRequestRepository) GetByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	query := `
		SELECT id, requester_id, blood_type, latitude, longitude, urgency, status, version, created_at, updated_at
		FROM blood_requests
		WHERE id = $1
	`
	var (
		req         domain.BloodRequest
		requesterID sql.NullString
		bloodType   string
		urgency     string
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &requesterID, &bloodType, &req.Location.Latitude, &req.Location.Longitude,
		&urgency, &req.Status, &req.Version, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	req.RequesterID = requesterID.String
	if req.BloodType, err = domain.ParseBloodType(bloodType); err != nil {
		return nil, fmt.Errorf("blood request %s: %w", id, err)
	}
	if req.Urgency, err = domain.ParseUrgencyLevel(urgency); err != nil {
		return nil, fmt.Errorf("blood request %s: %w", id, err)
	}
	return &req, nil
}

func (r *bloodRequestRepository) SaveMatches(ctx context.Context, requestID string, expectedVersion int64, matches []*domain.DonorMatch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	status := domain.RequestStatusMatched
	if len(matches) == 0 {
		status = domain.RequestStatusNoDonors
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE blood_requests SET version = version + 1, status = $3, updated_at = NOW() WHERE id = $1 AND version = $2`,
		requestID, expectedVersion, status)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM blood_request_matches WHERE request_id = $1`, requestID); err != nil {
		return err
	}

	if len(matches) > 0 {
		cols, err := matchColumnsOf(matches)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO blood_request_matches (
				request_id, donor_id, blood_type, rank, score, distance_km, available,
				next_available_date, restrictions,
				response_rate, avg_response_minutes, completion_rate, fallback)
			SELECT $1, t.donor_id, t.blood_type, t.rank, t.score, t.distance_km, t.available,
				NULLIF(t.next_available_date, '')::timestamptz,
				ARRAY(SELECT jsonb_array_elements_text(t.restrictions)),
				t.response_rate, t.avg_response_minutes, t.completion_rate, t.fallback
			FROM unnest($2::uuid[], $3::text[], $4::int[], $5::float8[], $6::float8[], $7::bool[],
			            $8::text[], $9::jsonb[],
			            $10::float8[], $11::float8[], $12::float8[], $13::bool[])
			     AS t(donor_id, blood_type, rank, score, distance_km, available,
			          next_available_date, restrictions,
			          response_rate, avg_response_minutes, completion_rate, fallback)
		`, requestID, pq.Array(cols.donorIDs), pq.Array(cols.bloodTypes), pq.Array(cols.ranks),
			pq.Array(cols.scores), pq.Array(cols.distances), pq.Array(cols.available),
			pq.Array(cols.nextAvailable), pq.Array(cols.restrictions),
			pq.Array(cols.responseRates), pq.Array(cols.avgMinutes), pq.Array(cols.completionRates), pq.Array(cols.fallback))
		if err != nil {
			var perr *pq.Error
			if errors.As(err, &perr) && perr.Code == "23503" {
				return fmt.Errorf("%w: match references unknown donor", domain.ErrInvalidInput)
			}
			return err
		}
	}

	return tx.Commit()
}

// matchColumns holds one array per blood_request_matches column for a single unnest insert.
type matchColumns struct {
	donorIDs        []string
	bloodTypes      []string
	ranks           []int64
	scores          []float64
	distances       []float64
	available       []bool
	nextAvailable   []string // RFC 3339, empty for NULL
	restrictions    []string // JSON array per row
	responseRates   []float64
	avgMinutes      []float64
	completionRates []float64
	fallback        []bool
}

func matchColumnsOf(matches []*domain.DonorMatch) (*matchColumns, error) {
	n := len(matches)
	c := &matchColumns{
		donorIDs:        make([]string, n),
		bloodTypes:      make([]string, n),
		ranks:           make([]int64, n),
		scores:          make([]float64, n),
		distances:       make([]float64, n),
		available:       make([]bool, n),
		nextAvailable:   make([]string, n),
		restrictions:    make([]string, n),
		responseRates:   make([]float64, n),
		avgMinutes:      make([]float64, n),
		completionRates: make([]float64, n),
		fallback:        make([]bool, n),
	}
	for i, m := range matches {
		c.donorIDs[i] = m.DonorID
		c.bloodTypes[i] = m.BloodType.String()
		c.ranks[i] = int64(m.Rank)
		c.scores[i] = m.Score
		c.distances[i] = m.DistanceKm
		c.available[i] = m.Availability.Available
		if next := m.Availability.NextAvailableDate; next != nil {
			c.nextAvailable[i] = next.UTC().Format(time.RFC3339Nano)
		}
		restrictions := m.Availability.Restrictions
		if restrictions == nil {
			restrictions = []string{}
		}
		raw, err := json.Marshal(restrictions)
		if err != nil {
			return nil, fmt.Errorf("encode restrictions for donor %s: %w", m.DonorID, err)
		}
		c.restrictions[i] = string(raw)
		c.responseRates[i] = m.Response.ResponseRate
		c.avgMinutes[i] = m.Response.AvgResponseMinutes
		c.completionRates[i] = m.Response.CompletionRate
		c.fallback[i] = m.Response.Fallback
	}
	return c, nil
}

func (r *bloodRequestRepository) ListMatches(ctx context.Context, requestID string) ([]*domain.DonorMatch, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT donor_id, blood_type, rank, score, distance_km, available,
		       next_available_date, restrictions,
		       response_rate, avg_response_minutes, completion_rate, fallback
		FROM blood_request_matches
		WHERE request_id = $1
		ORDER BY rank
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []*domain.DonorMatch{}
	for rows.Next() {
		var (
			m             domain.DonorMatch
			bloodType     string
			nextAvailable sql.NullTime
			restrictions  []string
		)
		if err := rows.Scan(&m.DonorID, &bloodType, &m.Rank, &m.Score, &m.DistanceKm, &m.Availability.Available,
			&nextAvailable, pq.Array(&restrictions),
			&m.Response.ResponseRate, &m.Response.AvgResponseMinutes, &m.Response.CompletionRate, &m.Response.Fallback); err != nil {
			return nil, err
		}
		m.BloodType = domain.BloodType(bloodType)
		if nextAvailable.Valid {
			next := nextAvailable.Time
			m.Availability.NextAvailableDate = &next
		}
		if restrictions == nil {
			restrictions = []string{}
		}
		m.Availability.Restrictions = restrictions
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
