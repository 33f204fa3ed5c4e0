package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"bloodbridge/internal/domain"

	"github.com/lib/pq"
)

type donorRepository struct {
	DB *sql.DB
}

// NewDonorRepository returns a domain.DonorRepository implemented with Postgres.
func NewDonorRepository(db *sql.DB) domain.DonorRepository {
	return &donorRepository{DB: db}
}

// findCandidatesQuery computes great-circle distance in SQL so the radius filter
// and ordering happen in one round trip.
const findCandidatesQuery = `
	SELECT id, blood_type, latitude, longitude, last_donation_date, date_of_birth, name, email, phone, distance_km
	FROM (
		SELECT u.id, u.blood_type, u.latitude, u.longitude, u.last_donation_date, u.date_of_birth,
		       u.name, u.email, u.phone,
		       6371 * 2 * ASIN(SQRT(LEAST(1,
		           POWER(SIN(RADIANS(u.latitude - $1) / 2), 2) +
		           COS(RADIANS($1)) * COS(RADIANS(u.latitude)) *
		           POWER(SIN(RADIANS(u.longitude - $2) / 2), 2)))) AS distance_km
		FROM users u
		WHERE u.role = ANY($3)
		  AND u.status = $4
		  AND u.blood_type = ANY($5)
		  AND u.id::text <> ALL($6)
		  AND u.latitude IS NOT NULL
		  AND u.longitude IS NOT NULL
	) c
	WHERE distance_km <= $7
	ORDER BY distance_km, id
	LIMIT $8
`

func (r *donorRepository) FindCandidates(ctx context.Context, q domain.DonorQuery) ([]*domain.DonorCandidate, error) {
	bloodTypes := make([]string, 0, len(q.BloodTypes))
	for _, bt := range q.BloodTypes {
		bloodTypes = append(bloodTypes, bt.String())
	}
	roles := append([]string{}, q.Roles...)
	exclude := append([]string{}, q.ExcludeIDs...)
	limit := q.Limit
	if limit <= 0 || limit > domain.MaxCandidates {
		limit = domain.MaxCandidates
	}

	rows, err := r.DB.QueryContext(ctx, findCandidatesQuery,
		q.Center.Latitude, q.Center.Longitude,
		pq.Array(roles), q.Status, pq.Array(bloodTypes), pq.Array(exclude),
		q.RadiusKm, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DonorCandidate
	for rows.Next() {
		var (
			c            domain.DonorCandidate
			bloodType    string
			lastDonation sql.NullTime
			dob          sql.NullTime
			phone        sql.NullString
		)
		if err := rows.Scan(&c.ID, &bloodType, &c.Location.Latitude, &c.Location.Longitude,
			&lastDonation, &dob, &c.Contact.Name, &c.Contact.Email, &phone, &c.DistanceKm); err != nil {
			return nil, err
		}
		bt, err := domain.ParseBloodType(bloodType)
		if err != nil {
			return nil, fmt.Errorf("donor %s: %w", c.ID, err)
		}
		c.BloodType = bt
		c.Contact.Phone = phone.String
		if lastDonation.Valid {
			t := lastDonation.Time
			c.LastDonationDate = &t
		}
		if dob.Valid {
			t := dob.Time
			c.DateOfBirth = &t
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
