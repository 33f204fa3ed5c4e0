package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge/internal/domain"
)

var requestColumns = []string{"id", "requester_id", "blood_type", "latitude", "longitude", "urgency", "status", "version", "created_at", "updated_at"}

func TestBloodRequestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.BloodRequest
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blood_requests`).
					WithArgs("req-1").
					WillReturnRows(sqlmock.NewRows(requestColumns).
						AddRow("req-1", "user-1", "AB-", 23.81, 90.41, "high", "open", 3, created, created))
			},
			want: &domain.BloodRequest{
				ID:          "req-1",
				RequesterID: "user-1",
				BloodType:   domain.BloodTypeABNeg,
				Location:    domain.Coordinates{Latitude: 23.81, Longitude: 90.41},
				Urgency:     domain.UrgencyHigh,
				Status:      domain.RequestStatusOpen,
				Version:     3,
				CreatedAt:   created,
				UpdatedAt:   created,
			},
		},
		{
			name: "anonymous requester",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blood_requests`).
					WithArgs("req-1").
					WillReturnRows(sqlmock.NewRows(requestColumns).
						AddRow("req-1", nil, "O+", 1.0, 2.0, "low", "open", 1, created, created))
			},
			want: &domain.BloodRequest{
				ID:        "req-1",
				BloodType: domain.BloodTypeOPos,
				Location:  domain.Coordinates{Latitude: 1, Longitude: 2},
				Urgency:   domain.UrgencyLow,
				Status:    domain.RequestStatusOpen,
				Version:   1,
				CreatedAt: created,
				UpdatedAt: created,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blood_requests`).WithArgs("req-1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "stored urgency is invalid",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blood_requests`).
					WithArgs("req-1").
					WillReturnRows(sqlmock.NewRows(requestColumns).
						AddRow("req-1", nil, "O+", 1.0, 2.0, "asap", "open", 1, created, created))
			},
			wantErr: domain.ErrInvalidUrgency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewBloodRequestRepository(db).GetByID(ctx, "req-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// containsArg matches a driver value whose text form contains every fragment.
type containsArg []string

func (c containsArg) Match(v driver.Value) bool {
	var text string
	switch x := v.(type) {
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		text = fmt.Sprint(x)
	}
	for _, frag := range c {
		if !strings.Contains(text, frag) {
			return false
		}
	}
	return true
}

func TestBloodRequestRepository_SaveMatches(t *testing.T) {
	ctx := context.Background()
	next := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	matches := []*domain.DonorMatch{
		{DonorID: "d1", BloodType: domain.BloodTypeONeg, Rank: 1, Score: 300, DistanceKm: 5,
			Availability: domain.AvailabilityStatus{Available: true, Restrictions: []string{}},
			Response:     domain.ResponseStats{ResponseRate: 0.75, AvgResponseMinutes: 12, CompletionRate: 0.5}},
		{DonorID: "d2", BloodType: domain.BloodTypeONeg, Rank: 2, Score: 210, DistanceKm: 9,
			Availability: domain.AvailabilityStatus{NextAvailableDate: &next, Restrictions: []string{"cooldown"}},
			Response:     domain.ResponseStats{ResponseRate: 0.5, AvgResponseMinutes: 30, CompletionRate: 0.3, Fallback: true}},
	}

	tests := []struct {
		name    string
		matches []*domain.DonorMatch
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
		anyErr  bool
	}{
		{
			name:    "replaces matches and bumps version",
			matches: matches,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE blood_requests SET version = version \+ 1`).
					WithArgs("req-1", int64(4), domain.RequestStatusMatched).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM blood_request_matches`).
					WithArgs("req-1").
					WillReturnResult(sqlmock.NewResult(0, 3))
				mock.ExpectExec(`INSERT INTO blood_request_matches`).
					WithArgs("req-1",
						containsArg{"d1", "d2"}, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
						containsArg{"2025-08-20T00:00:00Z"}, containsArg{"[]", "cooldown"},
						containsArg{"0.75", "0.5"}, containsArg{"12", "30"}, containsArg{"0.3"}, containsArg{"f", "t"}).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
		},
		{
			name:    "empty result marks no donors",
			matches: nil,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE blood_requests`).
					WithArgs("req-1", int64(4), domain.RequestStatusNoDonors).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM blood_request_matches`).
					WithArgs("req-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
		{
			name:    "stale version conflicts",
			matches: matches,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE blood_requests`).
					WithArgs("req-1", int64(4), domain.RequestStatusMatched).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrVersionConflict,
		},
		{
			name:    "unknown donor is invalid input",
			matches: matches,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE blood_requests`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM blood_request_matches`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO blood_request_matches`).WillReturnError(&pq.Error{Code: "23503"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "begin fails",
			matches: matches,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(sql.ErrConnDone)
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewBloodRequestRepository(db).SaveMatches(ctx, "req-1", 4, tt.matches)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBloodRequestRepository_ListMatches(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	next := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM blood_request_matches`).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"donor_id", "blood_type", "rank", "score", "distance_km", "available",
			"next_available_date", "restrictions",
			"response_rate", "avg_response_minutes", "completion_rate", "fallback",
		}).
			AddRow("d1", "O-", 1, 300.0, 5.0, true, nil, []byte("{}"), 0.75, 12.0, 0.5, false).
			AddRow("d2", "O-", 2, 210.0, 9.0, false, next, []byte(`{"last donation was 20 days ago"}`), 0.5, 30.0, 0.3, true))

	got, err := NewBloodRequestRepository(db).ListMatches(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, &domain.DonorMatch{
		DonorID:      "d1",
		BloodType:    domain.BloodTypeONeg,
		Rank:         1,
		Score:        300,
		DistanceKm:   5,
		Availability: domain.AvailabilityStatus{Available: true, Restrictions: []string{}},
		Response:     domain.ResponseStats{ResponseRate: 0.75, AvgResponseMinutes: 12, CompletionRate: 0.5},
	}, got[0])
	assert.Equal(t, &domain.DonorMatch{
		DonorID:    "d2",
		BloodType:  domain.BloodTypeONeg,
		Rank:       2,
		Score:      210,
		DistanceKm: 9,
		Availability: domain.AvailabilityStatus{
			NextAvailableDate: &next,
			Restrictions:      []string{"last donation was 20 days ago"},
		},
		Response: domain.ResponseStats{ResponseRate: 0.5, AvgResponseMinutes: 30, CompletionRate: 0.3, Fallback: true},
	}, got[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchColumnsOf_NilRestrictions(t *testing.T) {
	cols, err := matchColumnsOf([]*domain.DonorMatch{{DonorID: "d1", BloodType: domain.BloodTypeAPos}})
	require.NoError(t, err)
	assert.Equal(t, []string{"[]"}, cols.restrictions)
	assert.Equal(t, []string{""}, cols.nextAvailable)
}
