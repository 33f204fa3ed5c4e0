package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bloodbridge/internal/adapters/geo"
	"bloodbridge/internal/domain"
	"bloodbridge/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDonorRepo implements domain.DonorRepository for tests.
type fakeDonorRepo struct {
	rows    []*domain.DonorCandidate
	err     error
	block   bool
	queries []domain.DonorQuery
}

func (f *fakeDonorRepo) FindCandidates(ctx context.Context, q domain.DonorQuery) ([]*domain.DonorCandidate, error) {
	f.queries = append(f.queries, q)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

// fakeHistoryRepo implements domain.ResponseHistoryRepository for tests.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	byDonor map[string]*domain.ResponseHistory
	errFor  map[string]error
	calls   int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{
		byDonor: make(map[string]*domain.ResponseHistory),
		errFor:  make(map[string]error),
	}
}

func (f *fakeHistoryRepo) GetByDonorID(ctx context.Context, donorID string) (*domain.ResponseHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errFor[donorID]; ok {
		return nil, err
	}
	if h, ok := f.byDonor[donorID]; ok {
		return h, nil
	}
	return nil, domain.ErrNotFound
}

var dhaka = domain.Coordinates{Latitude: 23.81, Longitude: 90.41}

func donorAt(id string, bt domain.BloodType, km float64) *domain.DonorCandidate {
	return &domain.DonorCandidate{
		ID:        id,
		BloodType: bt,
		Location:  geo.OffsetNorth(dhaka, km),
		Contact:   domain.Contact{Email: id + "@example.com"},
	}
}

func newTestEngine(donors domain.DonorRepository, history domain.ResponseHistoryRepository, opts ...MatchingOption) domain.MatchingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := DefaultMatchingConfig()
	cfg.SearchTimeout = 50 * time.Millisecond
	opts = append([]MatchingOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewMatchingService(donors, history, geo.Haversine, cfg, logger, opts...)
}

func TestMatchingService_FindMatches_EndToEnd(t *testing.T) {
	ctx := context.Background()
	donors := &fakeDonorRepo{rows: []*domain.DonorCandidate{
		donorAt("o-neg-5km", domain.BloodTypeONeg, 5),
		donorAt("o-pos-3km", domain.BloodTypeOPos, 3),
	}}
	engine := newTestEngine(donors, newFakeHistoryRepo())

	result, err := engine.FindMatches(ctx, domain.MatchRequest{
		RequestID: "req-1",
		BloodType: domain.BloodTypeONeg,
		Location:  dhaka,
		Urgency:   domain.UrgencyCritical,
	})
	require.NoError(t, err)

	require.Len(t, donors.queries, 1)
	q := donors.queries[0]
	assert.Equal(t, []domain.BloodType{domain.BloodTypeONeg}, q.BloodTypes)
	assert.Equal(t, 100.0, q.RadiusKm)
	assert.Equal(t, domain.MaxCandidates, q.Limit)
	assert.Equal(t, domain.StatusActive, q.Status)
	assert.ElementsMatch(t, []string{domain.RoleDonor, domain.RoleVolunteer}, q.Roles)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, "o-neg-5km", m.DonorID)
	assert.Equal(t, 1, m.Rank)
	assert.InDelta(t, 5, m.DistanceKm, 1e-6)
	assert.True(t, m.Availability.Available)
	assert.True(t, m.Response.Fallback)
	assert.InDelta(t, 0.5, m.Response.ResponseRate, 1e-9)
	// (100 + 20 + 47.5 + 30 + 10) * 1.5 clamps to 300.
	assert.Equal(t, MaxScore, m.Score)
	assert.Equal(t, "o-neg-5km@example.com", m.Contact.Email)

	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, domain.DeliveryUrgentBroadcast, result.DeliveryPath)
	assert.Equal(t, domain.UrgencyCritical, result.Urgency)
	assert.Equal(t, testNow, result.GeneratedAt)
}

func TestMatchingService_FindMatches_TopNByUrgency(t *testing.T) {
	ctx := context.Background()
	rows := make([]*domain.DonorCandidate, 0, 50)
	for i := 0; i < 50; i++ {
		rows = append(rows, donorAt(fmt.Sprintf("d%02d", i), domain.BloodTypeAPos, float64(i)*1.5+0.5))
	}
	donors := &fakeDonorRepo{rows: rows}
	engine := newTestEngine(donors, newFakeHistoryRepo())

	result, err := engine.FindMatches(ctx, domain.MatchRequest{BloodType: domain.BloodTypeAPos, Location: dhaka, Urgency: domain.UrgencyCritical})
	require.NoError(t, err)
	require.Len(t, result.Matches, 20)
	assert.Equal(t, 50, result.CandidatesConsidered)
	for i := 1; i < len(result.Matches); i++ {
		assert.GreaterOrEqual(t, result.Matches[i-1].Score, result.Matches[i].Score)
	}
	assert.Equal(t, "d00", result.Matches[0].DonorID)

	low, err := engine.FindMatches(ctx, domain.MatchRequest{BloodType: domain.BloodTypeAPos, Location: dhaka, Urgency: domain.UrgencyLow})
	require.NoError(t, err)
	assert.Len(t, low.Matches, 5)
	assert.Equal(t, 15.0, donors.queries[1].RadiusKm)
}

func TestMatchingService_StrictRadiusAndExpansion(t *testing.T) {
	ctx := context.Background()
	donors := &fakeDonorRepo{rows: []*domain.DonorCandidate{
		donorAt("near", domain.BloodTypeBPos, 10),
		donorAt("far", domain.BloodTypeBPos, 16),
	}}
	engine := newTestEngine(donors, newFakeHistoryRepo())
	req := domain.MatchRequest{BloodType: domain.BloodTypeBPos, Location: dhaka, Urgency: domain.UrgencyLow}

	result, err := engine.FindMatches(ctx, req)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "near", result.Matches[0].DonorID)
	assert.Equal(t, 15.0, result.RadiusKm)

	expanded, err := engine.ExpandSearch(ctx, req, 30)
	require.NoError(t, err)
	require.Len(t, expanded.Matches, 2)
	assert.Equal(t, 30.0, expanded.RadiusKm)
	assert.Equal(t, 30.0, donors.queries[1].RadiusKm)
}

func TestMatchingService_ExpandSearch_InvalidRadius(t *testing.T) {
	engine := newTestEngine(&fakeDonorRepo{}, newFakeHistoryRepo())
	req := domain.MatchRequest{BloodType: domain.BloodTypeBPos, Location: dhaka, Urgency: domain.UrgencyLow}

	for _, radius := range []float64{0, -5, 501} {
		_, err := engine.ExpandSearch(context.Background(), req, radius)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "radius %v", radius)
	}
}

func TestMatchingService_EligibilityFiltering(t *testing.T) {
	ctx := context.Background()
	recent := donorAt("recent", domain.BloodTypeABPos, 2)
	recent.LastDonationDate = daysAgo(10)
	rested := donorAt("rested", domain.BloodTypeABPos, 4)
	rested.LastDonationDate = daysAgo(91)
	rested.DateOfBirth = bornYearsAgo(30)
	senior := donorAt("senior", domain.BloodTypeABPos, 3)
	senior.DateOfBirth = bornYearsAgo(70)
	requester := donorAt("requester", domain.BloodTypeABPos, 1)

	donors := &fakeDonorRepo{rows: []*domain.DonorCandidate{recent, rested, senior, requester}}
	engine := newTestEngine(donors, newFakeHistoryRepo())

	result, err := engine.FindMatches(ctx, domain.MatchRequest{
		BloodType:  domain.BloodTypeABPos,
		Location:   dhaka,
		Urgency:    domain.UrgencyMedium,
		ExcludeIDs: []string{"requester"},
	})
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "rested", result.Matches[0].DonorID)
	assert.True(t, result.Matches[0].Availability.Available)
	assert.Empty(t, result.Matches[0].Availability.Restrictions)
	assert.Equal(t, "senior", result.Matches[1].DonorID, "age restriction lowers the score but keeps the donor")
	assert.False(t, result.Matches[1].Availability.Available)
	assert.Equal(t, []string{"requester"}, donors.queries[0].ExcludeIDs)
	for _, m := range result.Matches {
		assert.NotEqual(t, "recent", m.DonorID)
	}
}

func TestMatchingService_NoCandidates(t *testing.T) {
	engine := newTestEngine(&fakeDonorRepo{}, newFakeHistoryRepo())
	result, err := engine.FindMatches(context.Background(), domain.MatchRequest{BloodType: domain.BloodTypeANeg, Location: dhaka, Urgency: domain.UrgencyHigh})
	require.NoError(t, err)
	require.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
	assert.Equal(t, domain.DeliveryStandardBulk, result.DeliveryPath)
}

func TestMatchingService_SearchTimeoutYieldsNoCandidates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMatching(reg)
	history := newFakeHistoryRepo()
	engine := newTestEngine(&fakeDonorRepo{block: true}, history, WithMetrics(m))

	result, err := engine.FindMatches(context.Background(), domain.MatchRequest{BloodType: domain.BloodTypeANeg, Location: dhaka, Urgency: domain.UrgencyHigh})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Zero(t, history.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchTimeouts))
}

func TestMatchingService_CallerCancellationIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := newTestEngine(&fakeDonorRepo{block: true}, newFakeHistoryRepo())

	_, err := engine.FindMatches(ctx, domain.MatchRequest{BloodType: domain.BloodTypeANeg, Location: dhaka, Urgency: domain.UrgencyHigh})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatchingService_ReadFailures(t *testing.T) {
	req := domain.MatchRequest{BloodType: domain.BloodTypeONeg, Location: dhaka, Urgency: domain.UrgencyHigh}

	t.Run("donor reader error propagates", func(t *testing.T) {
		engine := newTestEngine(&fakeDonorRepo{err: sql.ErrConnDone}, newFakeHistoryRepo())
		_, err := engine.FindMatches(context.Background(), req)
		require.ErrorIs(t, err, sql.ErrConnDone)
	})

	t.Run("history reader error propagates", func(t *testing.T) {
		history := newFakeHistoryRepo()
		history.errFor["d2"] = sql.ErrConnDone
		donors := &fakeDonorRepo{rows: []*domain.DonorCandidate{
			donorAt("d1", domain.BloodTypeONeg, 1),
			donorAt("d2", domain.BloodTypeONeg, 2),
		}}
		engine := newTestEngine(donors, history)
		_, err := engine.FindMatches(context.Background(), req)
		require.ErrorIs(t, err, sql.ErrConnDone)
	})

	t.Run("recorded history is used", func(t *testing.T) {
		history := newFakeHistoryRepo()
		history.byDonor["d1"] = &domain.ResponseHistory{DonorID: "d1", NotificationsReceived: 4, Responses: 4, DonationsCompleted: 2, AvgResponseMinutes: 8}
		donors := &fakeDonorRepo{rows: []*domain.DonorCandidate{
			donorAt("d1", domain.BloodTypeONeg, 10),
			donorAt("d2", domain.BloodTypeONeg, 10),
		}}
		engine := newTestEngine(donors, history)
		result, err := engine.FindMatches(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, result.Matches, 2)
		assert.Equal(t, "d1", result.Matches[0].DonorID)
		assert.False(t, result.Matches[0].Response.Fallback)
		assert.Equal(t, 1.0, result.Matches[0].Response.ResponseRate)
		assert.True(t, result.Matches[1].Response.Fallback)
		assert.Equal(t, 2, history.calls)
	})
}

func TestMatchingService_InvalidRequest(t *testing.T) {
	engine := newTestEngine(&fakeDonorRepo{}, newFakeHistoryRepo())

	_, err := engine.FindMatches(context.Background(), domain.MatchRequest{BloodType: "Q", Urgency: domain.UrgencyLow})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidBloodType)

	_, err = engine.FindMatches(context.Background(), domain.MatchRequest{BloodType: domain.BloodTypeAPos, Urgency: "whenever"})
	require.ErrorIs(t, err, domain.ErrInvalidUrgency)
}
