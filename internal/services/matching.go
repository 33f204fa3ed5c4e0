package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"bloodbridge/internal/domain"
	"bloodbridge/internal/metrics"
)

var tracer = otel.Tracer("bloodbridge/internal/services")

// MatchingConfig holds the tunable policy of the matching engine.
type MatchingConfig struct {
	// SearchTimeout bounds the candidate query; a timeout yields no candidates.
	SearchTimeout time.Duration
	// MaxRadiusKm is the largest radius ExpandSearch accepts.
	MaxRadiusKm float64
	// HistoryConcurrency limits parallel response-history reads.
	HistoryConcurrency int
	HistoryDefaults    domain.HistoryDefaults
}

// DefaultMatchingConfig returns the stock engine policy.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		SearchTimeout:      5 * time.Second,
		MaxRadiusKm:        500,
		HistoryConcurrency: 8,
		HistoryDefaults:    domain.DefaultHistoryDefaults(),
	}
}

// MatchingOption configures a matching service.
type MatchingOption func(*matchingService)

// WithClock sets the function used to read "now". Eligibility and scoring are
// always evaluated against this value.
func WithClock(now func() time.Time) MatchingOption {
	return func(s *matchingService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Matching) MatchingOption {
	return func(s *matchingService) {
		s.metrics = m
	}
}

type matchingService struct {
	donors   domain.DonorRepository
	history  domain.ResponseHistoryRepository
	distance domain.DistanceFunc
	cfg      MatchingConfig
	logger   *slog.Logger
	metrics  *metrics.Matching
	now      func() time.Time
}

// NewMatchingService creates the matching engine with its read collaborators.
func NewMatchingService(donors domain.DonorRepository, history domain.ResponseHistoryRepository, distance domain.DistanceFunc, cfg MatchingConfig, logger *slog.Logger, opts ...MatchingOption) domain.MatchingService {
	if cfg.HistoryConcurrency <= 0 {
		cfg.HistoryConcurrency = 1
	}
	s := &matchingService{
		donors:   donors,
		history:  history,
		distance: distance,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// candidate is a donor that passed the search filters, with its computed distance.
type candidate struct {
	*domain.DonorCandidate
	distanceKm float64
}

func (s *matchingService) FindMatches(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	if err := validateMatchRequest(req); err != nil {
		return nil, err
	}
	return s.run(ctx, req, req.Urgency.SearchRadiusKm(), "initial")
}

func (s *matchingService) ExpandSearch(ctx context.Context, req domain.MatchRequest, radiusKm float64) (*domain.MatchResult, error) {
	if err := validateMatchRequest(req); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || radiusKm > s.cfg.MaxRadiusKm {
		return nil, fmt.Errorf("%w: radius must be in (0, %g] km", domain.ErrInvalidInput, s.cfg.MaxRadiusKm)
	}
	return s.run(ctx, req, radiusKm, "expanded")
}

func validateMatchRequest(req domain.MatchRequest) error {
	if !req.BloodType.Valid() {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvalidBloodType)
	}
	if !req.Urgency.Valid() {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvalidUrgency)
	}
	return nil
}

func (s *matchingService) run(ctx context.Context, req domain.MatchRequest, radiusKm float64, kind string) (*domain.MatchResult, error) {
	ctx, span := tracer.Start(ctx, "matching."+kind)
	defer span.End()
	span.SetAttributes(
		attribute.String("blood_type", req.BloodType.String()),
		attribute.String("urgency", string(req.Urgency)),
		attribute.Float64("radius_km", radiusKm),
	)

	start := time.Now()
	now := s.now()

	candidates, err := s.findCandidates(ctx, req, radiusKm, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate search failed")
		return nil, err
	}
	stats, err := s.loadResponseStats(ctx, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response history read failed")
		return nil, err
	}

	matches := make([]*domain.DonorMatch, 0, len(candidates))
	for i, c := range candidates {
		availability := CheckAvailability(c.DonorCandidate, now)
		score := Score(ScoreInput{
			Candidate:    c.DonorCandidate,
			Request:      req,
			DistanceKm:   c.distanceKm,
			RadiusKm:     radiusKm,
			Availability: availability,
			Response:     stats[i],
			Now:          now,
		})
		matches = append(matches, &domain.DonorMatch{
			DonorID:      c.ID,
			BloodType:    c.BloodType,
			DistanceKm:   c.distanceKm,
			Score:        score,
			Availability: availability,
			Response:     stats[i],
			Contact:      c.Contact,
		})
	}
	ranked := RankMatches(matches, req.Urgency.MaxResults())

	s.metrics.ObserveCandidates(len(candidates))
	s.metrics.AddMatches(string(req.Urgency), len(ranked))
	s.metrics.ObserveRunLatency(kind, time.Since(start))
	span.SetAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("matches", len(ranked)))

	s.logger.InfoContext(ctx, "matching completed",
		"request_id", req.RequestID,
		"kind", kind,
		"blood_type", req.BloodType,
		"urgency", req.Urgency,
		"radius_km", radiusKm,
		"candidates", len(candidates),
		"matches", len(ranked),
	)

	return &domain.MatchResult{
		RequestID:            req.RequestID,
		BloodType:            req.BloodType,
		Urgency:              req.Urgency,
		Location:             req.Location,
		DeliveryPath:         req.Urgency.DeliveryPath(),
		RadiusKm:             radiusKm,
		CandidatesConsidered: len(candidates),
		Matches:              ranked,
		GeneratedAt:          now,
	}, nil
}

// findCandidates queries compatible donors within radiusKm and drops anyone who
// donated within the donation interval. Age is left to scoring.
func (s *matchingService) findCandidates(ctx context.Context, req domain.MatchRequest, radiusKm float64, now time.Time) ([]candidate, error) {
	compatible := domain.CompatibleDonorTypes(req.BloodType)

	searchCtx := ctx
	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.donors.FindCandidates(searchCtx, domain.DonorQuery{
		BloodTypes: compatible,
		Roles:      []string{domain.RoleDonor, domain.RoleVolunteer},
		Status:     domain.StatusActive,
		Center:     req.Location,
		RadiusKm:   radiusKm,
		ExcludeIDs: req.ExcludeIDs,
		Limit:      domain.MaxCandidates,
	})
	s.metrics.ObserveSearchLatency(time.Since(start))
	if err != nil {
		if ctx.Err() == nil && errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			s.metrics.IncrementSearchTimeouts()
			s.logger.WarnContext(ctx, "donor search timed out, treating as no candidates",
				"request_id", req.RequestID,
				"timeout", s.cfg.SearchTimeout,
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to search donors: %w", err)
	}
	if len(rows) > domain.MaxCandidates {
		rows = rows[:domain.MaxCandidates]
	}

	excluded := make(map[string]struct{}, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	out := make([]candidate, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if _, skip := excluded[row.ID]; skip {
			continue
		}
		if !domain.IsCompatible(row.BloodType, req.BloodType) {
			continue
		}
		d := s.distance(req.Location, row.Location)
		if d > radiusKm {
			continue
		}
		if status := CheckAvailability(row, now); !status.Available && status.NextAvailableDate != nil {
			continue
		}
		out = append(out, candidate{DonorCandidate: row, distanceKm: d})
	}
	return out, nil
}

// loadResponseStats reads histories concurrently. Missing histories fall back to
// the configured defaults; any other read failure fails the run.
func (s *matchingService) loadResponseStats(ctx context.Context, candidates []candidate) ([]domain.ResponseStats, error) {
	stats := make([]domain.ResponseStats, len(candidates))
	if len(candidates) == 0 {
		return stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.HistoryConcurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			h, err := s.history.GetByDonorID(gctx, c.ID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("failed to read response history for donor %s: %w", c.ID, err)
				}
				h = nil
			}
			stats[i] = ResponseStatsFrom(h, s.cfg.HistoryDefaults)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
