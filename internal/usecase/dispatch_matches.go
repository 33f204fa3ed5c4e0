package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bloodbridge/internal/domain"
)

// DispatchConfig tunes the dispatch use case.
type DispatchConfig struct {
	// Timeout bounds every use-case call.
	Timeout time.Duration
	// LockTTL is how long a request stays locked if the holder never releases it.
	LockTTL time.Duration
}

type dispatchMatchesUseCase struct {
	requests domain.BloodRequestRepository
	engine   domain.MatchingService
	notifier domain.MatchNotifier
	locker   domain.RequestLocker
	logger   *slog.Logger

	contextTimeout time.Duration
	lockTTL        time.Duration
}

// NewDispatchUseCase wires the matching engine to stored blood requests. Runs for
// one request are serialized by locker; the write-back is guarded by the
// request version.
func NewDispatchUseCase(requests domain.BloodRequestRepository, engine domain.MatchingService, notifier domain.MatchNotifier, locker domain.RequestLocker, logger *slog.Logger, cfg DispatchConfig) domain.DispatchUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Timeout
	}
	return &dispatchMatchesUseCase{
		requests:       requests,
		engine:         engine,
		notifier:       notifier,
		locker:         locker,
		logger:         logger,
		contextTimeout: cfg.Timeout,
		lockTTL:        cfg.LockTTL,
	}
}

func (uc *dispatchMatchesUseCase) DispatchMatches(ctx context.Context, requestID string) (*domain.MatchResult, error) {
	return uc.run(ctx, requestID, func(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
		return uc.engine.FindMatches(ctx, req)
	})
}

func (uc *dispatchMatchesUseCase) ExpandSearch(ctx context.Context, requestID string, radiusKm float64) (*domain.MatchResult, error) {
	return uc.run(ctx, requestID, func(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
		return uc.engine.ExpandSearch(ctx, req, radiusKm)
	})
}

func (uc *dispatchMatchesUseCase) GetMatches(ctx context.Context, requestID string) ([]*domain.DonorMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.contextTimeout)
	defer cancel()

	if _, err := uc.requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return uc.requests.ListMatches(ctx, requestID)
}

func (uc *dispatchMatchesUseCase) Preview(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.contextTimeout)
	defer cancel()

	return uc.engine.FindMatches(ctx, req)
}

type matchFunc func(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error)

func (uc *dispatchMatchesUseCase) run(ctx context.Context, requestID string, match matchFunc) (*domain.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.contextTimeout)
	defer cancel()

	release, err := uc.locker.Acquire(ctx, "request:"+requestID, uc.lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.WarnContext(ctx, "failed to release request lock", "request_id", requestID, "error", err)
		}
	}()

	req, err := uc.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result, err := match(ctx, req.MatchRequest())
	if err != nil {
		return nil, err
	}

	if err := uc.requests.SaveMatches(ctx, req.ID, req.Version, result.Matches); err != nil {
		return nil, fmt.Errorf("failed to save matches: %w", err)
	}

	// Matches are persisted at this point; delivery problems are reported only.
	if err := uc.notifier.NotifyMatches(ctx, result); err != nil {
		uc.logger.WarnContext(ctx, "donor notification incomplete", "request_id", requestID, "error", err)
	}
	return result, nil
}
