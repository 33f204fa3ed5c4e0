package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"bloodbridge/internal/domain"
)

// Score weights.
const (
	baseScore              = 100.0
	exactMatchBonus        = 20.0
	maxDistanceScore       = 50.0
	maxAvailabilityScore   = 30.0
	maxResponseScore       = 20.0
	recentDonationPenalty  = 50.0
	inactiveDonorPenalty   = 10.0
	inactiveDonorThreshold = 365 * day
	MaxScore               = 300.0
)

// ScoreInput is everything the scorer needs for one candidate.
type ScoreInput struct {
	Candidate    *domain.DonorCandidate
	Request      domain.MatchRequest
	DistanceKm   float64
	RadiusKm     float64
	Availability domain.AvailabilityStatus
	Response     domain.ResponseStats
	Now          time.Time
}

// Score computes a match score in [0, MaxScore]. Incompatible pairs score exactly 0.
func Score(in ScoreInput) float64 {
	if !domain.IsCompatible(in.Candidate.BloodType, in.Request.BloodType) {
		return 0
	}

	score := baseScore
	if in.Candidate.BloodType == in.Request.BloodType {
		score += exactMatchBonus
	}
	score += distanceScore(in.DistanceKm, in.RadiusKm)
	score += availabilityScore(in.Availability, in.Now)
	score += maxResponseScore * unitRate(in.Response.ResponseRate)

	if last := in.Candidate.LastDonationDate; last != nil {
		since := in.Now.Sub(*last)
		switch {
		case since < DonationInterval:
			score -= recentDonationPenalty
		case since > inactiveDonorThreshold:
			score -= inactiveDonorPenalty
		}
	}

	score *= in.Request.Urgency.ScoreMultiplier()
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(MaxScore, score))
}

// unitRate clamps a rate into [0, 1]; non-finite rates count as 0.
func unitRate(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, r))
}

// distanceScore decays linearly from maxDistanceScore at 0 km to 0 at the radius edge.
func distanceScore(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		return 0
	}
	return math.Max(0, maxDistanceScore-(distanceKm/radiusKm)*maxDistanceScore)
}

func availabilityScore(status domain.AvailabilityStatus, now time.Time) float64 {
	if status.Available {
		return maxAvailabilityScore
	}
	if status.NextAvailableDate == nil {
		return 0
	}
	daysUntil := math.Ceil(status.NextAvailableDate.Sub(now).Hours() / 24)
	return math.Max(0, maxAvailabilityScore-daysUntil)
}

// ResponseStatsFrom derives scoring stats from a donor's history. A nil history
// or one with no notifications received uses defaults.
func ResponseStatsFrom(h *domain.ResponseHistory, defaults domain.HistoryDefaults) domain.ResponseStats {
	if h == nil || h.NotificationsReceived <= 0 {
		return domain.ResponseStats{
			ResponseRate:       defaults.ResponseRate,
			AvgResponseMinutes: defaults.AvgResponseMinutes,
			CompletionRate:     defaults.CompletionRate,
			Fallback:           true,
		}
	}
	received := float64(max(1, h.NotificationsReceived))
	avg := h.AvgResponseMinutes
	if avg <= 0 {
		avg = defaults.AvgResponseMinutes
	}
	return domain.ResponseStats{
		ResponseRate:       math.Min(1, float64(h.Responses)/received),
		AvgResponseMinutes: avg,
		CompletionRate:     math.Min(1, float64(h.DonationsCompleted)/received),
	}
}

// RankMatches orders matches by descending score, keeps the top limit and assigns
// 1-based ranks. Equal scores keep their incoming order.
func RankMatches(matches []*domain.DonorMatch, limit int) []*domain.DonorMatch {
	ranked := slices.Clone(matches)
	slices.SortStableFunc(ranked, func(a, b *domain.DonorMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i, m := range ranked {
		m.Rank = i + 1
	}
	return ranked
}
