package domain

import (
	"context"
	"time"
)

// MatchRequest is the input to a matching run. The engine never mutates it.
type MatchRequest struct {
	RequestID  string
	BloodType  BloodType
	Location   Coordinates
	Urgency    UrgencyLevel
	ExcludeIDs []string
}

// AvailabilityStatus is the eligibility verdict for a donor at a point in time.
// swagger:model AvailabilityStatus
type AvailabilityStatus struct {
	Available         bool       `json:"available"`
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
	Restrictions      []string   `json:"restrictions"`
}

// DonorMatch is one ranked candidate for a request.
// swagger:model DonorMatch
type DonorMatch struct {
	DonorID      string             `json:"donor_id"`
	BloodType    BloodType          `json:"blood_type"`
	DistanceKm   float64            `json:"distance_km"`
	Score        float64            `json:"score"`
	Rank         int                `json:"rank"`
	Availability AvailabilityStatus `json:"availability"`
	Response     ResponseStats      `json:"response"`
	Contact      Contact            `json:"-"`
}

// MatchResult is the ranked output of a matching run plus the urgency tag the
// notification sender routes on.
// swagger:model MatchResult
type MatchResult struct {
	RequestID            string        `json:"request_id,omitempty"`
	BloodType            BloodType     `json:"blood_type"`
	Urgency              UrgencyLevel  `json:"urgency"`
	Location             Coordinates   `json:"location"`
	DeliveryPath         DeliveryPath  `json:"delivery_path"`
	RadiusKm             float64       `json:"radius_km"`
	CandidatesConsidered int           `json:"candidates_considered"`
	Matches              []*DonorMatch `json:"matches"`
	GeneratedAt          time.Time     `json:"generated_at"`
}

// MatchingService ranks compatible, eligible donors for a request.
type MatchingService interface {
	FindMatches(ctx context.Context, req MatchRequest) (*MatchResult, error)
	// ExpandSearch re-runs matching with an explicit radius instead of the urgency default.
	ExpandSearch(ctx context.Context, req MatchRequest, radiusKm float64) (*MatchResult, error)
}

// MatchNotifier hands a ranked match list to donors. Delivery failures are the
// sender's concern; the engine never retries.
type MatchNotifier interface {
	NotifyMatches(ctx context.Context, result *MatchResult) error
}

// DonorAlert is the message published on the urgent broadcast path.
type DonorAlert struct {
	ID        string       `json:"id"`
	RequestID string       `json:"request_id"`
	BloodType BloodType    `json:"blood_type"`
	Urgency   UrgencyLevel `json:"urgency"`
	DonorIDs  []string     `json:"donor_ids"`
	Location  Coordinates  `json:"location"`
	RadiusKm  float64      `json:"radius_km"`
	CreatedAt time.Time    `json:"created_at"`
}

// Broadcaster publishes urgent donor alerts to a fan-out channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, alert *DonorAlert) error
}

// RequestLocker serializes matching-and-write per blood request.
// Acquire returns ErrLocked when the key is already held.
type RequestLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// DispatchUseCase runs matching for stored blood requests and owns the write-back.
type DispatchUseCase interface {
	DispatchMatches(ctx context.Context, requestID string) (*MatchResult, error)
	ExpandSearch(ctx context.Context, requestID string, radiusKm float64) (*MatchResult, error)
	GetMatches(ctx context.Context, requestID string) ([]*DonorMatch, error)
	Preview(ctx context.Context, req MatchRequest) (*MatchResult, error)
}
