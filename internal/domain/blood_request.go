package domain

import (
	"context"
	"time"
)

// Blood request statuses.
const (
	RequestStatusOpen     = "open"
	RequestStatusMatched  = "matched"
	RequestStatusNoDonors = "no_donors"
)

// BloodRequest is a stored request for blood, created by the intake flow.
// swagger:model BloodRequest
type BloodRequest struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	BloodType   BloodType    `json:"blood_type"`
	Location    Coordinates  `json:"location"`
	Urgency     UrgencyLevel `json:"urgency"`
	Status      string       `json:"status"`
	Version     int64        `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MatchRequest converts the stored request into engine input. The requester is
// always excluded from their own matches.
func (r *BloodRequest) MatchRequest() MatchRequest {
	var exclude []string
	if r.RequesterID != "" {
		exclude = []string{r.RequesterID}
	}
	return MatchRequest{
		RequestID:  r.ID,
		BloodType:  r.BloodType,
		Location:   r.Location,
		Urgency:    r.Urgency,
		ExcludeIDs: exclude,
	}
}

// BloodRequestRepository stores blood requests and their computed matches.
type BloodRequestRepository interface {
	GetByID(ctx context.Context, id string) (*BloodRequest, error)
	// SaveMatches replaces the stored matches when the request is still at
	// expectedVersion, otherwise it returns ErrVersionConflict.
	SaveMatches(ctx context.Context, requestID string, expectedVersion int64, matches []*DonorMatch) error
	ListMatches(ctx context.Context, requestID string) ([]*DonorMatch, error)
}
