package domain

import (
	"fmt"
	"strings"
)

// UrgencyLevel is the priority tier of a blood request. It controls the search
// radius, the number of matches returned, the score multiplier and the delivery path.
// swagger:model UrgencyLevel
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// DeliveryPath tells the notification sender how to deliver a match list.
type DeliveryPath string

const (
	DeliveryUrgentBroadcast DeliveryPath = "urgent_broadcast"
	DeliveryStandardBulk    DeliveryPath = "standard_bulk"
)

type urgencyPolicy struct {
	radiusKm   float64
	maxResults int
	multiplier float64
	delivery   DeliveryPath
}

var urgencyPolicies = map[UrgencyLevel]urgencyPolicy{
	UrgencyCritical: {radiusKm: 100, maxResults: 20, multiplier: 1.5, delivery: DeliveryUrgentBroadcast},
	UrgencyHigh:     {radiusKm: 50, maxResults: 15, multiplier: 1.3, delivery: DeliveryStandardBulk},
	UrgencyMedium:   {radiusKm: 25, maxResults: 10, multiplier: 1.1, delivery: DeliveryStandardBulk},
	UrgencyLow:      {radiusKm: 15, maxResults: 5, multiplier: 1.0, delivery: DeliveryStandardBulk},
}

// ParseUrgencyLevel normalizes s and returns the matching UrgencyLevel, or ErrInvalidUrgency.
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	u := UrgencyLevel(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUrgency, s)
	}
	return u, nil
}

// Valid reports whether u is a known urgency level.
func (u UrgencyLevel) Valid() bool {
	_, ok := urgencyPolicies[u]
	return ok
}

// SearchRadiusKm is the default candidate search radius for u. Unknown levels use the low tier.
func (u UrgencyLevel) SearchRadiusKm() float64 { return u.policy().radiusKm }

// MaxResults is the number of ranked matches kept for u.
func (u UrgencyLevel) MaxResults() int { return u.policy().maxResults }

// ScoreMultiplier is applied to the running match score.
func (u UrgencyLevel) ScoreMultiplier() float64 { return u.policy().multiplier }

// DeliveryPath is the notification path for matches at this urgency.
func (u UrgencyLevel) DeliveryPath() DeliveryPath { return u.policy().delivery }

func (u UrgencyLevel) policy() urgencyPolicy {
	if p, ok := urgencyPolicies[u]; ok {
		return p
	}
	return urgencyPolicies[UrgencyLow]
}
