package domain

import (
	"context"
	"time"
)

// Roles that may be asked to donate.
const (
	RoleDonor     = "donor"
	RoleVolunteer = "volunteer"
)

// StatusActive is the account status required for a donor to be searched.
const StatusActive = "active"

// MaxCandidates caps a single candidate search before eligibility filtering.
const MaxCandidates = 100

// Coordinates is a geographic point in decimal degrees.
// swagger:model Coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceFunc returns the great-circle distance between a and b in kilometers.
type DistanceFunc func(a, b Coordinates) float64

// Contact holds the channels a donor can be reached on.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DonorCandidate is a read-only projection of a donor profile for one matching run.
type DonorCandidate struct {
	ID               string
	BloodType        BloodType
	Location         Coordinates
	LastDonationDate *time.Time
	DateOfBirth      *time.Time
	Contact          Contact
	// DistanceKm is the distance reported by the population reader, if any.
	DistanceKm float64
}

// ResponseHistory summarizes how a donor has reacted to past notifications.
type ResponseHistory struct {
	DonorID               string
	NotificationsReceived int
	Responses             int
	DonationsCompleted    int
	AvgResponseMinutes    float64
}

// HistoryDefaults are the values used for donors with no recorded history.
type HistoryDefaults struct {
	ResponseRate       float64
	AvgResponseMinutes float64
	CompletionRate     float64
}

// DefaultHistoryDefaults returns the stock fallback values.
func DefaultHistoryDefaults() HistoryDefaults {
	return HistoryDefaults{
		ResponseRate:       0.5,
		AvgResponseMinutes: 30,
		CompletionRate:     0.3,
	}
}

// ResponseStats is a donor's response behaviour as used for scoring.
type ResponseStats struct {
	ResponseRate       float64 `json:"response_rate"`
	AvgResponseMinutes float64 `json:"avg_response_minutes"`
	CompletionRate     float64 `json:"completion_rate"`
	Fallback           bool    `json:"fallback"`
}

// DonorQuery filters the donor population for a candidate search.
type DonorQuery struct {
	BloodTypes []BloodType
	Roles      []string
	Status     string
	Center     Coordinates
	RadiusKm   float64
	ExcludeIDs []string
	Limit      int
}

// DonorRepository reads the donor population.
type DonorRepository interface {
	FindCandidates(ctx context.Context, q DonorQuery) ([]*DonorCandidate, error)
}

// ResponseHistoryRepository reads per-donor notification aggregates.
// GetByDonorID returns ErrNotFound when the donor has never been notified.
type ResponseHistoryRepository interface {
	GetByDonorID(ctx context.Context, donorID string) (*ResponseHistory, error)
}

// NotificationRecorder writes one donor_notifications row per alerted donor.
// Those rows feed ResponseHistoryRepository.
type NotificationRecorder interface {
	RecordSent(ctx context.Context, requestID string, donorIDs []string, sentAt time.Time) error
}
