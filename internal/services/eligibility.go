package services

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"bloodbridge/internal/domain"
)

// Eligibility rules.
const (
	DonationInterval = 90 * 24 * time.Hour
	MinDonorAge      = 18
	MaxDonorAge      = 65
)

const day = 24 * time.Hour

// CheckAvailability decides whether candidate may donate at now. It is the only
// place eligibility rules live; candidate search and scoring both call it.
func CheckAvailability(candidate *domain.DonorCandidate, now time.Time) domain.AvailabilityStatus {
	if candidate.LastDonationDate != nil {
		last := *candidate.LastDonationDate
		if now.Sub(last) < DonationInterval {
			next := last.Add(DonationInterval)
			return domain.AvailabilityStatus{
				Available:         false,
				NextAvailableDate: &next,
				Restrictions: []string{
					fmt.Sprintf("last donation %s; must wait %d days between donations (eligible again %s)",
						humanize.RelTime(last, now, "ago", "from now"),
						int(DonationInterval/day),
						next.Format("2006-01-02")),
				},
			}
		}
	}
	if candidate.DateOfBirth != nil {
		age := AgeOn(*candidate.DateOfBirth, now)
		if age < MinDonorAge || age > MaxDonorAge {
			return domain.AvailabilityStatus{
				Available:    false,
				Restrictions: []string{fmt.Sprintf("age %d is outside the donor age range %d-%d", age, MinDonorAge, MaxDonorAge)},
			}
		}
	}
	return domain.AvailabilityStatus{Available: true, Restrictions: []string{}}
}

// AgeOn returns the age in whole years of someone born on dob, at now.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
