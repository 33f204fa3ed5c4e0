package geo

import (
	"fmt"
	"math"

	"bloodbridge/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
// It satisfies domain.DistanceFunc.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidateCoordinates rejects out-of-range or non-finite coordinates.
func ValidateCoordinates(c domain.Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: coordinates must be finite", domain.ErrInvalidInput)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrInvalidInput)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrInvalidInput)
	}
	return nil
}

// OffsetNorth returns the point distanceKm due north of c. Used to place
// fixtures at known distances.
func OffsetNorth(c domain.Coordinates, distanceKm float64) domain.Coordinates {
	return domain.Coordinates{
		Latitude:  c.Latitude + distanceKm/EarthRadiusKm*180/math.Pi,
		Longitude: c.Longitude,
	}
}
