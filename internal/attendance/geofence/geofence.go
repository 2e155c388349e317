// Package geofence evaluates check-in locations against configured
// office circles. It only ever flags; admission is the engine's call.
package geofence

import (
	"math"

	"github.com/attendly/attendance-backend/internal/attendance/repository"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0
	// AccuracyThresholdMeters flags readings with worse GPS accuracy.
	AccuracyThresholdMeters = 50.0
)

// Result of a geofence evaluation. Valid is always true; Flagged marks
// the record for later review.
type Result struct {
	Valid   bool
	Flagged bool
	Reason  string
}

// Evaluate checks a coordinate against the active office locations.
func Evaluate(lat, lng float64, accuracyMeters *float64, offices []repository.OfficeLocation) Result {
	if len(offices) == 0 {
		return Result{Valid: true, Flagged: true, Reason: "No office locations configured"}
	}

	if accuracyMeters != nil && *accuracyMeters > AccuracyThresholdMeters {
		return Result{Valid: true, Flagged: true, Reason: "GPS accuracy too low"}
	}

	for _, office := range offices {
		if Haversine(lat, lng, office.Latitude, office.Longitude) <= office.RadiusMeters {
			return Result{Valid: true, Flagged: false}
		}
	}

	return Result{Valid: true, Flagged: true, Reason: "Outside office premises"}
}

// Haversine returns the great-circle distance in meters between two coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
