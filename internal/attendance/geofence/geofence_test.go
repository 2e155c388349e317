package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendly/attendance-backend/internal/attendance/repository"
)

func office(lat, lng, radius float64) repository.OfficeLocation {
	return repository.OfficeLocation{
		Name:         "HQ",
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radius,
		IsActive:     true,
	}
}

func ptr(f float64) *float64 { return &f }

func TestEvaluateNoOffices(t *testing.T) {
	result := Evaluate(12.97, 77.59, nil, nil)

	assert.True(t, result.Valid)
	assert.True(t, result.Flagged)
	assert.Equal(t, "No office locations configured", result.Reason)
}

func TestEvaluateLowAccuracy(t *testing.T) {
	offices := []repository.OfficeLocation{office(12.97, 77.59, 100)}

	result := Evaluate(12.97, 77.59, ptr(51), offices)

	assert.True(t, result.Valid)
	assert.True(t, result.Flagged)
	assert.Equal(t, "GPS accuracy too low", result.Reason)
}

func TestEvaluateAccuracyAtThreshold(t *testing.T) {
	offices := []repository.OfficeLocation{office(12.97, 77.59, 100)}

	// 50 m exactly is acceptable
	result := Evaluate(12.97, 77.59, ptr(50), offices)

	assert.False(t, result.Flagged)
}

func TestEvaluateInsideRadius(t *testing.T) {
	offices := []repository.OfficeLocation{office(12.9716, 77.5946, 100)}

	result := Evaluate(12.9716, 77.5946, nil, offices)

	assert.True(t, result.Valid)
	assert.False(t, result.Flagged)
	assert.Empty(t, result.Reason)
}

func TestEvaluateOutsideRadius(t *testing.T) {
	// ~1.1 km away from a 100 m fence
	offices := []repository.OfficeLocation{office(12.9716, 77.5946, 100)}

	result := Evaluate(12.9816, 77.5946, nil, offices)

	assert.True(t, result.Valid)
	assert.True(t, result.Flagged)
	assert.Equal(t, "Outside office premises", result.Reason)
}

func TestEvaluateSecondOfficeMatches(t *testing.T) {
	offices := []repository.OfficeLocation{
		office(12.9716, 77.5946, 100),
		office(13.0827, 80.2707, 200),
	}

	result := Evaluate(13.0827, 80.2707, nil, offices)

	assert.False(t, result.Flagged)
}

func TestHaversine(t *testing.T) {
	// Bangalore to Chennai is roughly 290 km
	d := Haversine(12.9716, 77.5946, 13.0827, 80.2707)
	assert.InDelta(t, 290_000, d, 10_000)

	// zero distance
	assert.Equal(t, 0.0, Haversine(12.97, 77.59, 12.97, 77.59))

	// one degree of latitude is about 111 km
	d = Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111_195, d, 100)
}
