package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// OfficeLocation is a geofence circle employees may check in from.
type OfficeLocation struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	RadiusMeters float64   `db:"radius_meters" json:"radiusMeters"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// OfficeLocationRepository handles office location data access
type OfficeLocationRepository struct {
	db *database.DB
}

// NewOfficeLocationRepository creates a new office location repository
func NewOfficeLocationRepository(db *database.DB) *OfficeLocationRepository {
	return &OfficeLocationRepository{db: db}
}

// Create inserts an office location
func (r *OfficeLocationRepository) Create(ctx context.Context, loc *OfficeLocation) error {
	query := `
		INSERT INTO office_locations (id, name, latitude, longitude, radius_meters, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := r.db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters, loc.IsActive,
	)
	if err != nil {
		return database.MapError(err, "office location")
	}
	return nil
}

// ListActive returns the active office locations
func (r *OfficeLocationRepository) ListActive(ctx context.Context) ([]OfficeLocation, error) {
	locations := []OfficeLocation{}
	query := `SELECT * FROM office_locations WHERE is_active = TRUE ORDER BY name`

	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list office locations: %w", err)
	}
	return locations, nil
}
