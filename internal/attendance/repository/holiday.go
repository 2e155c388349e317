package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Holiday is an office-wide non-working day, unique by date.
type Holiday struct {
	ID          string    `db:"id" json:"id"`
	Date        string    `db:"date" json:"date"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// HolidayRepository handles holiday data access
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository creates a new holiday repository
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Create inserts a holiday. The unique index on date rejects duplicates.
func (r *HolidayRepository) Create(ctx context.Context, h *Holiday) error {
	query := `
		INSERT INTO holidays (id, date, name, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())`

	_, err := r.db.ExecContext(ctx, query, h.ID, h.Date, h.Name, h.Description)
	if err != nil {
		return database.MapError(err, "holiday")
	}
	return nil
}

// GetByID fetches a holiday by ID
func (r *HolidayRepository) GetByID(ctx context.Context, id string) (*Holiday, error) {
	var h Holiday
	query := `SELECT * FROM holidays WHERE id = $1`

	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		return nil, database.MapError(err, "holiday")
	}
	return &h, nil
}

// Delete removes a holiday by ID
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err, "holiday")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if rows == 0 {
		return database.MapError(sql.ErrNoRows, "holiday")
	}
	return nil
}

// ListForMonth returns holidays in the YYYY-MM month ordered by date
func (r *HolidayRepository) ListForMonth(ctx context.Context, month string) ([]Holiday, error) {
	holidays := []Holiday{}
	query := `SELECT * FROM holidays WHERE date LIKE $1 || '-%' ORDER BY date`

	if err := r.db.SelectContext(ctx, &holidays, query, month); err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}
