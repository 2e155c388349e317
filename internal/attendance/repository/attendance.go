package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Status is the closed set of daily attendance outcomes.
type Status string

const (
	StatusPresent Status = "present"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusSunday  Status = "sunday"
	StatusHoliday Status = "holiday"
	StatusLeave   Status = "leave"
)

// Valid reports whether s is one of the six known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusHalfDay, StatusAbsent, StatusSunday, StatusHoliday, StatusLeave:
		return true
	}
	return false
}

// StatusForWorkHours derives the status band from worked hours.
// Under 4 hours is absent, under 6 is a half day, 6 and up is present.
func StatusForWorkHours(hours float64) Status {
	switch {
	case hours < 4:
		return StatusAbsent
	case hours < 6:
		return StatusHalfDay
	default:
		return StatusPresent
	}
}

// Attendance is one employee's record for one office-local calendar day.
// Date is stored as TEXT (YYYY-MM-DD) so that month ranges are plain
// lexicographic prefixes and no timezone conversion happens in SQL.
type Attendance struct {
	ID                string     `db:"id" json:"id"`
	EmployeeID        string     `db:"employee_id" json:"employeeId"`
	Date              string     `db:"date" json:"date"`
	Status            Status     `db:"status" json:"status"`
	CheckInTime       *time.Time `db:"check_in_time" json:"checkInTime,omitempty"`
	CheckOutTime      *time.Time `db:"check_out_time" json:"checkOutTime,omitempty"`
	CheckInLat        *float64   `db:"check_in_lat" json:"checkInLat,omitempty"`
	CheckInLng        *float64   `db:"check_in_lng" json:"checkInLng,omitempty"`
	CheckInAccuracy   *float64   `db:"check_in_accuracy" json:"checkInAccuracy,omitempty"`
	CheckOutLat       *float64   `db:"check_out_lat" json:"checkOutLat,omitempty"`
	CheckOutLng       *float64   `db:"check_out_lng" json:"checkOutLng,omitempty"`
	CheckOutAccuracy  *float64   `db:"check_out_accuracy" json:"checkOutAccuracy,omitempty"`
	WorkHours         float64    `db:"work_hours" json:"workHours"`
	IsLocationFlagged bool       `db:"is_location_flagged" json:"isLocationFlagged"`
	IsAutoCalculated  bool       `db:"is_auto_calculated" json:"isAutoCalculated"`
	IsLocked          bool       `db:"is_locked" json:"isLocked"`
	Notes             string     `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// AttendanceRepository handles attendance data access
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new attendance row. The unique index on
// (employee_id, date) is the authoritative duplicate guard.
func (r *AttendanceRepository) Create(ctx context.Context, att *Attendance) error {
	query := `
		INSERT INTO attendance (
			id, employee_id, date, status,
			check_in_time, check_out_time,
			check_in_lat, check_in_lng, check_in_accuracy,
			check_out_lat, check_out_lng, check_out_accuracy,
			work_hours, is_location_flagged, is_auto_calculated, is_locked, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		att.ID, att.EmployeeID, att.Date, att.Status,
		att.CheckInTime, att.CheckOutTime,
		att.CheckInLat, att.CheckInLng, att.CheckInAccuracy,
		att.CheckOutLat, att.CheckOutLng, att.CheckOutAccuracy,
		att.WorkHours, att.IsLocationFlagged, att.IsAutoCalculated, att.IsLocked, att.Notes,
	)
	if err != nil {
		return database.MapError(err, "attendance")
	}
	return nil
}

// GetByID fetches an attendance row by ID
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*Attendance, error) {
	var att Attendance
	query := `SELECT * FROM attendance WHERE id = $1`

	if err := r.db.GetContext(ctx, &att, query, id); err != nil {
		return nil, database.MapError(err, "attendance")
	}
	return &att, nil
}

// GetByEmployeeAndDate returns the day's row, or (nil, nil) when none
// exists. Callers branch on absence, so no-rows is not an error here.
func (r *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*Attendance, error) {
	var att Attendance
	query := `SELECT * FROM attendance WHERE employee_id = $1 AND date = $2`

	err := r.db.GetContext(ctx, &att, query, employeeID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &att, nil
}

// Update rewrites the mutable fields of an attendance row
func (r *AttendanceRepository) Update(ctx context.Context, att *Attendance) error {
	query := `
		UPDATE attendance SET
			status = $2,
			check_in_time = $3, check_out_time = $4,
			check_in_lat = $5, check_in_lng = $6, check_in_accuracy = $7,
			check_out_lat = $8, check_out_lng = $9, check_out_accuracy = $10,
			work_hours = $11, is_location_flagged = $12,
			is_auto_calculated = $13, is_locked = $14, notes = $15,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		att.ID, att.Status,
		att.CheckInTime, att.CheckOutTime,
		att.CheckInLat, att.CheckInLng, att.CheckInAccuracy,
		att.CheckOutLat, att.CheckOutLng, att.CheckOutAccuracy,
		att.WorkHours, att.IsLocationFlagged,
		att.IsAutoCalculated, att.IsLocked, att.Notes,
	)
	if err != nil {
		return database.MapError(err, "attendance")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if rows == 0 {
		return database.MapError(sql.ErrNoRows, "attendance")
	}
	return nil
}

// ListForMonth returns an employee's rows whose date falls in the
// given YYYY-MM month, ordered by date.
func (r *AttendanceRepository) ListForMonth(ctx context.Context, employeeID, month string) ([]Attendance, error) {
	rows := []Attendance{}
	query := `
		SELECT * FROM attendance
		WHERE employee_id = $1 AND date LIKE $2 || '-%'
		ORDER BY date`

	if err := r.db.SelectContext(ctx, &rows, query, employeeID, month); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return rows, nil
}

// HasAttendanceInMonth reports whether the employee has any row in the month
func (r *AttendanceRepository) HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM attendance WHERE employee_id = $1 AND date LIKE $2 || '-%'`

	if err := r.db.GetContext(ctx, &count, query, employeeID, month); err != nil {
		return false, fmt.Errorf("failed to count attendance: %w", err)
	}
	return count > 0, nil
}

// SetLockedForMonth sets is_locked on every row of the employee's month
func (r *AttendanceRepository) SetLockedForMonth(ctx context.Context, employeeID, month string, locked bool) error {
	query := `
		UPDATE attendance SET is_locked = $3, updated_at = NOW()
		WHERE employee_id = $1 AND date LIKE $2 || '-%'`

	if _, err := r.db.ExecContext(ctx, query, employeeID, month, locked); err != nil {
		return fmt.Errorf("failed to set attendance locks: %w", err)
	}
	return nil
}

// DeleteAutoCalculatedForMonth deletes the employee's auto-calculated
// rows for the month, sparing manually edited days. Returns the count.
func (r *AttendanceRepository) DeleteAutoCalculatedForMonth(ctx context.Context, employeeID, month string) (int64, error) {
	query := `
		DELETE FROM attendance
		WHERE employee_id = $1 AND date LIKE $2 || '-%' AND is_auto_calculated = TRUE`

	result, err := r.db.ExecContext(ctx, query, employeeID, month)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendance: %w", err)
	}
	return result.RowsAffected()
}
