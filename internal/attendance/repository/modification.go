package repository

import (
	"context"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Modification records a single admin edit of an attendance row,
// with a full before/after snapshot.
type Modification struct {
	ID            string    `db:"id" json:"id"`
	AttendanceID  string    `db:"attendance_id" json:"attendanceId"`
	EmployeeID    string    `db:"employee_id" json:"employeeId"`
	ModifiedBy    string    `db:"modified_by" json:"modifiedBy"`
	ModifiedAt    time.Time `db:"modified_at" json:"modifiedAt"`
	Reason        string    `db:"reason" json:"reason"`
	FieldChanged  string    `db:"field_changed" json:"fieldChanged"`
	OriginalValue string    `db:"original_value" json:"originalValue"`
	NewValue      string    `db:"new_value" json:"newValue"`
}

// ModificationRepository handles attendance modification records
type ModificationRepository struct {
	db *database.DB
}

// NewModificationRepository creates a new modification repository
func NewModificationRepository(db *database.DB) *ModificationRepository {
	return &ModificationRepository{db: db}
}

// Create appends a modification record. Records are never updated or deleted.
func (r *ModificationRepository) Create(ctx context.Context, mod *Modification) error {
	query := `
		INSERT INTO attendance_modifications (
			id, attendance_id, employee_id, modified_by, modified_at,
			reason, field_changed, original_value, new_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		mod.ID, mod.AttendanceID, mod.EmployeeID, mod.ModifiedBy, mod.ModifiedAt,
		mod.Reason, mod.FieldChanged, mod.OriginalValue, mod.NewValue,
	)
	if err != nil {
		return database.MapError(err, "attendance modification")
	}
	return nil
}
