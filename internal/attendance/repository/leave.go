package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Leave statuses
const (
	LeaveStatusApproved = "approved"
	LeaveStatusPending  = "pending"
	LeaveStatusRejected = "rejected"
)

// Leave is a per-employee leave request. Only approved leaves
// participate in payroll backfill.
type Leave struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employeeId"`
	Date       string    `db:"date" json:"date"`
	Status     string    `db:"status" json:"status"`
	Reason     string    `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// LeaveRepository handles leave data access
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// ListApprovedForMonth returns approved leaves in the YYYY-MM month
func (r *LeaveRepository) ListApprovedForMonth(ctx context.Context, month string) ([]Leave, error) {
	leaves := []Leave{}
	query := `
		SELECT * FROM leaves
		WHERE status = $1 AND date LIKE $2 || '-%'
		ORDER BY date`

	if err := r.db.SelectContext(ctx, &leaves, query, LeaveStatusApproved, month); err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leaves, nil
}
