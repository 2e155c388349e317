package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Payroll is one employee's settled month, unique per (employee, month).
// Money fields are decimals; float arithmetic never touches pay.
type Payroll struct {
	ID               string          `db:"id" json:"id"`
	EmployeeID       string          `db:"employee_id" json:"employeeId"`
	Month            string          `db:"month" json:"month"`
	BaseSalary       int64           `db:"base_salary" json:"baseSalary"`
	DailyRate        decimal.Decimal `db:"daily_rate" json:"dailyRate"`
	TotalWorkingDays int             `db:"total_working_days" json:"totalWorkingDays"`
	PresentDays      int             `db:"present_days" json:"presentDays"`
	HalfDays         int             `db:"half_days" json:"halfDays"`
	AbsentDays       int             `db:"absent_days" json:"absentDays"`
	SundayDays       int             `db:"sunday_days" json:"sundayDays"`
	HolidayDays      int             `db:"holiday_days" json:"holidayDays"`
	LeaveDays        int             `db:"leave_days" json:"leaveDays"`
	NetSalary        decimal.Decimal `db:"net_salary" json:"netSalary"`
	IsLocked         bool            `db:"is_locked" json:"isLocked"`
	GeneratedBy      string          `db:"generated_by" json:"generatedBy"`
	GeneratedAt      time.Time       `db:"generated_at" json:"generatedAt"`
	UnlockedBy       *string         `db:"unlocked_by" json:"unlockedBy,omitempty"`
	UnlockedAt       *time.Time      `db:"unlocked_at" json:"unlockedAt,omitempty"`
	UnlockReason     *string         `db:"unlock_reason" json:"unlockReason,omitempty"`
}

// PaidDays is presentDays + sundayDays + holidayDays + leaveDays with
// half days weighted 0.5. Absent days contribute nothing.
func (p *Payroll) PaidDays() decimal.Decimal {
	whole := p.PresentDays + p.SundayDays + p.HolidayDays + p.LeaveDays
	half := decimal.NewFromInt(int64(p.HalfDays)).Div(decimal.NewFromInt(2))
	return decimal.NewFromInt(int64(whole)).Add(half)
}

// PayrollRepository handles payroll data access
type PayrollRepository struct {
	db *database.DB
}

// NewPayrollRepository creates a new payroll repository
func NewPayrollRepository(db *database.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// Create inserts a payroll row. The unique index on (employee_id,
// month) guards concurrent generation.
func (r *PayrollRepository) Create(ctx context.Context, p *Payroll) error {
	query := `
		INSERT INTO payroll (
			id, employee_id, month, base_salary, daily_rate, total_working_days,
			present_days, half_days, absent_days, sunday_days, holiday_days, leave_days,
			net_salary, is_locked, generated_by, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.EmployeeID, p.Month, p.BaseSalary, p.DailyRate, p.TotalWorkingDays,
		p.PresentDays, p.HalfDays, p.AbsentDays, p.SundayDays, p.HolidayDays, p.LeaveDays,
		p.NetSalary, p.IsLocked, p.GeneratedBy, p.GeneratedAt,
	)
	if err != nil {
		return database.MapError(err, "payroll")
	}
	return nil
}

// Update rewrites the mutable fields of a payroll row
func (r *PayrollRepository) Update(ctx context.Context, p *Payroll) error {
	query := `
		UPDATE payroll SET
			present_days = $2, half_days = $3, absent_days = $4,
			sunday_days = $5, holiday_days = $6, leave_days = $7,
			net_salary = $8, is_locked = $9,
			unlocked_by = $10, unlocked_at = $11, unlock_reason = $12
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.PresentDays, p.HalfDays, p.AbsentDays,
		p.SundayDays, p.HolidayDays, p.LeaveDays,
		p.NetSalary, p.IsLocked,
		p.UnlockedBy, p.UnlockedAt, p.UnlockReason,
	)
	if err != nil {
		return database.MapError(err, "payroll")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payroll: %w", err)
	}
	if rows == 0 {
		return database.MapError(sql.ErrNoRows, "payroll")
	}
	return nil
}

// Delete removes a payroll row
func (r *PayrollRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payroll WHERE id = $1`, id); err != nil {
		return database.MapError(err, "payroll")
	}
	return nil
}

// GetByEmployeeAndMonth returns the employee's payroll for the month,
// or (nil, nil) when none exists.
func (r *PayrollRepository) GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*Payroll, error) {
	var p Payroll
	query := `SELECT * FROM payroll WHERE employee_id = $1 AND month = $2`

	err := r.db.GetContext(ctx, &p, query, employeeID, month)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll: %w", err)
	}
	return &p, nil
}

// ListByMonth returns every payroll row for the month
func (r *PayrollRepository) ListByMonth(ctx context.Context, month string) ([]Payroll, error) {
	payrolls := []Payroll{}
	query := `SELECT * FROM payroll WHERE month = $1 ORDER BY employee_id`

	if err := r.db.SelectContext(ctx, &payrolls, query, month); err != nil {
		return nil, fmt.Errorf("failed to list payroll: %w", err)
	}
	return payrolls, nil
}

// ExistsForMonth reports whether any payroll row exists for the month
func (r *PayrollRepository) ExistsForMonth(ctx context.Context, month string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM payroll WHERE month = $1`

	if err := r.db.GetContext(ctx, &count, query, month); err != nil {
		return false, fmt.Errorf("failed to count payroll: %w", err)
	}
	return count > 0, nil
}
