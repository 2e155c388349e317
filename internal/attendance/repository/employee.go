package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attendly/attendance-backend/pkg/database"
)

// Employee represents a workforce member. The ID is the opaque user id
// issued by the external directory, not a locally generated one.
type Employee struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	Role               string     `db:"role" json:"role"`
	IsActive           bool       `db:"is_active" json:"isActive"`
	SalaryMonthly      int64      `db:"salary_monthly" json:"salaryMonthly"`
	JoinDate           *time.Time `db:"join_date" json:"joinDate,omitempty"`
	DevicePublicKey    *string    `db:"device_public_key" json:"-"`
	DeviceFingerprint  *string    `db:"device_fingerprint" json:"-"`
	DeviceRegisteredAt *time.Time `db:"device_registered_at" json:"deviceRegisteredAt,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasDevice reports whether a device is bound.
func (e *Employee) HasDevice() bool {
	return e.DevicePublicKey != nil && *e.DevicePublicKey != ""
}

// EmployeeRepository handles employee data access
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee
func (r *EmployeeRepository) Create(ctx context.Context, emp *Employee) error {
	query := `
		INSERT INTO employees (id, name, email, role, is_active, salary_monthly, join_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email, emp.Role, emp.IsActive, emp.SalaryMonthly, emp.JoinDate,
	)
	if err != nil {
		return database.MapError(err, "employee")
	}
	return nil
}

// GetByID fetches an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var emp Employee
	query := `SELECT * FROM employees WHERE id = $1`

	if err := r.db.GetContext(ctx, &emp, query, id); err != nil {
		return nil, database.MapError(err, "employee")
	}
	return &emp, nil
}

// GetByEmail fetches an employee by email
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	var emp Employee
	query := `SELECT * FROM employees WHERE email = $1`

	if err := r.db.GetContext(ctx, &emp, query, email); err != nil {
		return nil, database.MapError(err, "employee")
	}
	return &emp, nil
}

// List returns employees ordered by name, up to limit
func (r *EmployeeRepository) List(ctx context.Context, limit int) ([]Employee, error) {
	employees := []Employee{}
	query := `SELECT * FROM employees ORDER BY name LIMIT $1`

	if err := r.db.SelectContext(ctx, &employees, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// BindDevice atomically sets all three device-binding fields. Fails if
// a device is already bound so concurrent registrations cannot both win.
func (r *EmployeeRepository) BindDevice(ctx context.Context, id, publicKey, fingerprint string, registeredAt time.Time) error {
	query := `
		UPDATE employees
		SET device_public_key = $2, device_fingerprint = $3, device_registered_at = $4, updated_at = NOW()
		WHERE id = $1 AND device_public_key IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, publicKey, fingerprint, registeredAt)
	if err != nil {
		return database.MapError(err, "employee")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to bind device: %w", err)
	}
	if rows == 0 {
		return errors.New("device already bound")
	}
	return nil
}

// ClearDevice atomically clears all three device-binding fields
func (r *EmployeeRepository) ClearDevice(ctx context.Context, id string) error {
	query := `
		UPDATE employees
		SET device_public_key = NULL, device_fingerprint = NULL, device_registered_at = NULL, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return database.MapError(err, "employee")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to clear device: %w", err)
	}
	if rows == 0 {
		return database.MapError(sql.ErrNoRows, "employee")
	}
	return nil
}

// Delete removes an employee row. Only used by the create-employee
// rollback path; normal lifecycle deactivates instead.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err, "employee")
	}
	return nil
}
