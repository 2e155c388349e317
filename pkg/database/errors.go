package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	apperrors "github.com/attendly/attendance-backend/pkg/errors"
)

// PostgreSQL error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNotNullViolation    = "23502"
	pqCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}

// ConstraintName returns the violated constraint name, if err carries one.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// MapError converts database errors to application errors. Unique
// violations on known constraints map to their business codes so the
// race dispositions hold without a pre-check.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			switch pqErr.Constraint {
			case "attendance_employee_id_date_key":
				return apperrors.DuplicateCheckIn()
			case "holidays_date_key":
				return apperrors.DuplicateHoliday()
			case "payroll_employee_id_month_key":
				return apperrors.AlreadyExists("payroll already exists for this month")
			}
			return apperrors.Conflict(resource + " already exists")
		case pqForeignKeyViolation:
			return apperrors.BadRequest("referenced " + resource + " does not exist")
		case pqNotNullViolation:
			return apperrors.BadRequest("missing required field: " + pqErr.Column)
		case pqCheckViolation:
			return apperrors.BadRequest("invalid value for " + resource)
		}
	}

	return apperrors.Wrap(err, "DATABASE_ERROR", "database operation failed", 500)
}
