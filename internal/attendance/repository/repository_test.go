package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendance-backend/internal/attendance/repository"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/testutil"
)

var employeeColumns = []string{
	"id", "name", "email", "role", "is_active", "salary_monthly", "join_date",
	"device_public_key", "device_fingerprint", "device_registered_at",
	"created_at", "updated_at",
}

func employeeRow(id, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(employeeColumns).
		AddRow(id, "Jane", email, "employee", true, int64(56000), nil, nil, nil, nil, now, now)
}

func TestEmployeeGetByEmail(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT \* FROM employees WHERE email =`).
		WithArgs("jane@corp.test").
		WillReturnRows(employeeRow("emp-1", "jane@corp.test"))

	emp, err := repo.GetByEmail(context.Background(), "jane@corp.test")

	require.NoError(t, err)
	assert.Equal(t, "emp-1", emp.ID)
	assert.False(t, emp.HasDevice())
	mock.ExpectationsMet(t)
}

func TestEmployeeGetByEmailNotFound(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT \* FROM employees WHERE email =`).
		WithArgs("ghost@corp.test").
		WillReturnRows(sqlmock.NewRows(employeeColumns))

	_, err := repo.GetByEmail(context.Background(), "ghost@corp.test")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mock.ExpectationsMet(t)
}

func TestEmployeeCreateDuplicateEmail(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectExec(`INSERT INTO employees`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employees_email_key"})

	err := repo.Create(context.Background(), &repository.Employee{
		ID: "emp-1", Name: "Jane", Email: "jane@corp.test", Role: "employee", SalaryMonthly: 56000,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_EXISTS", appErr.Code)
	mock.ExpectationsMet(t)
}

func TestEmployeeBindDeviceAlreadyBound(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewEmployeeRepository(mock.DB)

	// the WHERE device_public_key IS NULL guard matches no rows
	mock.Mock.ExpectExec(`UPDATE employees`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.BindDevice(context.Background(), "emp-1", "pem", "fp", time.Now())

	assert.Error(t, err)
	mock.ExpectationsMet(t)
}

func TestAttendanceCreateDuplicateDay(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewAttendanceRepository(mock.DB)

	mock.Mock.ExpectExec(`INSERT INTO attendance`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "attendance_employee_id_date_key"})

	err := repo.Create(context.Background(), &repository.Attendance{
		ID: "att-1", EmployeeID: "emp-1", Date: "2024-01-15", Status: repository.StatusAbsent,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DUPLICATE_CHECK_IN", appErr.Code)
	mock.ExpectationsMet(t)
}

func TestAttendanceGetByEmployeeAndDateAbsentRow(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewAttendanceRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT \* FROM attendance WHERE employee_id =`).
		WithArgs("emp-1", "2024-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	att, err := repo.GetByEmployeeAndDate(context.Background(), "emp-1", "2024-01-15")

	require.NoError(t, err)
	assert.Nil(t, att)
	mock.ExpectationsMet(t)
}

func TestAttendanceSetLockedForMonth(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewAttendanceRepository(mock.DB)

	mock.Mock.ExpectExec(`UPDATE attendance SET is_locked =`).
		WithArgs("emp-1", "2024-02", true).
		WillReturnResult(sqlmock.NewResult(0, 28))

	require.NoError(t, repo.SetLockedForMonth(context.Background(), "emp-1", "2024-02", true))
	mock.ExpectationsMet(t)
}

func TestAttendanceDeleteAutoCalculatedForMonth(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewAttendanceRepository(mock.DB)

	mock.Mock.ExpectExec(`DELETE FROM attendance`).
		WithArgs("emp-1", "2024-02").
		WillReturnResult(sqlmock.NewResult(0, 27))

	deleted, err := repo.DeleteAutoCalculatedForMonth(context.Background(), "emp-1", "2024-02")

	require.NoError(t, err)
	assert.Equal(t, int64(27), deleted)
	mock.ExpectationsMet(t)
}

func TestHolidayCreateDuplicateDate(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewHolidayRepository(mock.DB)

	mock.Mock.ExpectExec(`INSERT INTO holidays`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "holidays_date_key"})

	err := repo.Create(context.Background(), &repository.Holiday{ID: "h1", Date: "2024-01-26", Name: "Republic Day"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DUPLICATE_HOLIDAY", appErr.Code)
	mock.ExpectationsMet(t)
}

func TestStatusForWorkHours(t *testing.T) {
	tests := []struct {
		hours  float64
		status repository.Status
	}{
		{0, repository.StatusAbsent},
		{3.99, repository.StatusAbsent},
		{4, repository.StatusHalfDay},
		{5.99, repository.StatusHalfDay},
		{6, repository.StatusPresent},
		{9.5, repository.StatusPresent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, repository.StatusForWorkHours(tt.hours), "hours=%v", tt.hours)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []repository.Status{
		repository.StatusPresent, repository.StatusHalfDay, repository.StatusAbsent,
		repository.StatusSunday, repository.StatusHoliday, repository.StatusLeave,
	} {
		assert.True(t, s.Valid())
	}
	assert.False(t, repository.Status("vacation").Valid())
	assert.False(t, repository.Status("").Valid())
}
