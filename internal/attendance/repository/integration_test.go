package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendance-backend/internal/attendance/repository"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/testutil"
)

// TestRepositoriesAgainstPostgres runs the repositories against a real
// database so the named constraints and the error mapping are verified
// together, not just against mocks.
func TestRepositoriesAgainstPostgres(t *testing.T) {
	testutil.SkipUnlessIntegration(t)

	db := testutil.StartPostgres(t)
	ctx := context.Background()

	employees := repository.NewEmployeeRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	holidays := repository.NewHolidayRepository(db)

	emp := &repository.Employee{
		ID:            "emp-1",
		Name:          "Jane",
		Email:         "jane@corp.test",
		Role:          "employee",
		IsActive:      true,
		SalaryMonthly: 56000,
	}
	require.NoError(t, employees.Create(ctx, emp))

	t.Run("duplicate email maps to ALREADY_EXISTS", func(t *testing.T) {
		err := employees.Create(ctx, &repository.Employee{
			ID: "emp-2", Name: "Other", Email: "jane@corp.test", Role: "employee", SalaryMonthly: 40000,
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "ALREADY_EXISTS", appErr.Code)
	})

	t.Run("device binds once", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, employees.BindDevice(ctx, "emp-1", "pem-1", "fp-1", now))
		assert.Error(t, employees.BindDevice(ctx, "emp-1", "pem-2", "fp-2", now))

		got, err := employees.GetByID(ctx, "emp-1")
		require.NoError(t, err)
		require.True(t, got.HasDevice())
		assert.Equal(t, "pem-1", *got.DevicePublicKey)

		require.NoError(t, employees.ClearDevice(ctx, "emp-1"))
		require.NoError(t, employees.BindDevice(ctx, "emp-1", "pem-2", "fp-2", now))
	})

	t.Run("one attendance row per employee per day", func(t *testing.T) {
		att := &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-01-15", Status: repository.StatusAbsent,
		}
		require.NoError(t, attendance.Create(ctx, att))

		err := attendance.Create(ctx, &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-01-15", Status: repository.StatusAbsent,
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "DUPLICATE_CHECK_IN", appErr.Code)
	})

	t.Run("month listing uses the date prefix", func(t *testing.T) {
		require.NoError(t, attendance.Create(ctx, &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-01-16", Status: repository.StatusPresent, WorkHours: 8,
		}))
		require.NoError(t, attendance.Create(ctx, &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-02-01", Status: repository.StatusPresent, WorkHours: 8,
		}))

		rows, err := attendance.ListForMonth(ctx, "emp-1", "2024-01")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "2024-01-15", rows[0].Date)
		assert.Equal(t, "2024-01-16", rows[1].Date)

		has, err := attendance.HasAttendanceInMonth(ctx, "emp-1", "2024-03")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("lock toggles across the month", func(t *testing.T) {
		require.NoError(t, attendance.SetLockedForMonth(ctx, "emp-1", "2024-01", true))

		rows, err := attendance.ListForMonth(ctx, "emp-1", "2024-01")
		require.NoError(t, err)
		for _, row := range rows {
			assert.True(t, row.IsLocked, row.Date)
		}

		require.NoError(t, attendance.SetLockedForMonth(ctx, "emp-1", "2024-01", false))
		rows, err = attendance.ListForMonth(ctx, "emp-1", "2024-01")
		require.NoError(t, err)
		for _, row := range rows {
			assert.False(t, row.IsLocked, row.Date)
		}
	})

	t.Run("delete spares manual rows", func(t *testing.T) {
		require.NoError(t, attendance.Create(ctx, &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-01-17",
			Status: repository.StatusSunday, IsAutoCalculated: true,
		}))
		require.NoError(t, attendance.Create(ctx, &repository.Attendance{
			ID: uuid.NewString(), EmployeeID: "emp-1", Date: "2024-01-18",
			Status: repository.StatusAbsent, IsAutoCalculated: true,
		}))

		deleted, err := attendance.DeleteAutoCalculatedForMonth(ctx, "emp-1", "2024-01")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		rows, err := attendance.ListForMonth(ctx, "emp-1", "2024-01")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("holiday dates are unique", func(t *testing.T) {
		require.NoError(t, holidays.Create(ctx, &repository.Holiday{
			ID: uuid.NewString(), Date: "2024-01-26", Name: "Republic Day",
		}))

		err := holidays.Create(ctx, &repository.Holiday{
			ID: uuid.NewString(), Date: "2024-01-26", Name: "Duplicate",
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "DUPLICATE_HOLIDAY", appErr.Code)
	})
}
