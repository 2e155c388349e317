package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendance-backend/internal/payroll/repository"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/testutil"
)

func TestPaidDays(t *testing.T) {
	p := &repository.Payroll{PresentDays: 20, HalfDays: 3, AbsentDays: 2, SundayDays: 4, HolidayDays: 1, LeaveDays: 1}

	// 26 whole days plus 1.5 from half days, absences excluded
	assert.Equal(t, "27.5", p.PaidDays().String())
}

func TestPaidDaysNoHalfDays(t *testing.T) {
	p := &repository.Payroll{PresentDays: 22, SundayDays: 4}

	assert.Equal(t, "26", p.PaidDays().String())
}

func TestCreateDuplicateMonth(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewPayrollRepository(mock.DB)

	mock.Mock.ExpectExec(`INSERT INTO payroll`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payroll_employee_id_month_key"})

	err := repo.Create(context.Background(), &repository.Payroll{ID: "p1", EmployeeID: "emp-1", Month: "2024-02"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_EXISTS", appErr.Code)
	assert.Equal(t, "payroll already exists for this month", appErr.Message)
	mock.ExpectationsMet(t)
}

func TestGetByEmployeeAndMonthMissing(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewPayrollRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT \* FROM payroll WHERE employee_id =`).
		WithArgs("emp-1", "2024-02").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.GetByEmployeeAndMonth(context.Background(), "emp-1", "2024-02")

	require.NoError(t, err)
	assert.Nil(t, p)
	mock.ExpectationsMet(t)
}

func TestUpdateMissingRow(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewPayrollRepository(mock.DB)

	mock.Mock.ExpectExec(`UPDATE payroll SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &repository.Payroll{ID: "gone"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mock.ExpectationsMet(t)
}

func TestExistsForMonth(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := repository.NewPayrollRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payroll WHERE month =`).
		WithArgs("2024-02").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	exists, err := repo.ExistsForMonth(context.Background(), "2024-02")

	require.NoError(t, err)
	assert.True(t, exists)
	mock.ExpectationsMet(t)
}
