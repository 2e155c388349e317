package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendance-backend/internal/attendance/events"
	attrepo "github.com/attendly/attendance-backend/internal/attendance/repository"
	attsvc "github.com/attendly/attendance-backend/internal/attendance/service"
	paysvc "github.com/attendly/attendance-backend/internal/payroll/service"
	"github.com/attendly/attendance-backend/pkg/clock"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/httputil"
	"github.com/attendly/attendance-backend/pkg/logger"
	"github.com/attendly/attendance-backend/pkg/testutil"
)

var ist = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

type allowlistGate struct {
	admins map[string]bool
}

func (g *allowlistGate) RequireAdmin(_ context.Context, callerID string) error {
	if g.admins[callerID] {
		return nil
	}
	return apperrors.AdminRequired()
}

type fixture struct {
	mem    *testutil.Memory
	router *Router
}

// newFixture wires real engines over in-memory stores behind the router.
func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()

	mem := testutil.NewMemory()
	log := logger.New("test", "test")
	clk := clock.NewFixed(at)
	auditor := &testutil.RecordedAudit{}
	pub := events.NewPublisher(&testutil.CapturedBroker{}, log)
	cache := paysvc.NewReportCache(paysvc.DefaultReportTTL)

	attendance := attsvc.New(attsvc.Config{
		Employees:     mem,
		Attendance:    mem.AttendanceStore(),
		Modifications: mem.ModificationStore(),
		Holidays:      mem.HolidayStore(),
		Offices:       mem.OfficeStore(),
		Payroll:       mem.PayrollStore(),
		Clock:         clk,
		Verify:        func(_, _, sig string) bool { return sig == "valid" },
		Auditor:       auditor,
		Events:        pub,
		Cache:         cache,
		DefaultRadius: 100,
		Logger:        log,
	})

	payroll := paysvc.New(paysvc.Config{
		Employees:  mem,
		Attendance: mem.AttendanceStore(),
		Holidays:   mem.HolidayStore(),
		Leaves:     mem.LeaveStore(),
		Payroll:    mem.PayrollStore(),
		Clock:      clk,
		Auditor:    auditor,
		Events:     pub,
		Cache:      cache,
		Logger:     log,
	})

	gate := &allowlistGate{admins: map[string]bool{"admin-1": true}}
	return &fixture{
		mem:    mem,
		router: NewRouter(attendance, payroll, gate, log),
	}
}

func (f *fixture) do(t *testing.T, callerID, body string) (int, httputil.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", strings.NewReader(body))
	if callerID != "" {
		req.Header.Set(httputil.CallerIDHeader, callerID)
	}

	// identity middleware runs before the router in production
	rec := httptest.NewRecorder()
	httputil.Identity("")(http.HandlerFunc(f.router.Handle)).ServeHTTP(rec, req)

	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func morning(t *testing.T) *fixture {
	return newFixture(t, time.Date(2024, 1, 15, 9, 0, 0, 0, ist))
}

func (f *fixture) seedBoundEmployee(id, email string) {
	key := "-----BEGIN PUBLIC KEY-----\nseed\n-----END PUBLIC KEY-----"
	fp := "fp-" + id
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, ist)
	f.mem.Employees[id] = attrepo.Employee{
		ID: id, Name: "Emp", Email: email, Role: "employee", IsActive: true,
		SalaryMonthly: 56000, DevicePublicKey: &key, DeviceFingerprint: &fp, DeviceRegisteredAt: &now,
	}
}

func TestUnknownAction(t *testing.T) {
	f := morning(t)

	code, resp := f.do(t, "", `{"action":"frobnicate"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_ACTION", resp.Code)
	assert.Equal(t, "Unknown action: frobnicate", resp.Message)
}

func TestInvalidJSONBody(t *testing.T) {
	f := morning(t)

	code, resp := f.do(t, "", `{"action":`)

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
}

func TestMissingAction(t *testing.T) {
	f := morning(t)

	_, resp := f.do(t, "", `{}`)

	assert.False(t, resp.Success)
}

func TestAdminActionRefusedForNonAdmin(t *testing.T) {
	f := morning(t)

	code, resp := f.do(t, "user-1", `{"action":"generate-payroll","month":"2024-01"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "ADMIN_REQUIRED", resp.Code)
	assert.Empty(t, f.mem.Payrolls)
}

func TestAdminActionRefusedWithoutCaller(t *testing.T) {
	f := morning(t)

	_, resp := f.do(t, "", `{"action":"generate-payroll","month":"2024-01"}`)

	assert.Equal(t, "ADMIN_REQUIRED", resp.Code)
}

func TestCheckInThroughRouter(t *testing.T) {
	f := morning(t)
	f.seedBoundEmployee("emp-1", "emp1@corp.test")

	code, resp := f.do(t, "", `{"action":"check-in","email":"emp1@corp.test","signature":"valid","dataToVerify":"d"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success, resp.Message)
	assert.Len(t, f.mem.Attendance, 1)
}

func TestLateCheckInEnvelope(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 15, 9, 6, 0, 0, ist))
	f.seedBoundEmployee("emp-1", "emp1@corp.test")

	code, resp := f.do(t, "", `{"action":"check-in","email":"emp1@corp.test","signature":"valid","dataToVerify":"d"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "LATE_CHECK_IN", resp.Code)
}

func TestCheckInValidation(t *testing.T) {
	f := morning(t)

	_, resp := f.do(t, "", `{"action":"check-in","signature":"valid","dataToVerify":"d"}`)

	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestSystemInfo(t *testing.T) {
	f := morning(t)

	_, resp := f.do(t, "", `{"action":"get-system-info"}`)

	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", data["today"])
	assert.Equal(t, true, data["checkInAllowed"])
}

func TestGeneratePayrollAsAdmin(t *testing.T) {
	f := newFixture(t, time.Date(2024, 2, 10, 12, 0, 0, 0, ist))
	f.seedBoundEmployee("emp-1", "emp1@corp.test")

	_, resp := f.do(t, "admin-1", `{"action":"generate-payroll","month":"2024-01"}`)

	require.True(t, resp.Success, resp.Message)
	assert.Len(t, f.mem.Payrolls, 1)
}

func TestMyAttendanceUsesCallerIdentity(t *testing.T) {
	f := morning(t)
	f.mem.Attendance["a1"] = attrepo.Attendance{
		ID: "a1", EmployeeID: "emp-1", Date: "2024-01-10", Status: attrepo.StatusPresent,
	}

	_, resp := f.do(t, "emp-1", `{"action":"get-my-attendance","month":"2024-01"}`)

	require.True(t, resp.Success)
	rows, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestMyAttendanceWithoutIdentity(t *testing.T) {
	f := morning(t)

	_, resp := f.do(t, "", `{"action":"get-my-attendance"}`)

	assert.False(t, resp.Success)
	assert.Equal(t, "AUTH_REQUIRED", resp.Code)
}
