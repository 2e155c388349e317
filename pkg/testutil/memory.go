package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	attrepo "github.com/attendly/attendance-backend/internal/attendance/repository"
	payrollrepo "github.com/attendly/attendance-backend/internal/payroll/repository"
	"github.com/attendly/attendance-backend/pkg/database"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
)

// Memory is an in-memory store satisfying every engine store
// interface. It reproduces the repositories' observable behavior,
// including unique-index conflicts mapped through database.MapError,
// so engine tests run deterministically without Postgres.
type Memory struct {
	mu sync.Mutex

	Employees     map[string]attrepo.Employee
	Attendance    map[string]attrepo.Attendance
	Modifications []attrepo.Modification
	Holidays      map[string]attrepo.Holiday
	Leaves        []attrepo.Leave
	Offices       []attrepo.OfficeLocation
	Payrolls      map[string]payrollrepo.Payroll
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		Employees:  make(map[string]attrepo.Employee),
		Attendance: make(map[string]attrepo.Attendance),
		Holidays:   make(map[string]attrepo.Holiday),
		Payrolls:   make(map[string]payrollrepo.Payroll),
	}
}

func uniqueViolation(constraint string) error {
	return database.MapError(&pq.Error{Code: "23505", Constraint: constraint}, "row")
}

func inMonth(date, month string) bool {
	return strings.HasPrefix(date, month+"-")
}

// --- employees ---

func (m *Memory) Create(ctx context.Context, emp *attrepo.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.Employees {
		if existing.Email == emp.Email {
			return uniqueViolation("employees_email_key")
		}
	}
	m.Employees[emp.ID] = *emp
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (*attrepo.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emp, ok := m.Employees[id]
	if !ok {
		return nil, apperrors.NotFound("employee")
	}
	return &emp, nil
}

func (m *Memory) GetByEmail(ctx context.Context, email string) (*attrepo.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, emp := range m.Employees {
		if emp.Email == email {
			e := emp
			return &e, nil
		}
	}
	return nil, apperrors.NotFound("employee")
}

func (m *Memory) List(ctx context.Context, limit int) ([]attrepo.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	employees := make([]attrepo.Employee, 0, len(m.Employees))
	for _, emp := range m.Employees {
		employees = append(employees, emp)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })

	if len(employees) > limit {
		employees = employees[:limit]
	}
	return employees, nil
}

func (m *Memory) BindDevice(ctx context.Context, id, publicKey, fingerprint string, registeredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	emp, ok := m.Employees[id]
	if !ok {
		return apperrors.NotFound("employee")
	}
	if emp.DevicePublicKey != nil {
		return apperrors.AlreadyExists("device already bound")
	}

	emp.DevicePublicKey = &publicKey
	emp.DeviceFingerprint = &fingerprint
	emp.DeviceRegisteredAt = &registeredAt
	m.Employees[id] = emp
	return nil
}

func (m *Memory) ClearDevice(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	emp, ok := m.Employees[id]
	if !ok {
		return apperrors.NotFound("employee")
	}

	emp.DevicePublicKey = nil
	emp.DeviceFingerprint = nil
	emp.DeviceRegisteredAt = nil
	m.Employees[id] = emp
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Employees, id)
	return nil
}

// --- attendance ---

// AttendanceStore returns the attendance-facing view of the store.
// Method names collide with the employee view, so each entity family
// is exposed through a small adapter.
func (m *Memory) AttendanceStore() *MemoryAttendance { return &MemoryAttendance{m} }

// MemoryAttendance adapts Memory to the attendance store interfaces.
type MemoryAttendance struct{ m *Memory }

func (a *MemoryAttendance) Create(ctx context.Context, att *attrepo.Attendance) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	for _, existing := range a.m.Attendance {
		if existing.EmployeeID == att.EmployeeID && existing.Date == att.Date {
			return uniqueViolation("attendance_employee_id_date_key")
		}
	}
	a.m.Attendance[att.ID] = *att
	return nil
}

func (a *MemoryAttendance) GetByID(ctx context.Context, id string) (*attrepo.Attendance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	att, ok := a.m.Attendance[id]
	if !ok {
		return nil, apperrors.NotFound("attendance")
	}
	return &att, nil
}

func (a *MemoryAttendance) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*attrepo.Attendance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	for _, att := range a.m.Attendance {
		if att.EmployeeID == employeeID && att.Date == date {
			row := att
			return &row, nil
		}
	}
	return nil, nil
}

func (a *MemoryAttendance) Update(ctx context.Context, att *attrepo.Attendance) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	if _, ok := a.m.Attendance[att.ID]; !ok {
		return apperrors.NotFound("attendance")
	}
	a.m.Attendance[att.ID] = *att
	return nil
}

func (a *MemoryAttendance) ListForMonth(ctx context.Context, employeeID, month string) ([]attrepo.Attendance, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	rows := []attrepo.Attendance{}
	for _, att := range a.m.Attendance {
		if att.EmployeeID == employeeID && inMonth(att.Date, month) {
			rows = append(rows, att)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}

func (a *MemoryAttendance) HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error) {
	rows, _ := a.ListForMonth(ctx, employeeID, month)
	return len(rows) > 0, nil
}

func (a *MemoryAttendance) SetLockedForMonth(ctx context.Context, employeeID, month string, locked bool) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	for id, att := range a.m.Attendance {
		if att.EmployeeID == employeeID && inMonth(att.Date, month) {
			att.IsLocked = locked
			a.m.Attendance[id] = att
		}
	}
	return nil
}

func (a *MemoryAttendance) DeleteAutoCalculatedForMonth(ctx context.Context, employeeID, month string) (int64, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()

	var deleted int64
	for id, att := range a.m.Attendance {
		if att.EmployeeID == employeeID && inMonth(att.Date, month) && att.IsAutoCalculated {
			delete(a.m.Attendance, id)
			deleted++
		}
	}
	return deleted, nil
}

// --- modifications ---

// ModificationStore returns the modification-facing view.
func (m *Memory) ModificationStore() *MemoryModifications { return &MemoryModifications{m} }

// MemoryModifications adapts Memory to the modification store interface.
type MemoryModifications struct{ m *Memory }

func (s *MemoryModifications) Create(ctx context.Context, mod *attrepo.Modification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.Modifications = append(s.m.Modifications, *mod)
	return nil
}

// --- holidays ---

// HolidayStore returns the holiday-facing view.
func (m *Memory) HolidayStore() *MemoryHolidays { return &MemoryHolidays{m} }

// MemoryHolidays adapts Memory to the holiday store interfaces.
type MemoryHolidays struct{ m *Memory }

func (h *MemoryHolidays) Create(ctx context.Context, holiday *attrepo.Holiday) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	for _, existing := range h.m.Holidays {
		if existing.Date == holiday.Date {
			return uniqueViolation("holidays_date_key")
		}
	}
	h.m.Holidays[holiday.ID] = *holiday
	return nil
}

func (h *MemoryHolidays) GetByID(ctx context.Context, id string) (*attrepo.Holiday, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	holiday, ok := h.m.Holidays[id]
	if !ok {
		return nil, apperrors.NotFound("holiday")
	}
	return &holiday, nil
}

func (h *MemoryHolidays) Delete(ctx context.Context, id string) error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	if _, ok := h.m.Holidays[id]; !ok {
		return apperrors.NotFound("holiday")
	}
	delete(h.m.Holidays, id)
	return nil
}

func (h *MemoryHolidays) ListForMonth(ctx context.Context, month string) ([]attrepo.Holiday, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	holidays := []attrepo.Holiday{}
	for _, holiday := range h.m.Holidays {
		if inMonth(holiday.Date, month) {
			holidays = append(holidays, holiday)
		}
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date < holidays[j].Date })
	return holidays, nil
}

// --- leaves ---

// LeaveStore returns the leave-facing view.
func (m *Memory) LeaveStore() *MemoryLeaves { return &MemoryLeaves{m} }

// MemoryLeaves adapts Memory to the leave store interface.
type MemoryLeaves struct{ m *Memory }

func (l *MemoryLeaves) ListApprovedForMonth(ctx context.Context, month string) ([]attrepo.Leave, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()

	leaves := []attrepo.Leave{}
	for _, leave := range l.m.Leaves {
		if leave.Status == attrepo.LeaveStatusApproved && inMonth(leave.Date, month) {
			leaves = append(leaves, leave)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Date < leaves[j].Date })
	return leaves, nil
}

// --- office locations ---

// OfficeStore returns the office-location-facing view.
func (m *Memory) OfficeStore() *MemoryOffices { return &MemoryOffices{m} }

// MemoryOffices adapts Memory to the office store interface.
type MemoryOffices struct{ m *Memory }

func (o *MemoryOffices) Create(ctx context.Context, loc *attrepo.OfficeLocation) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()

	o.m.Offices = append(o.m.Offices, *loc)
	return nil
}

func (o *MemoryOffices) ListActive(ctx context.Context) ([]attrepo.OfficeLocation, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()

	active := []attrepo.OfficeLocation{}
	for _, loc := range o.m.Offices {
		if loc.IsActive {
			active = append(active, loc)
		}
	}
	return active, nil
}

// --- payroll ---

// PayrollStore returns the payroll-facing view.
func (m *Memory) PayrollStore() *MemoryPayrolls { return &MemoryPayrolls{m} }

// MemoryPayrolls adapts Memory to the payroll store interfaces.
type MemoryPayrolls struct{ m *Memory }

func (p *MemoryPayrolls) Create(ctx context.Context, payroll *payrollrepo.Payroll) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	for _, existing := range p.m.Payrolls {
		if existing.EmployeeID == payroll.EmployeeID && existing.Month == payroll.Month {
			return uniqueViolation("payroll_employee_id_month_key")
		}
	}
	p.m.Payrolls[payroll.ID] = *payroll
	return nil
}

func (p *MemoryPayrolls) Update(ctx context.Context, payroll *payrollrepo.Payroll) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if _, ok := p.m.Payrolls[payroll.ID]; !ok {
		return apperrors.NotFound("payroll")
	}
	p.m.Payrolls[payroll.ID] = *payroll
	return nil
}

func (p *MemoryPayrolls) Delete(ctx context.Context, id string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	delete(p.m.Payrolls, id)
	return nil
}

func (p *MemoryPayrolls) GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*payrollrepo.Payroll, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	for _, payroll := range p.m.Payrolls {
		if payroll.EmployeeID == employeeID && payroll.Month == month {
			row := payroll
			return &row, nil
		}
	}
	return nil, nil
}

func (p *MemoryPayrolls) ListByMonth(ctx context.Context, month string) ([]payrollrepo.Payroll, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	payrolls := []payrollrepo.Payroll{}
	for _, payroll := range p.m.Payrolls {
		if payroll.Month == month {
			payrolls = append(payrolls, payroll)
		}
	}
	sort.Slice(payrolls, func(i, j int) bool { return payrolls[i].EmployeeID < payrolls[j].EmployeeID })
	return payrolls, nil
}

func (p *MemoryPayrolls) ExistsForMonth(ctx context.Context, month string) (bool, error) {
	payrolls, _ := p.ListByMonth(ctx, month)
	return len(payrolls) > 0, nil
}
