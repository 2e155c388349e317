// Package service implements the payroll engine: month scan, backfill
// of missing days, pay computation, and lock propagation.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/attendly/attendance-backend/internal/attendance/events"
	attrepo "github.com/attendly/attendance-backend/internal/attendance/repository"
	"github.com/attendly/attendance-backend/internal/audit"
	"github.com/attendly/attendance-backend/internal/payroll/repository"
	"github.com/attendly/attendance-backend/pkg/clock"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/logger"
)

// The generation walk is synchronous and bounded; larger fleets need a
// background job, which this deployment does not have.
const maxEmployees = 100

// EmployeeStore is the employee persistence the engine needs.
type EmployeeStore interface {
	GetByID(ctx context.Context, id string) (*attrepo.Employee, error)
	List(ctx context.Context, limit int) ([]attrepo.Employee, error)
}

// AttendanceStore is the attendance persistence the engine needs.
type AttendanceStore interface {
	Create(ctx context.Context, att *attrepo.Attendance) error
	ListForMonth(ctx context.Context, employeeID, month string) ([]attrepo.Attendance, error)
	HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error)
	SetLockedForMonth(ctx context.Context, employeeID, month string, locked bool) error
	DeleteAutoCalculatedForMonth(ctx context.Context, employeeID, month string) (int64, error)
}

// HolidayStore is the holiday persistence the engine needs.
type HolidayStore interface {
	ListForMonth(ctx context.Context, month string) ([]attrepo.Holiday, error)
}

// LeaveStore is the leave persistence the engine needs.
type LeaveStore interface {
	ListApprovedForMonth(ctx context.Context, month string) ([]attrepo.Leave, error)
}

// PayrollStore is the payroll persistence the engine needs.
type PayrollStore interface {
	Create(ctx context.Context, p *repository.Payroll) error
	Update(ctx context.Context, p *repository.Payroll) error
	Delete(ctx context.Context, id string) error
	ListByMonth(ctx context.Context, month string) ([]repository.Payroll, error)
	ExistsForMonth(ctx context.Context, month string) (bool, error)
}

// Service is the payroll engine.
type Service struct {
	employees  EmployeeStore
	attendance AttendanceStore
	holidays   HolidayStore
	leaves     LeaveStore
	payroll    PayrollStore
	clock      clock.Clock
	auditor    audit.Recorder
	events     *events.Publisher
	cache      *ReportCache
	log        *logger.Logger
}

// Config wires the engine's dependencies.
type Config struct {
	Employees  EmployeeStore
	Attendance AttendanceStore
	Holidays   HolidayStore
	Leaves     LeaveStore
	Payroll    PayrollStore
	Clock      clock.Clock
	Auditor    audit.Recorder
	Events     *events.Publisher
	Cache      *ReportCache
	Logger     *logger.Logger
}

// New creates the payroll engine
func New(cfg Config) *Service {
	return &Service{
		employees:  cfg.Employees,
		attendance: cfg.Attendance,
		holidays:   cfg.Holidays,
		leaves:     cfg.Leaves,
		payroll:    cfg.Payroll,
		clock:      cfg.Clock,
		auditor:    cfg.Auditor,
		events:     cfg.Events,
		cache:      cfg.Cache,
		log:        cfg.Logger.WithComponent("payroll"),
	}
}

func validReason(reason string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(reason)) >= 10
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// parseMonth validates a YYYY-MM month and returns its first day in
// the office timezone.
func (s *Service) parseMonth(month string) (time.Time, error) {
	start, err := time.ParseInLocation(clock.MonthLayout, month, s.clock.Location())
	if err != nil {
		return time.Time{}, apperrors.BadRequest("month must be YYYY-MM")
	}
	return start, nil
}

func daysInMonth(monthStart time.Time) int {
	return monthStart.AddDate(0, 1, -1).Day()
}

// lastBillableDay is today's day-of-month for the current month and
// the calendar length for past months.
func (s *Service) lastBillableDay(month string, monthStart time.Time) int {
	if month == s.clock.Now().Format(clock.MonthLayout) {
		return s.clock.Now().Day()
	}
	return daysInMonth(monthStart)
}

// firstWorkingDay is the join day when the employee joined inside the
// month, 1 otherwise. A join date past the month's end means the
// employee is skipped entirely (returned day exceeds the calendar).
func firstWorkingDay(emp *attrepo.Employee, monthStart time.Time) int {
	if emp.JoinDate == nil {
		return 1
	}
	join := emp.JoinDate.In(monthStart.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	if join.Before(monthStart) {
		return 1
	}
	if !join.Before(monthEnd) {
		return daysInMonth(monthStart) + 1
	}
	return join.Day()
}

// GenerateResult summarizes a payroll generation run.
type GenerateResult struct {
	Month          string          `json:"month"`
	EmployeeCount  int             `json:"employeeCount"`
	BackfilledDays int             `json:"backfilledDays"`
	TotalNetSalary decimal.Decimal `json:"totalNetSalary"`
}

// Generate settles the month for every employee and locks the result.
func (s *Service) Generate(ctx context.Context, callerID, month string) (*GenerateResult, error) {
	monthStart, err := s.parseMonth(month)
	if err != nil {
		return nil, err
	}

	exists, err := s.payroll.ExistsForMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.AlreadyExists("payroll already generated for this month; unlock or delete it first")
	}

	employees, err := s.employees.List(ctx, maxEmployees)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidays.ListForMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	leaves, err := s.leaves.ListApprovedForMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date] = true
	}
	leaveSet := make(map[string]map[string]bool)
	for _, l := range leaves {
		if leaveSet[l.EmployeeID] == nil {
			leaveSet[l.EmployeeID] = make(map[string]bool)
		}
		leaveSet[l.EmployeeID][l.Date] = true
	}

	calendarDays := daysInMonth(monthStart)
	lastDay := s.lastBillableDay(month, monthStart)
	now := s.clock.Now()

	result := &GenerateResult{Month: month, TotalNetSalary: decimal.Zero}

	for i := range employees {
		emp := &employees[i]

		if !emp.IsActive {
			has, err := s.attendance.HasAttendanceInMonth(ctx, emp.ID, month)
			if err != nil {
				return nil, err
			}
			if !has {
				continue
			}
		}

		firstDay := firstWorkingDay(emp, monthStart)
		if firstDay > calendarDays {
			continue
		}

		rows, err := s.attendance.ListForMonth(ctx, emp.ID, month)
		if err != nil {
			return nil, err
		}
		byDate := make(map[string]*attrepo.Attendance, len(rows))
		for j := range rows {
			byDate[rows[j].Date] = &rows[j]
		}

		p := &repository.Payroll{
			ID:          uuid.New().String(),
			EmployeeID:  emp.ID,
			Month:       month,
			BaseSalary:  emp.SalaryMonthly,
			IsLocked:    true,
			GeneratedBy: callerID,
			GeneratedAt: now,
		}

		for d := firstDay; d <= lastDay; d++ {
			date := fmt.Sprintf("%s-%02d", month, d)
			p.TotalWorkingDays++

			row, ok := byDate[date]
			if !ok {
				status := s.backfillStatus(monthStart, d, date, emp.ID, holidaySet, leaveSet)
				backfilled := &attrepo.Attendance{
					ID:               uuid.New().String(),
					EmployeeID:       emp.ID,
					Date:             date,
					Status:           status,
					IsAutoCalculated: true,
					IsLocked:         true,
				}
				if err := s.attendance.Create(ctx, backfilled); err != nil {
					return nil, err
				}
				result.BackfilledDays++
				row = backfilled
			}

			switch row.Status {
			case attrepo.StatusPresent:
				p.PresentDays++
			case attrepo.StatusHalfDay:
				p.HalfDays++
			case attrepo.StatusAbsent:
				p.AbsentDays++
			case attrepo.StatusSunday:
				p.SundayDays++
			case attrepo.StatusHoliday:
				p.HolidayDays++
			case attrepo.StatusLeave:
				p.LeaveDays++
			}
		}

		// pay is spread over calendar days so a full month sums back
		// to the base salary
		p.DailyRate = decimal.NewFromInt(emp.SalaryMonthly).Div(decimal.NewFromInt(int64(calendarDays)))
		p.NetSalary = p.DailyRate.Mul(p.PaidDays()).Round(2)

		if err := s.payroll.Create(ctx, p); err != nil {
			return nil, err
		}
		if err := s.attendance.SetLockedForMonth(ctx, emp.ID, month, true); err != nil {
			return nil, err
		}

		result.EmployeeCount++
		result.TotalNetSalary = result.TotalNetSalary.Add(p.NetSalary)
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionPayrollGenerated,
		TargetID:   month,
		TargetType: "payroll",
		Payload: map[string]any{
			"month":          month,
			"employeeCount":  result.EmployeeCount,
			"backfilledDays": result.BackfilledDays,
			"totalNetSalary": result.TotalNetSalary.String(),
		},
	})
	s.events.PayrollGenerated(ctx, month, result.EmployeeCount, callerID)

	return result, nil
}

// backfillStatus decides a missing day: Sunday, then holiday, then
// approved leave, then absent.
func (s *Service) backfillStatus(monthStart time.Time, day int, date, employeeID string, holidaySet map[string]bool, leaveSet map[string]map[string]bool) attrepo.Status {
	weekday := time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, monthStart.Location()).Weekday()

	switch {
	case weekday == time.Sunday:
		return attrepo.StatusSunday
	case holidaySet[date]:
		return attrepo.StatusHoliday
	case leaveSet[employeeID][date]:
		return attrepo.StatusLeave
	default:
		return attrepo.StatusAbsent
	}
}

// Unlock reopens a settled month for corrections.
func (s *Service) Unlock(ctx context.Context, callerID, month, reason string) (int, error) {
	if _, err := s.parseMonth(month); err != nil {
		return 0, err
	}
	if !validReason(reason) {
		return 0, apperrors.MissingReason()
	}

	payrolls, err := s.payroll.ListByMonth(ctx, month)
	if err != nil {
		return 0, err
	}
	if len(payrolls) == 0 {
		return 0, apperrors.NotFound("payroll for month " + month)
	}

	now := s.clock.Now()
	for i := range payrolls {
		p := &payrolls[i]
		p.IsLocked = false
		p.UnlockedBy = &callerID
		p.UnlockedAt = &now
		p.UnlockReason = &reason

		if err := s.payroll.Update(ctx, p); err != nil {
			return 0, err
		}
		if err := s.attendance.SetLockedForMonth(ctx, p.EmployeeID, month, false); err != nil {
			return 0, err
		}
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionPayrollUnlocked,
		TargetID:   month,
		TargetType: "payroll",
		Payload: map[string]any{
			"month":  month,
			"reason": reason,
			"count":  len(payrolls),
		},
	})
	s.events.PayrollUnlocked(ctx, month, callerID, reason)

	return len(payrolls), nil
}

// DeleteResult reports what a payroll deletion removed.
type DeleteResult struct {
	PayrollsDeleted   int   `json:"payrollsDeleted"`
	AttendanceDeleted int64 `json:"attendanceDeleted"`
}

// Delete removes the month's payroll and its auto-calculated
// attendance. Admin-edited attendance survives so a regenerate keeps
// manual corrections.
func (s *Service) Delete(ctx context.Context, callerID, month, reason string) (*DeleteResult, error) {
	if _, err := s.parseMonth(month); err != nil {
		return nil, err
	}
	if !validReason(reason) {
		return nil, apperrors.MissingReason()
	}

	payrolls, err := s.payroll.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(payrolls) == 0 {
		return nil, apperrors.NotFound("payroll for month " + month)
	}

	result := &DeleteResult{}
	for i := range payrolls {
		p := &payrolls[i]

		if err := s.payroll.Delete(ctx, p.ID); err != nil {
			return nil, err
		}
		deleted, err := s.attendance.DeleteAutoCalculatedForMonth(ctx, p.EmployeeID, month)
		if err != nil {
			return nil, err
		}

		result.PayrollsDeleted++
		result.AttendanceDeleted += deleted
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionPayrollDeleted,
		TargetID:   month,
		TargetType: "payroll",
		Payload: map[string]any{
			"month":             month,
			"reason":            reason,
			"payrollsDeleted":   result.PayrollsDeleted,
			"attendanceDeleted": result.AttendanceDeleted,
		},
	})
	s.events.PayrollDeleted(ctx, month, callerID, reason)

	return result, nil
}

// Report is the per-month payroll report.
type Report struct {
	Month   string        `json:"month"`
	Entries []ReportEntry `json:"entries"`
}

// ReportEntry is one employee's settled month with a daily breakdown.
type ReportEntry struct {
	EmployeeID   string             `json:"employeeId"`
	EmployeeName string             `json:"employeeName"`
	Payroll      repository.Payroll `json:"payroll"`
	Days         []DayDetail        `json:"days"`
}

// DayDetail is one day of the breakdown, times rendered office-local.
type DayDetail struct {
	Date         string  `json:"date"`
	Status       string  `json:"status"`
	CheckInTime  string  `json:"checkInTime,omitempty"`
	CheckOutTime string  `json:"checkOutTime,omitempty"`
	WorkHours    float64 `json:"workHours"`
	Flagged      bool    `json:"flagged,omitempty"`
}

// GetReport builds (or serves from cache) the month's report.
// An empty month defaults to the current month.
func (s *Service) GetReport(ctx context.Context, month string) (*Report, error) {
	if month == "" {
		month = s.clock.Now().Format(clock.MonthLayout)
	}
	if _, err := s.parseMonth(month); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if report, ok := s.cache.Get(month); ok {
			return report, nil
		}
	}

	payrolls, err := s.payroll.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(payrolls) == 0 {
		return nil, apperrors.NotFound("payroll for month " + month)
	}

	report := &Report{Month: month}
	loc := s.clock.Location()

	for i := range payrolls {
		p := payrolls[i]

		name := p.EmployeeID
		if emp, err := s.employees.GetByID(ctx, p.EmployeeID); err == nil {
			name = emp.Name
		}

		rows, err := s.attendance.ListForMonth(ctx, p.EmployeeID, month)
		if err != nil {
			return nil, err
		}

		days := make([]DayDetail, 0, len(rows))
		for _, row := range rows {
			day := DayDetail{
				Date:      row.Date,
				Status:    string(row.Status),
				WorkHours: row.WorkHours,
				Flagged:   row.IsLocationFlagged,
			}
			if row.CheckInTime != nil {
				day.CheckInTime = row.CheckInTime.In(loc).Format(time.RFC3339)
			}
			if row.CheckOutTime != nil {
				day.CheckOutTime = row.CheckOutTime.In(loc).Format(time.RFC3339)
			}
			days = append(days, day)
		}

		report.Entries = append(report.Entries, ReportEntry{
			EmployeeID:   p.EmployeeID,
			EmployeeName: name,
			Payroll:      p,
			Days:         days,
		})
	}

	if s.cache != nil {
		s.cache.Put(month, report)
	}
	return report, nil
}
