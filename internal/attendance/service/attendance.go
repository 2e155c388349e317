// Package service implements the per-day attendance state machine:
// windowed check-in/check-out, device binding, and admin overrides.
package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/attendly/attendance-backend/internal/attendance/events"
	"github.com/attendly/attendance-backend/internal/attendance/geofence"
	"github.com/attendly/attendance-backend/internal/attendance/repository"
	"github.com/attendly/attendance-backend/internal/audit"
	"github.com/attendly/attendance-backend/internal/directory"
	payrollrepo "github.com/attendly/attendance-backend/internal/payroll/repository"
	"github.com/attendly/attendance-backend/pkg/clock"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/logger"
	"github.com/attendly/attendance-backend/pkg/signature"
)

// EmployeeStore is the employee persistence the engine needs.
type EmployeeStore interface {
	Create(ctx context.Context, emp *repository.Employee) error
	GetByID(ctx context.Context, id string) (*repository.Employee, error)
	GetByEmail(ctx context.Context, email string) (*repository.Employee, error)
	BindDevice(ctx context.Context, id, publicKey, fingerprint string, registeredAt time.Time) error
	ClearDevice(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// AttendanceStore is the attendance persistence the engine needs.
type AttendanceStore interface {
	Create(ctx context.Context, att *repository.Attendance) error
	GetByID(ctx context.Context, id string) (*repository.Attendance, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*repository.Attendance, error)
	Update(ctx context.Context, att *repository.Attendance) error
	ListForMonth(ctx context.Context, employeeID, month string) ([]repository.Attendance, error)
}

// ModificationStore records admin edits.
type ModificationStore interface {
	Create(ctx context.Context, mod *repository.Modification) error
}

// HolidayStore is the holiday persistence the engine needs.
type HolidayStore interface {
	Create(ctx context.Context, h *repository.Holiday) error
	GetByID(ctx context.Context, id string) (*repository.Holiday, error)
	Delete(ctx context.Context, id string) error
}

// OfficeStore is the office location persistence the engine needs.
type OfficeStore interface {
	Create(ctx context.Context, loc *repository.OfficeLocation) error
	ListActive(ctx context.Context) ([]repository.OfficeLocation, error)
}

// PayrollStore is the slice of payroll persistence the engine touches
// when an admin modification shifts day counters.
type PayrollStore interface {
	GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*payrollrepo.Payroll, error)
	Update(ctx context.Context, p *payrollrepo.Payroll) error
}

// DirectoryUsers is the directory capability for employee creation.
type DirectoryUsers interface {
	CreateUser(ctx context.Context, email, password, name string) (*directory.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// Invalidator clears derived read caches after a mutation.
type Invalidator interface {
	Invalidate()
}

// Location is a client-reported GPS fix.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Service is the attendance engine.
type Service struct {
	employees     EmployeeStore
	attendance    AttendanceStore
	modifications ModificationStore
	holidays      HolidayStore
	offices       OfficeStore
	payroll       PayrollStore
	directory     DirectoryUsers
	clock         clock.Clock
	verify        signature.VerifyFunc
	auditor       audit.Recorder
	events        *events.Publisher
	cache         Invalidator
	defaultRadius float64
	log           *logger.Logger
}

// Config wires the engine's dependencies.
type Config struct {
	Employees     EmployeeStore
	Attendance    AttendanceStore
	Modifications ModificationStore
	Holidays      HolidayStore
	Offices       OfficeStore
	Payroll       PayrollStore
	Directory     DirectoryUsers
	Clock         clock.Clock
	Verify        signature.VerifyFunc
	Auditor       audit.Recorder
	Events        *events.Publisher
	Cache         Invalidator
	DefaultRadius float64
	Logger        *logger.Logger
}

// New creates the attendance engine
func New(cfg Config) *Service {
	return &Service{
		employees:     cfg.Employees,
		attendance:    cfg.Attendance,
		modifications: cfg.Modifications,
		holidays:      cfg.Holidays,
		offices:       cfg.Offices,
		payroll:       cfg.Payroll,
		directory:     cfg.Directory,
		clock:         cfg.Clock,
		verify:        cfg.Verify,
		auditor:       cfg.Auditor,
		events:        cfg.Events,
		cache:         cfg.Cache,
		defaultRadius: cfg.DefaultRadius,
		log:           cfg.Logger.WithComponent("attendance"),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validReason(reason string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(reason)) >= 10
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// authenticate resolves the employee by email and verifies the
// device-bound signature. Shared by check-in and check-out.
func (s *Service) authenticate(ctx context.Context, email, sig, dataToVerify string) (*repository.Employee, error) {
	emp, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !emp.HasDevice() {
		return nil, apperrors.DeviceNotRegistered()
	}

	if !s.verify(*emp.DevicePublicKey, dataToVerify, sig) {
		return nil, apperrors.InvalidSignature()
	}

	return emp, nil
}

func (s *Service) evaluateGeofence(ctx context.Context, loc *Location) geofence.Result {
	if loc == nil {
		return geofence.Result{Valid: true}
	}

	offices, err := s.offices.ListActive(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load office locations, flagging check")
		return geofence.Result{Valid: true, Flagged: true, Reason: "No office locations configured"}
	}

	return geofence.Evaluate(loc.Latitude, loc.Longitude, loc.Accuracy, offices)
}

// CheckIn records the start of an employee's day.
func (s *Service) CheckIn(ctx context.Context, email, sig, dataToVerify string, loc *Location) (*repository.Attendance, error) {
	if !s.clock.CheckInAllowed() {
		return nil, apperrors.LateCheckIn()
	}

	emp, err := s.authenticate(ctx, email, sig, dataToVerify)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	now := s.clock.Now()

	existing, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.CheckInTime != nil {
		return nil, apperrors.DuplicateCheckIn()
	}

	fence := s.evaluateGeofence(ctx, loc)

	att := existing
	if att == nil {
		att = &repository.Attendance{
			ID:         uuid.New().String(),
			EmployeeID: emp.ID,
			Date:       today,
		}
	}
	att.Status = repository.StatusAbsent // placeholder until checkout
	att.CheckInTime = &now
	att.IsLocationFlagged = fence.Flagged
	att.IsAutoCalculated = true
	att.IsLocked = false
	if loc != nil {
		att.CheckInLat = &loc.Latitude
		att.CheckInLng = &loc.Longitude
		att.CheckInAccuracy = loc.Accuracy
	}
	if fence.Reason != "" {
		att.Notes = fence.Reason
	}

	if existing == nil {
		// the unique index on (employee_id, date) is the duplicate
		// guard under concurrency; MapError turns the conflict into
		// DUPLICATE_CHECK_IN
		err = s.attendance.Create(ctx, att)
	} else {
		err = s.attendance.Update(ctx, att)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    emp.ID,
		Action:     audit.ActionCheckIn,
		TargetID:   att.ID,
		TargetType: "attendance",
		Payload: map[string]any{
			"date":            today,
			"locationFlagged": fence.Flagged,
		},
		Signature:         &sig,
		SignatureVerified: true,
	})
	s.events.CheckIn(ctx, emp.ID, today, fence.Flagged)

	return att, nil
}

// CheckOut records the end of an employee's day and settles the status band.
func (s *Service) CheckOut(ctx context.Context, email, sig, dataToVerify string, loc *Location) (*repository.Attendance, error) {
	if !s.clock.CheckOutAllowed() {
		return nil, apperrors.CheckoutWindowBlocked()
	}

	emp, err := s.authenticate(ctx, email, sig, dataToVerify)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	now := s.clock.Now()

	att, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return nil, err
	}
	if att == nil || att.CheckInTime == nil {
		return nil, apperrors.MissingCheckIn()
	}
	if att.CheckOutTime != nil {
		return nil, apperrors.DuplicateCheckOut()
	}

	fence := s.evaluateGeofence(ctx, loc)

	att.CheckOutTime = &now
	att.WorkHours = round2(math.Max(0, now.Sub(*att.CheckInTime).Hours()))
	att.Status = repository.StatusForWorkHours(att.WorkHours)
	if loc != nil {
		att.CheckOutLat = &loc.Latitude
		att.CheckOutLng = &loc.Longitude
		att.CheckOutAccuracy = loc.Accuracy
	}
	if fence.Flagged {
		att.IsLocationFlagged = true
		if fence.Reason != "" {
			att.Notes = fence.Reason
		}
	}

	if err := s.attendance.Update(ctx, att); err != nil {
		return nil, err
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    emp.ID,
		Action:     audit.ActionCheckOut,
		TargetID:   att.ID,
		TargetType: "attendance",
		Payload: map[string]any{
			"date":      today,
			"status":    string(att.Status),
			"workHours": att.WorkHours,
		},
		Signature:         &sig,
		SignatureVerified: true,
	})
	s.events.CheckOut(ctx, emp.ID, today, string(att.Status), att.WorkHours)

	return att, nil
}

// RegisterDevice binds a device key to an employee. Rebinding requires
// an explicit admin reset first.
func (s *Service) RegisterDevice(ctx context.Context, email, publicKey, fingerprint string) error {
	emp, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if emp.HasDevice() {
		return apperrors.AlreadyExists("a device is already registered for this employee")
	}

	if _, err := signature.ParsePublicKey(publicKey); err != nil {
		return apperrors.BadRequest("public key is not a valid PEM-encoded RSA key")
	}

	if err := s.employees.BindDevice(ctx, emp.ID, publicKey, fingerprint, s.clock.Now()); err != nil {
		return apperrors.AlreadyExists("a device is already registered for this employee")
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:    emp.ID,
		Action:     audit.ActionDeviceRegistered,
		TargetID:   emp.ID,
		TargetType: "employee",
		Payload: map[string]any{
			"fingerprint": fingerprint,
		},
	})
	s.events.DeviceRegistered(ctx, emp.ID, fingerprint)

	return nil
}

// ResetDevice clears an employee's device binding. Admin only; the
// router gates before calling.
func (s *Service) ResetDevice(ctx context.Context, callerID, employeeID, reason string) error {
	if !validReason(reason) {
		return apperrors.MissingReason()
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}

	if err := s.employees.ClearDevice(ctx, emp.ID); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionDeviceReset,
		TargetID:   emp.ID,
		TargetType: "employee",
		Payload: map[string]any{
			"reason": reason,
		},
	})
	s.events.DeviceReset(ctx, emp.ID, callerID, reason)

	return nil
}

// Modifications is the subset of attendance fields an admin may override.
type Modifications struct {
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
	Status       *string    `json:"status,omitempty"`
}

func (m *Modifications) empty() bool {
	return m.CheckInTime == nil && m.CheckOutTime == nil && m.Status == nil
}

type attendanceSnapshot struct {
	CheckInTime  *time.Time        `json:"checkInTime"`
	CheckOutTime *time.Time        `json:"checkOutTime"`
	Status       repository.Status `json:"status"`
	WorkHours    float64           `json:"workHours"`
}

func snapshot(att *repository.Attendance) string {
	data, _ := json.Marshal(attendanceSnapshot{
		CheckInTime:  att.CheckInTime,
		CheckOutTime: att.CheckOutTime,
		Status:       att.Status,
		WorkHours:    att.WorkHours,
	})
	return string(data)
}

// ModifyAttendance applies an admin override to an unlocked attendance
// row, records the modification, and keeps any non-locked payroll for
// the covered month consistent.
func (s *Service) ModifyAttendance(ctx context.Context, callerID, attendanceID, reason string, mods Modifications) (*repository.Attendance, error) {
	if !validReason(reason) {
		return nil, apperrors.MissingReason()
	}

	att, err := s.attendance.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if att.IsLocked {
		return nil, apperrors.AttendanceLocked()
	}
	if mods.empty() {
		return nil, apperrors.BadRequest("no modifications provided")
	}
	if mods.Status != nil && !repository.Status(*mods.Status).Valid() {
		return nil, apperrors.BadRequest("unknown attendance status: " + *mods.Status)
	}

	original := snapshot(att)
	oldStatus := att.Status

	var changed []string
	timesChanged := false
	if mods.CheckInTime != nil {
		att.CheckInTime = mods.CheckInTime
		changed = append(changed, "checkInTime")
		timesChanged = true
	}
	if mods.CheckOutTime != nil {
		att.CheckOutTime = mods.CheckOutTime
		changed = append(changed, "checkOutTime")
		timesChanged = true
	}

	if timesChanged {
		if att.CheckInTime != nil && att.CheckOutTime != nil {
			att.WorkHours = round2(math.Max(0, att.CheckOutTime.Sub(*att.CheckInTime).Hours()))
		} else {
			att.WorkHours = 0
		}
		if mods.Status == nil {
			att.Status = repository.StatusForWorkHours(att.WorkHours)
		}
	}
	if mods.Status != nil {
		att.Status = repository.Status(*mods.Status)
		changed = append(changed, "status")
	}

	att.IsAutoCalculated = false

	if err := s.attendance.Update(ctx, att); err != nil {
		return nil, err
	}

	mod := &repository.Modification{
		ID:            uuid.New().String(),
		AttendanceID:  att.ID,
		EmployeeID:    att.EmployeeID,
		ModifiedBy:    callerID,
		ModifiedAt:    s.clock.Now(),
		Reason:        reason,
		FieldChanged:  strings.Join(changed, ","),
		OriginalValue: original,
		NewValue:      snapshot(att),
	}
	if err := s.modifications.Create(ctx, mod); err != nil {
		return nil, err
	}

	if err := s.adjustPayroll(ctx, att.EmployeeID, att.Date, oldStatus, att.Status); err != nil {
		return nil, err
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionAttendanceModified,
		TargetID:   att.ID,
		TargetType: "attendance",
		Payload: map[string]any{
			"reason":       reason,
			"fieldChanged": mod.FieldChanged,
			"oldStatus":    string(oldStatus),
			"newStatus":    string(att.Status),
		},
	})
	s.events.AttendanceModified(ctx, att.EmployeeID, att.Date, string(att.Status), callerID)

	return att, nil
}

// adjustPayroll shifts the month's day counters for an old→new status
// transition and recomputes net pay. Locked payrolls are unreachable
// here because the attendance row would have been locked.
func (s *Service) adjustPayroll(ctx context.Context, employeeID, date string, oldStatus, newStatus repository.Status) error {
	if oldStatus == newStatus {
		return nil
	}

	month := date[:len("2006-01")]
	p, err := s.payroll.GetByEmployeeAndMonth(ctx, employeeID, month)
	if err != nil {
		return err
	}
	if p == nil || p.IsLocked {
		return nil
	}

	addToCounter(p, oldStatus, -1)
	addToCounter(p, newStatus, +1)
	p.NetSalary = p.DailyRate.Mul(p.PaidDays()).Round(2)

	return s.payroll.Update(ctx, p)
}

func addToCounter(p *payrollrepo.Payroll, status repository.Status, delta int) {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	switch status {
	case repository.StatusPresent:
		p.PresentDays = clamp(p.PresentDays + delta)
	case repository.StatusHalfDay:
		p.HalfDays = clamp(p.HalfDays + delta)
	case repository.StatusAbsent:
		p.AbsentDays = clamp(p.AbsentDays + delta)
	case repository.StatusSunday:
		p.SundayDays = clamp(p.SundayDays + delta)
	case repository.StatusHoliday:
		p.HolidayDays = clamp(p.HolidayDays + delta)
	case repository.StatusLeave:
		p.LeaveDays = clamp(p.LeaveDays + delta)
	}
}

// CreateEmployeeInput is the admin payload for employee creation.
type CreateEmployeeInput struct {
	Email    string
	Password string
	Name     string
	Salary   int64
	JoinDate string
}

// CreateEmployee creates the directory account and the employee row.
// If the row write fails the directory account is rolled back; a failed
// rollback is logged and the original error surfaces for manual
// reconciliation.
func (s *Service) CreateEmployee(ctx context.Context, callerID string, input CreateEmployeeInput) (*repository.Employee, error) {
	if input.Salary <= 0 {
		return nil, apperrors.BadRequest("salary must be a positive amount")
	}

	var joinDate *time.Time
	if input.JoinDate != "" {
		parsed, err := time.ParseInLocation(clock.DateLayout, input.JoinDate, s.clock.Location())
		if err != nil {
			return nil, apperrors.BadRequest("joinDate must be YYYY-MM-DD")
		}
		joinDate = &parsed
	}

	user, err := s.directory.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	emp := &repository.Employee{
		ID:            user.ID,
		Name:          input.Name,
		Email:         input.Email,
		Role:          "employee",
		IsActive:      true,
		SalaryMonthly: input.Salary,
		JoinDate:      joinDate,
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		if rbErr := s.directory.DeleteUser(ctx, user.ID); rbErr != nil {
			s.log.Error().
				Err(rbErr).
				Str("user_id", user.ID).
				Msg("directory rollback failed, manual reconciliation required")
		}
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionEmployeeCreated,
		TargetID:   emp.ID,
		TargetType: "employee",
		Payload: map[string]any{
			"email": emp.Email,
			"name":  emp.Name,
		},
	})
	s.events.EmployeeCreated(ctx, emp.ID, emp.Email, emp.Role)

	return emp, nil
}

// MyAttendance returns the caller's own rows for a month
// (current month when unspecified).
func (s *Service) MyAttendance(ctx context.Context, callerID, month string) ([]repository.Attendance, error) {
	if callerID == "" {
		return nil, apperrors.AuthRequired()
	}
	if month == "" {
		month = s.clock.Now().Format(clock.MonthLayout)
	}
	return s.attendance.ListForMonth(ctx, callerID, month)
}

// CreateHoliday declares an office-wide non-working day.
func (s *Service) CreateHoliday(ctx context.Context, callerID, date, name, description string) (*repository.Holiday, error) {
	if _, err := time.ParseInLocation(clock.DateLayout, date, s.clock.Location()); err != nil {
		return nil, apperrors.BadRequest("date must be YYYY-MM-DD")
	}
	if name == "" {
		return nil, apperrors.BadRequest("holiday name is required")
	}

	h := &repository.Holiday{
		ID:          uuid.New().String(),
		Date:        date,
		Name:        name,
		Description: description,
	}
	if err := s.holidays.Create(ctx, h); err != nil {
		return nil, err
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionHolidayCreated,
		TargetID:   h.ID,
		TargetType: "holiday",
		Payload: map[string]any{
			"date": date,
			"name": name,
		},
	})
	s.events.HolidayCreated(ctx, date, name)

	return h, nil
}

// DeleteHoliday removes a declared holiday.
func (s *Service) DeleteHoliday(ctx context.Context, callerID, holidayID string) error {
	h, err := s.holidays.GetByID(ctx, holidayID)
	if err != nil {
		return err
	}

	if err := s.holidays.Delete(ctx, h.ID); err != nil {
		return err
	}

	s.invalidate()

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionHolidayDeleted,
		TargetID:   h.ID,
		TargetType: "holiday",
		Payload: map[string]any{
			"date": h.Date,
		},
	})
	s.events.HolidayDeleted(ctx, h.Date)

	return nil
}

// AddOfficeLocation registers a new geofence circle.
func (s *Service) AddOfficeLocation(ctx context.Context, callerID, name string, lat, lng float64, radiusMeters *float64) (*repository.OfficeLocation, error) {
	if name == "" {
		return nil, apperrors.BadRequest("office name is required")
	}
	if lat < -90 || lat > 90 {
		return nil, apperrors.LocationInvalid("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, apperrors.LocationInvalid("longitude must be between -180 and 180")
	}

	radius := s.defaultRadius
	if radiusMeters != nil {
		if *radiusMeters <= 0 {
			return nil, apperrors.LocationInvalid("radius must be positive")
		}
		radius = *radiusMeters
	}

	loc := &repository.OfficeLocation{
		ID:           uuid.New().String(),
		Name:         name,
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radius,
		IsActive:     true,
	}
	if err := s.offices.Create(ctx, loc); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		ActorID:    callerID,
		Action:     audit.ActionOfficeLocationAdded,
		TargetID:   loc.ID,
		TargetType: "office_location",
		Payload: map[string]any{
			"name":   name,
			"radius": radius,
		},
	})
	s.events.OfficeLocationAdded(ctx, name)

	return loc, nil
}

// SystemInfo is the get-system-info response.
type SystemInfo struct {
	CurrentTime     time.Time `json:"currentTime"`
	Today           string    `json:"today"`
	Timezone        string    `json:"timezone"`
	CheckInAllowed  bool      `json:"checkInAllowed"`
	CheckOutAllowed bool      `json:"checkOutAllowed"`
}

// SystemInfo reports the office clock's view of now and both windows.
func (s *Service) SystemInfo() SystemInfo {
	return SystemInfo{
		CurrentTime:     s.clock.Now(),
		Today:           s.clock.Today(),
		Timezone:        s.clock.Location().String(),
		CheckInAllowed:  s.clock.CheckInAllowed(),
		CheckOutAllowed: s.clock.CheckOutAllowed(),
	}
}
