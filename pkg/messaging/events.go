package messaging

import "time"

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
)

// Event routing keys
const (
	EventCheckIn            = "attendance.check_in"
	EventCheckOut           = "attendance.check_out"
	EventAttendanceModified = "attendance.modified"
	EventDeviceRegistered   = "device.registered"
	EventDeviceReset        = "device.reset"
	EventEmployeeCreated    = "employee.created"
	EventHolidayCreated     = "holiday.created"
	EventHolidayDeleted     = "holiday.deleted"
	EventOfficeLocationAdded = "office.location_added"
	EventPayrollGenerated   = "payroll.generated"
	EventPayrollUnlocked    = "payroll.unlocked"
	EventPayrollDeleted     = "payroll.deleted"
)

// Event is the base structure for all domain events
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceEvent is published on check-in, check-out and admin modification
type AttendanceEvent struct {
	Event
	EmployeeID   string  `json:"employeeId"`
	Date         string  `json:"date"`
	Status       string  `json:"status"`
	WorkHours    float64 `json:"workHours,omitempty"`
	LocationFlag bool    `json:"locationFlag,omitempty"`
	ModifiedBy   string  `json:"modifiedBy,omitempty"`
}

// DeviceEvent is published on device registration and reset
type DeviceEvent struct {
	Event
	EmployeeID  string `json:"employeeId"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ResetBy     string `json:"resetBy,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// EmployeeEvent is published on employee creation
type EmployeeEvent struct {
	Event
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// CalendarEvent is published on holiday and office location changes
type CalendarEvent struct {
	Event
	Date string `json:"date,omitempty"`
	Name string `json:"name,omitempty"`
}

// PayrollEvent is published on payroll lifecycle transitions
type PayrollEvent struct {
	Event
	Month       string `json:"month"`
	Employees   int    `json:"employees,omitempty"`
	PerformedBy string `json:"performedBy"`
	Reason      string `json:"reason,omitempty"`
}
