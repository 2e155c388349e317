// Package events publishes attendance domain events. Publishing is
// best-effort; a broker outage never fails the request that triggered
// the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendance-backend/pkg/logger"
	"github.com/attendly/attendance-backend/pkg/messaging"
)

// Broker is the messaging capability this publisher needs.
type Broker interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

// Publisher emits domain events for the attendance and payroll engines.
type Publisher struct {
	broker Broker
	log    *logger.Logger
}

// NewPublisher creates a domain event publisher
func NewPublisher(broker Broker, log *logger.Logger) *Publisher {
	return &Publisher{
		broker: broker,
		log:    log.WithComponent("events"),
	}
}

func (p *Publisher) base(eventType string) messaging.Event {
	return messaging.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event interface{}) {
	if p.broker == nil {
		return
	}
	if err := p.broker.Publish(ctx, routingKey, event); err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
	}
}

// CheckIn emits attendance.check_in
func (p *Publisher) CheckIn(ctx context.Context, employeeID, date string, flagged bool) {
	p.publish(ctx, messaging.EventCheckIn, messaging.AttendanceEvent{
		Event:        p.base(messaging.EventCheckIn),
		EmployeeID:   employeeID,
		Date:         date,
		Status:       "absent",
		LocationFlag: flagged,
	})
}

// CheckOut emits attendance.check_out
func (p *Publisher) CheckOut(ctx context.Context, employeeID, date, status string, workHours float64) {
	p.publish(ctx, messaging.EventCheckOut, messaging.AttendanceEvent{
		Event:      p.base(messaging.EventCheckOut),
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		WorkHours:  workHours,
	})
}

// AttendanceModified emits attendance.modified
func (p *Publisher) AttendanceModified(ctx context.Context, employeeID, date, status, modifiedBy string) {
	p.publish(ctx, messaging.EventAttendanceModified, messaging.AttendanceEvent{
		Event:      p.base(messaging.EventAttendanceModified),
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		ModifiedBy: modifiedBy,
	})
}

// DeviceRegistered emits device.registered
func (p *Publisher) DeviceRegistered(ctx context.Context, employeeID, fingerprint string) {
	p.publish(ctx, messaging.EventDeviceRegistered, messaging.DeviceEvent{
		Event:       p.base(messaging.EventDeviceRegistered),
		EmployeeID:  employeeID,
		Fingerprint: fingerprint,
	})
}

// DeviceReset emits device.reset
func (p *Publisher) DeviceReset(ctx context.Context, employeeID, resetBy, reason string) {
	p.publish(ctx, messaging.EventDeviceReset, messaging.DeviceEvent{
		Event:      p.base(messaging.EventDeviceReset),
		EmployeeID: employeeID,
		ResetBy:    resetBy,
		Reason:     reason,
	})
}

// EmployeeCreated emits employee.created
func (p *Publisher) EmployeeCreated(ctx context.Context, employeeID, email, role string) {
	p.publish(ctx, messaging.EventEmployeeCreated, messaging.EmployeeEvent{
		Event:      p.base(messaging.EventEmployeeCreated),
		EmployeeID: employeeID,
		Email:      email,
		Role:       role,
	})
}

// HolidayCreated emits holiday.created
func (p *Publisher) HolidayCreated(ctx context.Context, date, name string) {
	p.publish(ctx, messaging.EventHolidayCreated, messaging.CalendarEvent{
		Event: p.base(messaging.EventHolidayCreated),
		Date:  date,
		Name:  name,
	})
}

// HolidayDeleted emits holiday.deleted
func (p *Publisher) HolidayDeleted(ctx context.Context, date string) {
	p.publish(ctx, messaging.EventHolidayDeleted, messaging.CalendarEvent{
		Event: p.base(messaging.EventHolidayDeleted),
		Date:  date,
	})
}

// OfficeLocationAdded emits office.location_added
func (p *Publisher) OfficeLocationAdded(ctx context.Context, name string) {
	p.publish(ctx, messaging.EventOfficeLocationAdded, messaging.CalendarEvent{
		Event: p.base(messaging.EventOfficeLocationAdded),
		Name:  name,
	})
}

// PayrollGenerated emits payroll.generated
func (p *Publisher) PayrollGenerated(ctx context.Context, month string, employees int, generatedBy string) {
	p.publish(ctx, messaging.EventPayrollGenerated, messaging.PayrollEvent{
		Event:       p.base(messaging.EventPayrollGenerated),
		Month:       month,
		Employees:   employees,
		PerformedBy: generatedBy,
	})
}

// PayrollUnlocked emits payroll.unlocked
func (p *Publisher) PayrollUnlocked(ctx context.Context, month, unlockedBy, reason string) {
	p.publish(ctx, messaging.EventPayrollUnlocked, messaging.PayrollEvent{
		Event:       p.base(messaging.EventPayrollUnlocked),
		Month:       month,
		PerformedBy: unlockedBy,
		Reason:      reason,
	})
}

// PayrollDeleted emits payroll.deleted
func (p *Publisher) PayrollDeleted(ctx context.Context, month, deletedBy, reason string) {
	p.publish(ctx, messaging.EventPayrollDeleted, messaging.PayrollEvent{
		Event:       p.base(messaging.EventPayrollDeleted),
		Month:       month,
		PerformedBy: deletedBy,
		Reason:      reason,
	})
}
