// Package clock is the single time authority for attendance decisions.
// All windows and dates are evaluated in the configured office timezone;
// client-supplied timestamps are never trusted.
package clock

import (
	"fmt"
	"time"
)

// Canonical layouts for office-local dates and months.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Window boundaries in seconds since office-local midnight.
const (
	checkInDeadline    = 9*3600 + 5*60   // 09:05:00, inclusive
	checkOutBlockStart = 16 * 3600       // 16:00:00
	checkOutBlockEnd   = 17*3600 + 25*60 // 17:25:00
)

// Clock answers all time questions for the attendance domain.
type Clock interface {
	Now() time.Time
	// Today returns the office-local calendar date as YYYY-MM-DD.
	Today() string
	// CheckInAllowed reports whether a check-in at Now() is within the
	// morning window (at or before 09:05:00 office time).
	CheckInAllowed() bool
	// CheckOutAllowed reports whether a check-out at Now() is outside
	// the blocked afternoon window [16:00:00, 17:25:00].
	CheckOutAllowed() bool
	Location() *time.Location
}

// Office is the production clock pinned to the office timezone.
type Office struct {
	loc *time.Location
}

// NewOffice loads the office timezone and returns the production clock.
func NewOffice(timezone string) (*Office, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid office timezone %q: %w", timezone, err)
	}
	return &Office{loc: loc}, nil
}

func (c *Office) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *Office) Today() string {
	return c.Now().Format(DateLayout)
}

func (c *Office) CheckInAllowed() bool {
	return checkInAllowedAt(c.Now())
}

func (c *Office) CheckOutAllowed() bool {
	return checkOutAllowedAt(c.Now())
}

func (c *Office) Location() *time.Location {
	return c.loc
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func checkInAllowedAt(t time.Time) bool {
	return secondsOfDay(t) <= checkInDeadline
}

func checkOutAllowedAt(t time.Time) bool {
	s := secondsOfDay(t)
	return s < checkOutBlockStart || s > checkOutBlockEnd
}

// Fixed is a test clock frozen at a specific instant.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a clock frozen at the given instant. The instant's
// location is treated as the office timezone.
func NewFixed(instant time.Time) *Fixed {
	return &Fixed{Instant: instant}
}

func (c *Fixed) Now() time.Time           { return c.Instant }
func (c *Fixed) Today() string            { return c.Instant.Format(DateLayout) }
func (c *Fixed) CheckInAllowed() bool     { return checkInAllowedAt(c.Instant) }
func (c *Fixed) CheckOutAllowed() bool    { return checkOutAllowedAt(c.Instant) }
func (c *Fixed) Location() *time.Location { return c.Instant.Location() }
