package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hour, min, sec int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2024, 3, 15, hour, min, sec, 0, loc)
}

func TestCheckInWindow(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		allowed bool
	}{
		{"early morning", at(t, 6, 0, 0), true},
		{"exactly 09:05:00 is still allowed", at(t, 9, 5, 0), true},
		{"09:05:01 is late", at(t, 9, 5, 1), false},
		{"09:06 is late", at(t, 9, 6, 0), false},
		{"midnight", at(t, 0, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFixed(tt.instant)
			assert.Equal(t, tt.allowed, c.CheckInAllowed())
		})
	}
}

func TestCheckOutWindow(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		allowed bool
	}{
		{"15:59:59 allowed", at(t, 15, 59, 59), true},
		{"16:00:00 blocked", at(t, 16, 0, 0), false},
		{"16:30 blocked", at(t, 16, 30, 0), false},
		{"17:25:00 blocked", at(t, 17, 25, 0), false},
		{"17:25:01 allowed", at(t, 17, 25, 1), true},
		{"18:00 allowed", at(t, 18, 0, 0), true},
		{"morning allowed", at(t, 9, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFixed(tt.instant)
			assert.Equal(t, tt.allowed, c.CheckOutAllowed())
		})
	}
}

func TestToday(t *testing.T) {
	c := NewFixed(at(t, 23, 59, 59))
	assert.Equal(t, "2024-03-15", c.Today())
}

func TestNewOffice(t *testing.T) {
	c, err := NewOffice("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", c.Location().String())

	_, err = NewOffice("Not/AZone")
	assert.Error(t, err)
}
