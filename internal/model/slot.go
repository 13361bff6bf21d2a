package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	minutesPerDay = 24 * 60
)

var (
	ErrInvalidDate      = errors.New("date must use the YYYY-MM-DD format")
	ErrInvalidClock     = errors.New("time must use the HH:MM format")
	ErrInvalidDuration  = errors.New("duration must be a positive number of minutes")
	ErrSlotPastMidnight = errors.New("a defense must end on the day it starts")
)

// Slot is a half-open booking interval [Start, End) on one calendar date,
// expressed in minutes since midnight.
type Slot struct {
	Date  time.Time
	Start int
	End   int
}

// NewSlot builds the slot starting at clock ("HH:MM") on date and lasting
// durationMinutes.
func NewSlot(date time.Time, clock string, durationMinutes int) (Slot, error) {
	start, err := ParseClock(clock)
	if err != nil {
		return Slot{}, err
	}
	if durationMinutes <= 0 {
		return Slot{}, ErrInvalidDuration
	}
	end := start + durationMinutes
	if end > minutesPerDay {
		return Slot{}, ErrSlotPastMidnight
	}
	return Slot{Date: DateOnly(date), Start: start, End: end}, nil
}

// Overlaps uses the half-open test: a slot ending at 10:00 does not clash
// with one starting at 10:00.
func (s Slot) Overlaps(o Slot) bool {
	if !s.Date.Equal(o.Date) {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// StartsAt the naive wall-clock start, stored as UTC.
func (s Slot) StartsAt() time.Time {
	return s.Date.Add(time.Duration(s.Start) * time.Minute)
}

// EndsAt the naive wall-clock end, stored as UTC.
func (s Slot) EndsAt() time.Time {
	return s.Date.Add(time.Duration(s.End) * time.Minute)
}

// StartClock formats the start as HH:MM.
func (s Slot) StartClock() string { return FormatClock(s.Start) }

// EndClock formats the end as HH:MM.
func (s Slot) EndClock() string { return FormatClock(s.End) }

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", FormatDate(s.Date), s.StartClock(), s.EndClock())
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses "YYYY-MM-DD" into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate formats a date as "YYYY-MM-DD".
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// DateOnly drops the clock part and keeps the calendar date as a UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WallClock re-expresses now, as seen in loc, in the naive UTC form used by
// Slot.StartsAt so the two can be compared.
func WallClock(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}
