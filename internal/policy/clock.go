// Package policy holds the business-time rules: when departures may be
// recorded and which time window a report period covers.
package policy

import (
	"time"

	"github.com/officeflow/attendance-bot/internal/domain"
)

const (
	DefaultBusinessStart = 9
	DefaultBusinessEnd   = 18
)

// Clock evaluates business-time rules in a fixed location.
type Clock struct {
	loc       *time.Location
	startHour int
	endHour   int
	now       func() time.Time
}

// Option customizes a Clock.
type Option func(*Clock)

// WithBusinessHours overrides the [start, end) working-hours window.
func WithBusinessHours(start, end int) Option {
	return func(c *Clock) {
		c.startHour = start
		c.endHour = end
	}
}

// WithNow replaces the wall clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// NewClock builds a clock for loc. A nil loc means time.Local.
func NewClock(loc *time.Location, opts ...Option) *Clock {
	if loc == nil {
		loc = time.Local
	}
	c := &Clock{
		loc:       loc,
		startHour: DefaultBusinessStart,
		endHour:   DefaultBusinessEnd,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the calendar the clock evaluates in.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current moment in the clock's location.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// IsBusinessMoment reports whether t falls on Monday-Friday within the
// working-hours window. The end hour is exclusive.
func (c *Clock) IsBusinessMoment(t time.Time) bool {
	return isBusinessMoment(t.In(c.loc), c.startHour, c.endHour)
}

// ReportWindow returns the inclusive [since, until] bounds for period.
func (c *Clock) ReportWindow(period domain.ReportPeriod, now time.Time) (time.Time, time.Time) {
	return ReportWindow(period, now.In(c.loc))
}

// IsBusinessMoment applies the default 09:00-18:00 weekday window in t's location.
func IsBusinessMoment(t time.Time) bool {
	return isBusinessMoment(t, DefaultBusinessStart, DefaultBusinessEnd)
}

func isBusinessMoment(t time.Time, start, end int) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := t.Hour()
	return hour >= start && hour < end
}

// ReportWindow computes report bounds in now's location.
//
// The week window ends 6 days 23:58:59 after Monday 00:01, i.e. Sunday
// 23:59:59 wall time. Unknown periods cover today from 00:01 up to now.
func ReportWindow(period domain.ReportPeriod, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	y, m, d := now.Date()

	switch period {
	case domain.PeriodDay:
		since := time.Date(y, m, d, 0, 1, 0, 0, loc)
		until := time.Date(y, m, d, 23, 59, 59, 999999000, loc)
		return since, until
	case domain.PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7
		since := time.Date(y, m, d-offset, 0, 1, 0, 0, loc)
		sy, sm, sd := since.Date()
		until := time.Date(sy, sm, sd+6, 23, 59, 59, 0, loc)
		return since, until
	case domain.PeriodMonth:
		since := time.Date(y, m, 1, 0, 1, 0, 0, loc)
		until := time.Date(y, m+1, 1, 0, 0, 0, 0, loc).Add(-time.Microsecond)
		return since, until
	case domain.PeriodYear:
		since := time.Date(y, time.January, 1, 0, 1, 0, 0, loc)
		until := time.Date(y, time.December, 31, 23, 59, 59, 0, loc)
		return since, until
	default:
		return time.Date(y, m, d, 0, 1, 0, 0, loc), now
	}
}
