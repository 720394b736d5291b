// Package clock is the single source of "now" and "today".
//
// CALENDAR DATES:
// A calendar date is represented as a time.Time at 00:00:00 UTC carrying the
// year/month/day of the configured zone. Two dates can then be compared
// with Equal and subtracted in whole days without DST surprises, and they
// serialise to SQLite as "2006-01-02".
//
// Every component gets "today" from the same Clock, so streaks, the ledger
// and deadline alerts all agree on where midnight is.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Clock supplies the current instant and the current calendar date.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// System is a Clock backed by time.Now, evaluated in one fixed location.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock for the named IANA zone ("UTC", "Asia/Almaty", ...).
func NewSystem(zone string) (*System, error) {
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: loading time zone %q: %w", zone, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

func (s *System) Today() time.Time {
	return DateOf(s.Now())
}

// Fixed is a Clock frozen at one instant. Tests move it with Set/Advance.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

func (f *Fixed) Today() time.Time { return DateOf(f.Now()) }

func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// DaysBetween returns to - from in whole days. Both must be calendar dates.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock: parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as "YYYY-MM-DD".
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}
