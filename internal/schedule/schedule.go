// Package schedule derives whether the store accepts orders from its weekly
// opening hours. Everything here is a pure function of the supplied time.
package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a local wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" with two digits per field.
// Seconds are validated and then dropped.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, ok := clockField(parts[0], 23)
	if !ok {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, ok := clockField(parts[1], 59)
	if !ok {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if _, ok := clockField(parts[2], 59); !ok {
			return 0, fmt.Errorf("invalid second in %q", raw)
		}
	}
	return TimeOfDay(hour*60 + minute), nil
}

func clockField(raw string, limit int) (int, bool) {
	if len(raw) != 2 || raw[0] < '0' || raw[0] > '9' || raw[1] < '0' || raw[1] > '9' {
		return 0, false
	}
	n, _ := strconv.Atoi(raw)
	return n, n <= limit
}

// MustTimeOfDay panics on malformed input; for fixtures and constants.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// At extracts the time of day of t in t's own location.
func At(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	m := int(t) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Hours is the opening window of one weekday. Open and Close are nil when unset.
type Hours struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	Open      *TimeOfDay   `json:"open_time,omitempty"`
	Close     *TimeOfDay   `json:"close_time,omitempty"`
	Closed    bool         `json:"is_closed"`
}

// Window is a displayable [Open, Close) range. Close < Open means it crosses midnight.
type Window struct {
	Open  TimeOfDay `json:"open"`
	Close TimeOfDay `json:"close"`
}

// Overnight reports whether the window ends on the following day.
func (w Window) Overnight() bool {
	return w.Close < w.Open
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t TimeOfDay) bool {
	if w.Overnight() {
		return t >= w.Open || t < w.Close
	}
	return t >= w.Open && t < w.Close
}

// Status is what the storefront shows in its header.
type Status struct {
	Open  bool    `json:"open"`
	Today *Window `json:"today"`
}

func hoursFor(week []Hours, day time.Weekday) (Hours, bool) {
	for _, h := range week {
		if h.DayOfWeek == day {
			return h, true
		}
	}
	return Hours{}, false
}

// TodayWindow returns today's window, or false when the day is closed, missing
// or has an unset time.
func TodayWindow(week []Hours, now time.Time) (Window, bool) {
	today, ok := hoursFor(week, now.Weekday())
	if !ok || today.Closed || today.Open == nil || today.Close == nil {
		return Window{}, false
	}
	return Window{Open: *today.Open, Close: *today.Close}, true
}

// IsOpen reports whether now falls inside today's window.
func IsOpen(week []Hours, now time.Time) bool {
	window, ok := TodayWindow(week, now)
	if !ok {
		return false
	}
	return window.Contains(At(now))
}

// Evaluate bundles IsOpen and TodayWindow for a single now.
func Evaluate(week []Hours, now time.Time) Status {
	status := Status{Open: IsOpen(week, now)}
	if window, ok := TodayWindow(week, now); ok {
		status.Today = &window
	}
	return status
}
