// Package schedule implements the dose-scheduling and adherence-status
// engine. Every function is a pure computation over the medications and
// intake logs it is handed plus an explicit "now", so callers (and tests)
// fully control the clock.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MinuteOfDay parses a 24-hour "HH:MM" clock string into minutes since
// midnight. Hours 0-23, minutes 0-59.
func MinuteOfDay(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock string %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock string %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock string %q", clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return hour*60 + minute, nil
}

// ClockString renders the time-of-day of t as "HH:MM"
func ClockString(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// FormatClock converts "HH:MM" to a 12-hour display string like "8:00 AM".
// Malformed input is returned unchanged.
func FormatClock(clock string) string {
	minutes, err := MinuteOfDay(clock)
	if err != nil {
		return clock
	}
	t := time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// DayName returns the short weekday name for a 0-6 (Sunday=0) day index
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

func minuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
