// Package schedule handles the recurrence arithmetic for pipeline
// start times: parsing human-readable period strings ("15 minutes")
// and advancing a start timestamp into the future by whole periods.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampLayout is the fixed UTC layout the orchestration service
// uses for schedule timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

var periodRe = regexp.MustCompile(`^(\d+) ([a-z]+)$`)

var unitDurations = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
}

// ParsePeriod parses a period string of the form "<integer> <unit>",
// where unit is a pluralized time unit (seconds, minutes, hours, days,
// weeks). Exactly one space separates the number and the unit.
func ParsePeriod(text string) (time.Duration, error) {
	m := periodRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%q cannot be parsed as a period", text)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse period count: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("period count must be positive, got %d", n)
	}

	unit, ok := unitDurations[m[2]]
	if !ok {
		return 0, fmt.Errorf("%q is not a supported period unit", m[2])
	}

	return time.Duration(n) * unit, nil
}

// AdjustToFuture returns timestamp advanced by the smallest
// non-negative whole number of periods such that the result is not
// before now. A timestamp already after now is returned unchanged.
//
// The whole adjustment is computed in one step rather than by repeated
// addition, so a start time years in the past costs the same as one a
// single period back.
func AdjustToFuture(timestamp string, period time.Duration, now time.Time) (string, error) {
	if period <= 0 {
		return "", fmt.Errorf("period must be positive, got %v", period)
	}

	t, err := time.ParseInLocation(TimestampLayout, timestamp, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse timestamp: %w", err)
	}

	if !t.Before(now) {
		return timestamp, nil
	}

	behind := now.Sub(t)
	k := behind / period
	if behind%period != 0 {
		k++
	}

	return t.Add(k * period).UTC().Format(TimestampLayout), nil
}
