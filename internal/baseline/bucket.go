package baseline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// BucketWidth is the width of one time bucket in minutes.
	BucketWidth = 10
	// MinutesPerDay is the number of minutes in a service day.
	MinutesPerDay = 24 * 60
	// BucketsPerDay is the number of buckets that tile a full day.
	BucketsPerDay = MinutesPerDay / BucketWidth
)

// DayType separates weekday from weekend ridership patterns.
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
)

// DayTypeFor returns the day type of t in t's location.
func DayTypeFor(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// ParseDayType parses "weekday" or "weekend", case-insensitively.
func ParseDayType(s string) (DayType, error) {
	switch DayType(strings.ToLower(strings.TrimSpace(s))) {
	case Weekday:
		return Weekday, nil
	case Weekend:
		return Weekend, nil
	default:
		return "", fmt.Errorf("unknown day type %q", s)
	}
}

// MinuteOfDay returns the number of minutes since local midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// BucketStart floors minute to the start of the bucket that contains it.
func BucketStart(minute int) int {
	if minute < 0 {
		return 0
	}
	return minute - minute%BucketWidth
}

// Bucket identifies one 10-minute slot of one route's day.
type Bucket struct {
	Route       string  `json:"route"`
	DayType     DayType `json:"day_type"`
	StartMinute int     `json:"start_minute"`
}

// EndMinute is the first minute after the bucket.
func (b Bucket) EndMinute() int {
	return b.StartMinute + BucketWidth
}

// Contains reports whether minute falls inside the bucket.
func (b Bucket) Contains(minute int) bool {
	return minute >= b.StartMinute && minute < b.EndMinute()
}

// Label formats the bucket start as HH:MM.
func (b Bucket) Label() string {
	return FormatMinute(b.StartMinute)
}

// FormatMinute renders a minute of day as HH:MM. 1440 renders as 24:00.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock parses an HH:MM clock time into a minute of day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q, use HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}
