// Package businessday computes the operating window of a business day.
// A business day runs from a configured start time to a configured end
// time and may span midnight (overnight configurations such as
// 22:00-04:00). All functions are pure; times are interpreted in the
// location of the reference instant they are given.
package businessday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses an "HH:MM" wall-clock string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Config describes one business day. Overnight is never flagged
// explicitly: End at or before Start means the day wraps midnight.
type Config struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseConfig builds a Config from the "HH:MM" settings strings.
func ParseConfig(startTime, endTime string) (Config, error) {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return Config{}, err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return Config{}, err
	}
	return Config{Start: start, End: end}, nil
}

func (c Config) Overnight() bool {
	return c.End.Minutes() <= c.Start.Minutes()
}

// DayLength is how long one business day lasts. Identical start and end
// times mean exactly 24 hours.
func (c Config) DayLength() time.Duration {
	start := c.Start.Minutes()
	end := c.End.Minutes()
	if end <= start {
		return time.Duration(24*60-start+end) * time.Minute
	}
	return time.Duration(end-start) * time.Minute
}

// Range is the half-open [Start, End) instant span of one business day.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Hours is the range length in whole hours.
func (r Range) Hours() int {
	return int(r.End.Sub(r.Start).Hours())
}

// ComputeRange returns the business day containing ref. If ref sits
// before today's start-of-day the window began yesterday at the same
// wall-clock time.
func ComputeRange(ref time.Time, cfg Config) Range {
	todayAtStart := time.Date(ref.Year(), ref.Month(), ref.Day(), cfg.Start.Hour, cfg.Start.Minute, 0, 0, ref.Location())

	start := todayAtStart
	if ref.Before(todayAtStart) {
		start = todayAtStart.AddDate(0, 0, -1)
	}

	return Range{Start: start, End: start.Add(cfg.DayLength())}
}

// ComputeJustEndedRange returns the business day that ends at now,
// treating now as the candidate end. A lastClose watermark later than
// the computed start truncates the window so no period that was already
// closed manually is counted twice.
func ComputeJustEndedRange(now time.Time, cfg Config, lastClose *time.Time) Range {
	start := now.Add(-cfg.DayLength())
	if lastClose != nil && lastClose.After(start) {
		start = *lastClose
	}
	return Range{Start: start, End: now}
}
