package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Recurrence frequencies
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// DefaultOccurrenceLimit caps expansions when the caller passes no limit
const DefaultOccurrenceLimit = 500

// maxRecurrenceSteps bounds iteration for windows far from the series start
const maxRecurrenceSteps = 100000

var ErrInvalidRecurrence = errors.New("invalid recurrence rule")

// RecurrenceRule describes how a series repeats. Until is inclusive; Count
// counts occurrences from the series start, including those before any
// expansion window.
type RecurrenceRule struct {
	Frequency  string     `bson:"frequency" json:"frequency"`
	Interval   int        `bson:"interval,omitempty" json:"interval,omitempty"`
	DaysOfWeek []int      `bson:"daysOfWeek,omitempty" json:"days_of_week,omitempty"` // 0 = Sunday
	DayOfMonth int        `bson:"dayOfMonth,omitempty" json:"day_of_month,omitempty"`
	Until      *time.Time `bson:"until,omitempty" json:"until,omitempty"`
	Count      int        `bson:"count,omitempty" json:"count,omitempty"`
}

// Validate checks the rule's fields
func (r *RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidRecurrence)
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidRecurrence, d)
		}
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range", ErrInvalidRecurrence, r.DayOfMonth)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidRecurrence)
	}
	return nil
}

// Occurrences returns the series' start times within [from, to), at most
// limit of them.
func (r *RecurrenceRule) Occurrences(start, from, to time.Time, limit int) []time.Time {
	if limit <= 0 {
		limit = DefaultOccurrenceLimit
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	out := make([]time.Time, 0)
	seen := 0

	// emit reports whether iteration should continue
	emit := func(t time.Time) bool {
		if t.Before(start) {
			return true
		}
		if !t.Before(to) {
			return false
		}
		if r.Until != nil && t.After(*r.Until) {
			return false
		}
		seen++
		if r.Count > 0 && seen > r.Count {
			return false
		}
		if !t.Before(from) {
			out = append(out, t)
			if len(out) >= limit {
				return false
			}
		}
		return true
	}

	switch r.Frequency {
	case FrequencyDaily:
		for step := 0; step < maxRecurrenceSteps; step++ {
			if !emit(start.AddDate(0, 0, step*interval)) {
				break
			}
		}

	case FrequencyWeekly:
		days := r.weekdays(start)
		weekStart := start.AddDate(0, 0, -int(start.Weekday()))
	weeks:
		for step := 0; step < maxRecurrenceSteps; step++ {
			for _, d := range days {
				if !emit(weekStart.AddDate(0, 0, step*interval*7+d)) {
					break weeks
				}
			}
		}

	case FrequencyMonthly:
		dom := r.DayOfMonth
		if dom == 0 {
			dom = start.Day()
		}
		hour, minute, sec := start.Clock()
		for step := 0; step < maxRecurrenceSteps; step++ {
			first := time.Date(start.Year(), start.Month()+time.Month(step*interval), 1, hour, minute, sec, start.Nanosecond(), start.Location())
			if dom > daysIn(first.Year(), first.Month()) {
				if !first.Before(to) {
					break
				}
				continue
			}
			if !emit(first.AddDate(0, 0, dom-1)) {
				break
			}
		}
	}

	return out
}

func (r *RecurrenceRule) weekdays(start time.Time) []int {
	if len(r.DaysOfWeek) == 0 {
		return []int{int(start.Weekday())}
	}
	set := make(map[int]struct{}, len(r.DaysOfWeek))
	days := make([]int, 0, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		if _, ok := set[d]; ok {
			continue
		}
		set[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
