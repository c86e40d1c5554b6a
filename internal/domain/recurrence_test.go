package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, time.January, d, hour, 0, 0, 0, time.UTC)
}

func TestRecurrence_Daily(t *testing.T) {
	start := day(5, 9)
	r := RecurrenceRule{Frequency: FrequencyDaily, Interval: 2}

	got := r.Occurrences(start, start, day(12, 0), 0)
	assert.Equal(t, []time.Time{day(5, 9), day(7, 9), day(9, 9), day(11, 9)}, got)
}

func TestRecurrence_CountIncludesOccurrencesBeforeWindow(t *testing.T) {
	start := day(5, 9)
	r := RecurrenceRule{Frequency: FrequencyDaily, Count: 5}

	got := r.Occurrences(start, day(8, 0), day(30, 0), 0)
	assert.Equal(t, []time.Time{day(8, 9), day(9, 9)}, got)
}

func TestRecurrence_UntilIsInclusive(t *testing.T) {
	start := day(5, 9)
	until := day(7, 9)
	r := RecurrenceRule{Frequency: FrequencyDaily, Until: &until}

	got := r.Occurrences(start, start, day(30, 0), 0)
	assert.Equal(t, []time.Time{day(5, 9), day(6, 9), day(7, 9)}, got)
}

func TestRecurrence_WeeklyDays(t *testing.T) {
	// 2026-01-04 is a Sunday
	start := day(4, 10)
	r := RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []int{3, 0, 3}}

	got := r.Occurrences(start, start, day(18, 0), 0)
	assert.Equal(t, []time.Time{day(4, 10), day(7, 10), day(11, 10), day(14, 10)}, got)
}

func TestRecurrence_WeeklySkipsDaysBeforeStart(t *testing.T) {
	start := day(7, 10) // Wednesday
	r := RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []int{0, 3}}

	got := r.Occurrences(start, day(1, 0), day(12, 0), 0)
	assert.Equal(t, []time.Time{day(7, 10), day(11, 10)}, got)
}

func TestRecurrence_WeeklyDefaultsToStartWeekday(t *testing.T) {
	start := day(7, 19)
	r := RecurrenceRule{Frequency: FrequencyWeekly, Interval: 2}

	got := r.Occurrences(start, start, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), 0)
	assert.Equal(t, []time.Time{day(7, 19), day(21, 19)}, got)
}

func TestRecurrence_MonthlySkipsShortMonths(t *testing.T) {
	start := time.Date(2026, time.January, 31, 8, 0, 0, 0, time.UTC)
	r := RecurrenceRule{Frequency: FrequencyMonthly}

	got := r.Occurrences(start, start, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), 0)
	assert.Equal(t, []time.Time{
		time.Date(2026, time.January, 31, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, 31, 8, 0, 0, 0, time.UTC),
	}, got)
}

func TestRecurrence_Limit(t *testing.T) {
	start := day(1, 9)
	r := RecurrenceRule{Frequency: FrequencyDaily}

	got := r.Occurrences(start, start, start.AddDate(1, 0, 0), 10)
	assert.Len(t, got, 10)
}

func TestRecurrence_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rule  RecurrenceRule
		valid bool
	}{
		{"daily", RecurrenceRule{Frequency: FrequencyDaily}, true},
		{"weekly days", RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []int{0, 6}}, true},
		{"unknown frequency", RecurrenceRule{Frequency: "yearly"}, false},
		{"bad weekday", RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []int{7}}, false},
		{"bad day of month", RecurrenceRule{Frequency: FrequencyMonthly, DayOfMonth: 32}, false},
		{"negative interval", RecurrenceRule{Frequency: FrequencyDaily, Interval: -1}, false},
		{"negative count", RecurrenceRule{Frequency: FrequencyDaily, Count: -2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecurrence))
		})
	}
}

func TestEvent_OccurrencesWithoutRecurrence(t *testing.T) {
	e := &Event{StartAt: day(10, 9), EndAt: day(10, 11)}

	assert.Equal(t, []time.Time{day(10, 9)}, e.Occurrences(day(1, 0), day(20, 0), 0))
	assert.Empty(t, e.Occurrences(day(11, 0), day(20, 0), 0))
	assert.Equal(t, 2*time.Hour, e.Duration())
}

func TestScaleTemplate_Schedule(t *testing.T) {
	tpl := &ScaleTemplate{
		StartAt:    day(4, 9),
		Recurrence: RecurrenceRule{Frequency: FrequencyWeekly},
		Functions: []ScaleFunction{
			{Name: "usher", RequiredVolunteers: 2},
			{Name: "sound", RequiredVolunteers: 1},
		},
	}

	slots := tpl.Schedule(day(1, 0), day(15, 0), 0)
	require.Len(t, slots, 2)
	assert.Equal(t, day(4, 9), slots[0].StartAt)
	assert.Equal(t, day(11, 9), slots[1].StartAt)
	assert.Equal(t, 3, slots[0].Total)
	assert.Len(t, slots[1].Functions, 2)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleServusAdmin.IsSuperAdmin())
	assert.False(t, RoleTenantAdmin.IsSuperAdmin())
	assert.True(t, RoleBranchLeader.IsLeader())
	assert.True(t, RoleLeader.IsLeader())
	assert.False(t, RoleVolunteer.IsLeader())
	assert.True(t, RoleTenantAdmin.Outranks(RoleBranchAdmin))
	assert.False(t, RoleLeader.Outranks(RoleBranchAdmin))
	assert.False(t, Role("Pastor").IsValid())
	assert.Len(t, AllRoles(), 6)
}
