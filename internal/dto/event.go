package dto

import (
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
)

// RecurrenceRequest describes how an event or template repeats
type RecurrenceRequest struct {
	Frequency  string     `json:"frequency" binding:"required,oneof=daily weekly monthly"`
	Interval   int        `json:"interval" binding:"omitempty,min=1,max=365"`
	DaysOfWeek []int      `json:"days_of_week" binding:"omitempty,max=7,dive,min=0,max=6"`
	DayOfMonth int        `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	Until      *time.Time `json:"until"`
	Count      int        `json:"count" binding:"omitempty,min=1,max=1000"`
}

// ToDomain converts the request rule, defaulting the interval to 1
func (r *RecurrenceRequest) ToDomain() *domain.RecurrenceRule {
	if r == nil {
		return nil
	}
	interval := r.Interval
	if interval == 0 {
		interval = 1
	}
	return &domain.RecurrenceRule{
		Frequency:  r.Frequency,
		Interval:   interval,
		DaysOfWeek: append([]int(nil), r.DaysOfWeek...),
		DayOfMonth: r.DayOfMonth,
		Until:      r.Until,
		Count:      r.Count,
	}
}

// CreateEventRequest represents request to create an event
type CreateEventRequest struct {
	TenantID    string             `json:"tenant_id" binding:"omitempty,max=100"`
	BranchID    string             `json:"branch_id" binding:"omitempty,objectid"`
	MinistryID  string             `json:"ministry_id" binding:"omitempty,objectid"`
	Title       string             `json:"title" binding:"required,min=2,max=255"`
	Description string             `json:"description" binding:"omitempty,max=2000"`
	StartAt     time.Time          `json:"start_at" binding:"required"`
	EndAt       time.Time          `json:"end_at" binding:"required,gtfield=StartAt"`
	Recurrence  *RecurrenceRequest `json:"recurrence"`
}

// UpdateEventRequest represents a partial event update
type UpdateEventRequest struct {
	Title       *string            `json:"title" binding:"omitempty,min=2,max=255"`
	Description *string            `json:"description" binding:"omitempty,max=2000"`
	MinistryID  *string            `json:"ministry_id" binding:"omitempty,objectid"`
	StartAt     *time.Time         `json:"start_at"`
	EndAt       *time.Time         `json:"end_at"`
	Recurrence  *RecurrenceRequest `json:"recurrence"`
	// ClearRecurrence turns a recurring event into a single one
	ClearRecurrence bool    `json:"clear_recurrence"`
	Status          *string `json:"status" binding:"omitempty,oneof=scheduled cancelled"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateEventRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.MinistryID == nil && r.StartAt == nil &&
		r.EndAt == nil && r.Recurrence == nil && !r.ClearRecurrence && r.Status == nil
}

// ListEventsQuery represents query parameters for listing events
type ListEventsQuery struct {
	ListQuery
	From string `form:"from"`
	To   string `form:"to"`
}

// OccurrencesResponse lists the expanded start times of an event
type OccurrencesResponse struct {
	EventID     string      `json:"event_id"`
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Duration    string      `json:"duration"`
	Occurrences []time.Time `json:"occurrences"`
}
