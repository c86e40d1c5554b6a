package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event status constants
const (
	EventStatusScheduled = "scheduled"
	EventStatusCancelled = "cancelled"
)

// Event is a scheduled gathering (service, rehearsal, meeting)
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    string             `bson:"tenantId" json:"tenant_id"`
	BranchID    string             `bson:"branchId,omitempty" json:"branch_id,omitempty"`
	MinistryID  string             `bson:"ministryId,omitempty" json:"ministry_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	StartAt     time.Time          `bson:"startAt" json:"start_at"`
	EndAt       time.Time          `bson:"endAt" json:"end_at"`
	Recurrence  *RecurrenceRule    `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedBy   string             `bson:"createdBy,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Duration returns the length of one occurrence
func (e *Event) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

// Occurrences expands the event into concrete start times within [from, to).
// A non-recurring event yields its single start when it falls in the window.
func (e *Event) Occurrences(from, to time.Time, limit int) []time.Time {
	if e.Recurrence == nil {
		if !e.StartAt.Before(from) && e.StartAt.Before(to) {
			return []time.Time{e.StartAt}
		}
		return []time.Time{}
	}
	return e.Recurrence.Occurrences(e.StartAt, from, to, limit)
}
