package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScaleTemplate describes a recurring volunteer roster: when it repeats and
// which functions need how many volunteers each time.
type ScaleTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    string             `bson:"tenantId" json:"tenant_id"`
	BranchID    string             `bson:"branchId,omitempty" json:"branch_id,omitempty"`
	MinistryID  string             `bson:"ministryId,omitempty" json:"ministry_id,omitempty"`
	EventID     string             `bson:"eventId,omitempty" json:"event_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	StartAt     time.Time          `bson:"startAt" json:"start_at"`
	Recurrence  RecurrenceRule     `bson:"recurrence" json:"recurrence"`
	Functions   []ScaleFunction    `bson:"functions" json:"functions"`
	IsActive    bool               `bson:"isActive" json:"is_active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// ScaleFunction is a role on the roster (e.g. "usher", "sound")
type ScaleFunction struct {
	Name               string `bson:"name" json:"name"`
	RequiredVolunteers int    `bson:"requiredVolunteers" json:"required_volunteers"`
}

// ScheduleSlot is one occurrence of a template with its staffing needs
type ScheduleSlot struct {
	StartAt   time.Time       `json:"start_at"`
	Functions []ScaleFunction `json:"functions"`
	Total     int             `json:"total_volunteers"`
}

// Schedule expands the template into slots within [from, to)
func (t *ScaleTemplate) Schedule(from, to time.Time, limit int) []ScheduleSlot {
	total := 0
	for _, fn := range t.Functions {
		total += fn.RequiredVolunteers
	}

	starts := t.Recurrence.Occurrences(t.StartAt, from, to, limit)
	slots := make([]ScheduleSlot, 0, len(starts))
	for _, s := range starts {
		fns := make([]ScaleFunction, len(t.Functions))
		copy(fns, t.Functions)
		slots = append(slots, ScheduleSlot{StartAt: s, Functions: fns, Total: total})
	}
	return slots
}
