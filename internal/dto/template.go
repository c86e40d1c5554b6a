package dto

import (
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
)

// ScaleFunctionRequest is one roster function and its headcount
type ScaleFunctionRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=100"`
	RequiredVolunteers int    `json:"required_volunteers" binding:"required,min=1,max=500"`
}

// ToFunctions converts request functions
func ToFunctions(in []ScaleFunctionRequest) []domain.ScaleFunction {
	out := make([]domain.ScaleFunction, len(in))
	for i, f := range in {
		out[i] = domain.ScaleFunction{Name: f.Name, RequiredVolunteers: f.RequiredVolunteers}
	}
	return out
}

// CreateTemplateRequest represents request to create a scale template
type CreateTemplateRequest struct {
	TenantID    string                 `json:"tenant_id" binding:"omitempty,max=100"`
	BranchID    string                 `json:"branch_id" binding:"omitempty,objectid"`
	MinistryID  string                 `json:"ministry_id" binding:"omitempty,objectid"`
	EventID     string                 `json:"event_id" binding:"omitempty,objectid"`
	Name        string                 `json:"name" binding:"required,min=2,max=255"`
	Description string                 `json:"description" binding:"omitempty,max=2000"`
	StartAt     time.Time              `json:"start_at" binding:"required"`
	Recurrence  RecurrenceRequest      `json:"recurrence" binding:"required"`
	Functions   []ScaleFunctionRequest `json:"functions" binding:"required,min=1,dive"`
}

// UpdateTemplateRequest represents a partial template update
type UpdateTemplateRequest struct {
	Name        *string                 `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string                 `json:"description" binding:"omitempty,max=2000"`
	MinistryID  *string                 `json:"ministry_id" binding:"omitempty,objectid"`
	EventID     *string                 `json:"event_id" binding:"omitempty,objectid"`
	StartAt     *time.Time              `json:"start_at"`
	Recurrence  *RecurrenceRequest      `json:"recurrence"`
	Functions   *[]ScaleFunctionRequest `json:"functions" binding:"omitempty,min=1,dive"`
	IsActive    *bool                   `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateTemplateRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.MinistryID == nil && r.EventID == nil &&
		r.StartAt == nil && r.Recurrence == nil && r.Functions == nil && r.IsActive == nil
}

// ScheduleResponse lists a template's staffing slots within a window
type ScheduleResponse struct {
	TemplateID string                `json:"template_id"`
	From       time.Time             `json:"from"`
	To         time.Time             `json:"to"`
	Slots      []domain.ScheduleSlot `json:"slots"`
}
