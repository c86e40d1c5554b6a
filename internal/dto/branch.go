package dto

import (
	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/scope"
)

// AddressRequest is a postal address
type AddressRequest struct {
	Street  string `json:"street" binding:"omitempty,max=255"`
	City    string `json:"city" binding:"omitempty,max=120"`
	State   string `json:"state" binding:"omitempty,max=120"`
	ZipCode string `json:"zip_code" binding:"omitempty,max=20"`
	Country string `json:"country" binding:"omitempty,max=120"`
}

// ToDomain converts the request address
func (a AddressRequest) ToDomain() domain.Address {
	return domain.Address{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
}

// ServiceTimeRequest is one weekly service slot
type ServiceTimeRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
	Label     string `json:"label" binding:"omitempty,max=100"`
}

// ToSchedule converts request slots
func ToSchedule(in []ServiceTimeRequest) []domain.ServiceTime {
	if in == nil {
		return nil
	}
	out := make([]domain.ServiceTime, len(in))
	for i, s := range in {
		out[i] = domain.ServiceTime{
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Label:     s.Label,
		}
	}
	return out
}

// CreateBranchRequest represents request to create a branch. TenantID is
// only honored for super administrators.
type CreateBranchRequest struct {
	TenantID string               `json:"tenant_id" binding:"omitempty,max=100"`
	Name     string               `json:"name" binding:"required,min=2,max=255"`
	Address  AddressRequest       `json:"address"`
	Phone    string               `json:"phone" binding:"omitempty,max=30"`
	Email    string               `json:"email" binding:"omitempty,email"`
	Timezone string               `json:"timezone" binding:"omitempty,timezone"`
	Schedule []ServiceTimeRequest `json:"schedule" binding:"omitempty,dive"`
}

// UpdateBranchRequest represents a partial branch update
type UpdateBranchRequest struct {
	Name     *string               `json:"name" binding:"omitempty,min=2,max=255"`
	Address  *AddressRequest       `json:"address"`
	Phone    *string               `json:"phone" binding:"omitempty,max=30"`
	Email    *string               `json:"email" binding:"omitempty,email"`
	Timezone *string               `json:"timezone" binding:"omitempty,timezone"`
	Schedule *[]ServiceTimeRequest `json:"schedule" binding:"omitempty,dive"`
	IsActive *bool                 `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateBranchRequest) IsEmpty() bool {
	return r.Name == nil && r.Address == nil && r.Phone == nil && r.Email == nil &&
		r.Timezone == nil && r.Schedule == nil && r.IsActive == nil
}

// ListQuery is the shared scoped listing query for branches, ministries,
// events and templates
type ListQuery struct {
	Pagination
	TenantID   string `form:"tenantId" binding:"omitempty,max=100"`
	BranchID   string `form:"branchId" binding:"omitempty,max=64"`
	MinistryID string `form:"ministryId" binding:"omitempty,objectid"`
	IsActive   *bool  `form:"isActive"`
	Search     string `form:"search" binding:"omitempty,max=100"`
}

// ScopeQuery returns the parameters the scope builder works on
func (q *ListQuery) ScopeQuery() scope.Query {
	return scope.Query{
		TenantID: q.TenantID,
		BranchID: q.BranchID,
		IsActive: q.IsActive,
		Search:   q.Search,
	}
}
