package dto

import "github.com/prohmpiriya/servus/internal/scope"

// CreateMembershipRequest grants a user a role in a branch and ministry
type CreateMembershipRequest struct {
	UserID     string `json:"user_id" binding:"required,objectid"`
	BranchID   string `json:"branch_id" binding:"omitempty,objectid"`
	MinistryID string `json:"ministry_id" binding:"omitempty,objectid"`
	Role       string `json:"role" binding:"required,servusrole"`
}

// UpdateMembershipRequest represents a partial membership update
type UpdateMembershipRequest struct {
	Role     *string `json:"role" binding:"omitempty,servusrole"`
	IsActive *bool   `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateMembershipRequest) IsEmpty() bool {
	return r.Role == nil && r.IsActive == nil
}

// ListMembershipsQuery represents query parameters for listing memberships
type ListMembershipsQuery struct {
	Pagination
	TenantID   string `form:"tenantId" binding:"omitempty,max=100"`
	BranchID   string `form:"branchId" binding:"omitempty,max=64"`
	UserID     string `form:"userId" binding:"omitempty,objectid"`
	MinistryID string `form:"ministryId" binding:"omitempty,objectid"`
	Role       string `form:"role" binding:"omitempty,servusrole"`
	IsActive   *bool  `form:"isActive"`
}

// ScopeQuery returns the parameters the scope builder works on
func (q *ListMembershipsQuery) ScopeQuery() scope.Query {
	return scope.Query{
		Role:     q.Role,
		TenantID: q.TenantID,
		BranchID: q.BranchID,
		IsActive: q.IsActive,
	}
}
