package dto

import (
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/scope"
)

// ListUsersQuery represents query parameters for listing users
type ListUsersQuery struct {
	Pagination
	Role     string `form:"role" binding:"omitempty,servusrole"`
	TenantID string `form:"tenantId" binding:"omitempty,max=100"`
	BranchID string `form:"branchId" binding:"omitempty,max=64"`
	IsActive *bool  `form:"isActive"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// ScopeQuery returns the parameters the scope builder works on
func (q *ListUsersQuery) ScopeQuery() scope.Query {
	return scope.Query{
		Role:     q.Role,
		TenantID: q.TenantID,
		BranchID: q.BranchID,
		IsActive: q.IsActive,
		Search:   q.Search,
	}
}

// CreateUserRequest represents request to create a user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	Role     string `json:"role" binding:"required,servusrole"`
	TenantID string `json:"tenant_id" binding:"omitempty,max=100"`
	BranchID string `json:"branch_id" binding:"omitempty,objectid"`
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" binding:"omitempty,max=30"`
	Role     *string `json:"role" binding:"omitempty,servusrole"`
	BranchID *string `json:"branch_id" binding:"omitempty,objectid"`
	IsActive *bool   `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Phone == nil && r.Role == nil && r.BranchID == nil && r.IsActive == nil
}

// ChangePasswordRequest changes the caller's own password (current password
// required) or lets an administrator set a new one
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"omitempty,max=72"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	TenantID    string     `json:"tenant_id,omitempty"`
	BranchID    string     `json:"branch_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewUserResponse converts a domain user, dropping credentials
func NewUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Role:        string(u.Role),
		TenantID:    u.TenantID,
		BranchID:    u.BranchID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
