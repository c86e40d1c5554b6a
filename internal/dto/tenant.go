package dto

import (
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
)

// CreateTenantRequest represents request to create a tenant
type CreateTenantRequest struct {
	TenantID string          `json:"tenant_id" binding:"required,min=2,max=100,slug"`
	Name     string          `json:"name" binding:"required,min=2,max=255"`
	Domain   string          `json:"domain" binding:"omitempty,max=255"`
	LogoURL  string          `json:"logo_url" binding:"omitempty,url"`
	Features map[string]bool `json:"features"`
}

// UpdateTenantRequest represents a partial tenant update
type UpdateTenantRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=255"`
	Domain   *string `json:"domain" binding:"omitempty,max=255"`
	LogoURL  *string `json:"logo_url" binding:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateTenantRequest) IsEmpty() bool {
	return r.Name == nil && r.Domain == nil && r.LogoURL == nil && r.IsActive == nil
}

// UpdateFeaturesRequest replaces a tenant's feature flags
type UpdateFeaturesRequest struct {
	Features map[string]bool `json:"features" binding:"required"`
}

// ListTenantsQuery represents query parameters for listing tenants
type ListTenantsQuery struct {
	Pagination
	IsActive *bool  `form:"isActive"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// TenantResponse represents tenant data in responses
type TenantResponse struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain,omitempty"`
	LogoURL   string          `json:"logo_url,omitempty"`
	Features  map[string]bool `json:"features"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewTenantResponse converts a domain tenant
func NewTenantResponse(t *domain.Tenant) *TenantResponse {
	features := t.Features
	if features == nil {
		features = map[string]bool{}
	}
	return &TenantResponse{
		ID:        t.ID.Hex(),
		TenantID:  t.TenantID,
		Name:      t.Name,
		Domain:    t.Domain,
		LogoURL:   t.LogoURL,
		Features:  features,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
