package dto

// CreateMinistryRequest represents request to create a ministry
type CreateMinistryRequest struct {
	TenantID    string `json:"tenant_id" binding:"omitempty,max=100"`
	BranchID    string `json:"branch_id" binding:"omitempty,objectid"`
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateMinistryRequest represents a partial ministry update
type UpdateMinistryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateMinistryRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.IsActive == nil
}
