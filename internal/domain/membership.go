package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership grants a user a role within a tenant, optionally narrowed to a
// branch and ministry. At most one active membership exists per
// (user, tenant, branch, ministry).
type Membership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"user_id"`
	TenantID   string             `bson:"tenantId" json:"tenant_id"`
	BranchID   string             `bson:"branchId,omitempty" json:"branch_id,omitempty"`
	MinistryID string             `bson:"ministryId,omitempty" json:"ministry_id,omitempty"`
	Role       Role               `bson:"role" json:"role"`
	IsActive   bool               `bson:"isActive" json:"is_active"`
	CreatedAt  time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updated_at"`
}
