package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ministry is a volunteer team inside a tenant, optionally bound to a branch
type Ministry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    string             `bson:"tenantId" json:"tenant_id"`
	BranchID    string             `bson:"branchId,omitempty" json:"branch_id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"isActive" json:"is_active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}
