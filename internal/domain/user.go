package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that signs in to Servus. TenantID holds the tenant's
// external id, never the tenant document's ObjectID.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	NameFolded   string             `bson:"nameFolded" json:"-"` // lowercase, diacritics stripped
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	TenantID     string             `bson:"tenantId,omitempty" json:"tenant_id,omitempty"`
	BranchID     string             `bson:"branchId,omitempty" json:"branch_id,omitempty"`
	IsActive     bool               `bson:"isActive" json:"is_active"`
	LastLoginAt  *time.Time         `bson:"lastLoginAt,omitempty" json:"last_login_at,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}
