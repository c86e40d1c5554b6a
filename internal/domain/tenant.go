package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tenant is the top-level organization (a church or organization).
// It is addressable both by its document ID and by the external TenantID
// slug; every other document references it through TenantID.
type Tenant struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  string             `bson:"tenantId" json:"tenant_id"`
	Name      string             `bson:"name" json:"name"`
	Domain    string             `bson:"domain,omitempty" json:"domain,omitempty"`
	LogoURL   string             `bson:"logoUrl,omitempty" json:"logo_url,omitempty"`
	Features  map[string]bool    `bson:"features" json:"features"`
	IsActive  bool               `bson:"isActive" json:"is_active"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
	DeletedAt *time.Time         `bson:"deletedAt,omitempty" json:"deleted_at,omitempty"`
}

// FeatureEnabled reports whether the named feature flag is on
func (t *Tenant) FeatureEnabled(name string) bool {
	if t.Features == nil {
		return false
	}
	return t.Features[name]
}
