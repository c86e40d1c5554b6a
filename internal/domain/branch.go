package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch is a physical or organizational sub-unit of a tenant
type Branch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  string             `bson:"tenantId" json:"tenant_id"`
	Name      string             `bson:"name" json:"name"`
	Address   Address            `bson:"address" json:"address"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Timezone  string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Schedule  []ServiceTime      `bson:"schedule,omitempty" json:"schedule,omitempty"`
	IsActive  bool               `bson:"isActive" json:"is_active"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Address is a postal address
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zip_code,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// ServiceTime is a recurring weekly slot (e.g. Sunday service 09:00-11:00)
type ServiceTime struct {
	DayOfWeek int    `bson:"dayOfWeek" json:"day_of_week"` // 0 = Sunday
	StartTime string `bson:"startTime" json:"start_time"`  // HH:MM
	EndTime   string `bson:"endTime" json:"end_time"`      // HH:MM
	Label     string `bson:"label,omitempty" json:"label,omitempty"`
}
