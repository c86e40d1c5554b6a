// Package repository persists Servus documents in MongoDB. Single-document
// lookups return (nil, nil) when nothing matches.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/scope"
)

// Collection names
const (
	UsersCollection       = "users"
	TenantsCollection     = "tenants"
	BranchesCollection    = "branches"
	MinistriesCollection  = "ministries"
	MembershipsCollection = "memberships"
	EventsCollection      = "events"
	TemplatesCollection   = "scaleTemplates"
	AuditCollection       = "audit_logs"
)

var (
	// ErrDuplicate is returned when a unique index rejects a write
	ErrDuplicate = errors.New("duplicate document")
	// ErrInvalidID is returned for ids that are not ObjectID hex strings
	ErrInvalidID = errors.New("invalid document id")
	// ErrNotFound is returned when a write matches no document
	ErrNotFound = errors.New("document not found")
)

// ListParams is a scoped listing request. Scope comes from the scope
// builder; the remaining fields are resource specific and ignored where a
// collection has no such field.
type ListParams struct {
	Scope      scope.Filter
	UserID     string
	MinistryID string
	From       *time.Time
	To         *time.Time
	Skip       int64
	Limit      int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user; the id is assigned when empty
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by ObjectID hex
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail retrieves a user by lower-cased email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List retrieves users matching the scoped filter
	List(ctx context.Context, params ListParams) ([]*domain.User, int64, error)
	// Update replaces the mutable fields of a user
	Update(ctx context.Context, user *domain.User) error
	// UpdatePassword stores a new password hash
	UpdatePassword(ctx context.Context, id, hash string) error
	// TouchLastLogin records a successful login
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// ExistsByEmail checks whether the email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	// GetByID retrieves a tenant by ObjectID hex
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	// GetByTenantID retrieves a tenant by its external id
	GetByTenantID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context, isActive *bool, search string, skip, limit int64) ([]*domain.Tenant, int64, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	// SoftDelete marks the tenant deleted and inactive
	SoftDelete(ctx context.Context, id string) error
	ExistsByTenantID(ctx context.Context, tenantID string) (bool, error)
}

// BranchRepository defines the interface for branch data access
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	GetByID(ctx context.Context, id string) (*domain.Branch, error)
	List(ctx context.Context, params ListParams) ([]*domain.Branch, int64, error)
	Update(ctx context.Context, branch *domain.Branch) error
	Delete(ctx context.Context, id string) error
}

// MinistryRepository defines the interface for ministry data access
type MinistryRepository interface {
	Create(ctx context.Context, ministry *domain.Ministry) error
	GetByID(ctx context.Context, id string) (*domain.Ministry, error)
	List(ctx context.Context, params ListParams) ([]*domain.Ministry, int64, error)
	Update(ctx context.Context, ministry *domain.Ministry) error
	Delete(ctx context.Context, id string) error
}

// MembershipRepository defines the interface for membership data access
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	// FindActive returns the active membership for the tuple, if any
	FindActive(ctx context.Context, userID, tenantID, branchID, ministryID string) (*domain.Membership, error)
	List(ctx context.Context, params ListParams) ([]*domain.Membership, int64, error)
	Update(ctx context.Context, membership *domain.Membership) error
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, params ListParams) ([]*domain.Event, int64, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
}

// TemplateRepository defines the interface for scale template data access
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.ScaleTemplate) error
	GetByID(ctx context.Context, id string) (*domain.ScaleTemplate, error)
	List(ctx context.Context, params ListParams) ([]*domain.ScaleTemplate, int64, error)
	Update(ctx context.Context, template *domain.ScaleTemplate) error
	Delete(ctx context.Context, id string) error
}
