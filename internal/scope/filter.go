// Package scope derives tenant/branch isolated query filters from a caller's
// token claims and the client-supplied listing parameters.
package scope

import "github.com/prohmpiriya/servus/internal/domain"

// Filter keys as persisted on Servus documents
const (
	KeyTenantID = "tenantId"
	KeyBranchID = "branchId"
	KeyRole     = "role"
	KeyIsActive = "isActive"
	KeySearch   = "search"
)

// Identity is the authenticated caller as carried by the access token
type Identity struct {
	UserID   string
	Role     domain.Role
	TenantID string
	BranchID string // empty for tenant-wide callers
}

// Query holds client-supplied listing parameters. Empty strings and a nil
// IsActive mean the parameter was not supplied.
type Query struct {
	Role     string
	TenantID string
	BranchID string
	IsActive *bool
	Search   string
}

// Options tune how a listing endpoint applies the caller's scope
type Options struct {
	// IsLeader forces the role filter to volunteer
	IsLeader bool
	// AllowRoleFilter re-enables client role filtering for scoped callers
	AllowRoleFilter bool
}

// Filter is the scoped result. A nil field is an absent key; it is never
// the same thing as a zero value.
type Filter struct {
	TenantID *string
	BranchID *string
	Role     *string
	IsActive *bool
	Search   *string
}

// BuildUserFilter maps the caller identity and query onto a filter that
// keeps non-super-admin callers inside their own tenant and, when the token
// carries one, their own branch.
func BuildUserFilter(id Identity, q Query, opts Options) Filter {
	var f Filter

	if id.Role.IsSuperAdmin() {
		f.TenantID = optional(q.TenantID)
		f.BranchID = optional(q.BranchID)
		f.Role = optional(q.Role)
		f.IsActive = copyBool(q.IsActive)
		f.Search = optional(q.Search)
		return f
	}

	// Always set, even when the claim is empty: an empty tenant matches no
	// document rather than every document.
	tenantID := id.TenantID
	f.TenantID = &tenantID

	if id.BranchID != "" {
		branchID := id.BranchID
		f.BranchID = &branchID
	} else {
		f.BranchID = optional(q.BranchID)
	}

	switch {
	case opts.IsLeader:
		volunteer := string(domain.RoleVolunteer)
		f.Role = &volunteer
	case opts.AllowRoleFilter:
		f.Role = optional(q.Role)
	}

	f.IsActive = copyBool(q.IsActive)
	f.Search = optional(q.Search)
	return f
}

// BuildFilter scopes listings of resources that carry no role
// (branches, ministries, events, templates).
func BuildFilter(id Identity, q Query) Filter {
	q.Role = ""
	f := BuildUserFilter(id, q, Options{})
	f.Role = nil
	return f
}

// CanAccess reports whether the caller may see a single resource owned by
// tenantID/branchID. Resources without a branch are visible to every caller
// of the tenant; branch-scoped listings include them too.
func CanAccess(id Identity, tenantID, branchID string) bool {
	if id.Role.IsSuperAdmin() {
		return true
	}
	if id.TenantID == "" || id.TenantID != tenantID {
		return false
	}
	if id.BranchID != "" && branchID != "" && id.BranchID != branchID {
		return false
	}
	return true
}

// CanAccessUser is CanAccess for user documents. Users without a branch
// are tenant-wide staff and, as in BuildUserFilter, stay hidden from
// branch-scoped callers.
func CanAccessUser(id Identity, tenantID, branchID string) bool {
	if !id.Role.IsSuperAdmin() && id.BranchID != "" && id.BranchID != branchID {
		return false
	}
	return CanAccess(id, tenantID, branchID)
}

// Keys returns the present keys in a stable order
func (f Filter) Keys() []string {
	keys := make([]string, 0, 5)
	if f.TenantID != nil {
		keys = append(keys, KeyTenantID)
	}
	if f.BranchID != nil {
		keys = append(keys, KeyBranchID)
	}
	if f.Role != nil {
		keys = append(keys, KeyRole)
	}
	if f.IsActive != nil {
		keys = append(keys, KeyIsActive)
	}
	if f.Search != nil {
		keys = append(keys, KeySearch)
	}
	return keys
}

// Map renders the filter as a plain key/value map with absent keys omitted
func (f Filter) Map() map[string]interface{} {
	m := make(map[string]interface{}, 5)
	if f.TenantID != nil {
		m[KeyTenantID] = *f.TenantID
	}
	if f.BranchID != nil {
		m[KeyBranchID] = *f.BranchID
	}
	if f.Role != nil {
		m[KeyRole] = *f.Role
	}
	if f.IsActive != nil {
		m[KeyIsActive] = *f.IsActive
	}
	if f.Search != nil {
		m[KeySearch] = *f.Search
	}
	return m
}

// IsEmpty reports whether no key is set
func (f Filter) IsEmpty() bool {
	return len(f.Keys()) == 0
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
