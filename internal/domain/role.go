package domain

// Role is a caller's authorization level within the tenant hierarchy
type Role string

// Role constants, ordered from most to least privileged
const (
	RoleServusAdmin  Role = "ServusAdmin"
	RoleTenantAdmin  Role = "TenantAdmin"
	RoleBranchAdmin  Role = "BranchAdmin"
	RoleBranchLeader Role = "BranchLeader"
	RoleLeader       Role = "Leader"
	RoleVolunteer    Role = "volunteer"
)

var roleRank = map[Role]int{
	RoleServusAdmin:  100,
	RoleTenantAdmin:  80,
	RoleBranchAdmin:  60,
	RoleBranchLeader: 40,
	RoleLeader:       30,
	RoleVolunteer:    10,
}

// AllRoles returns every valid role
func AllRoles() []Role {
	return []Role{
		RoleServusAdmin,
		RoleTenantAdmin,
		RoleBranchAdmin,
		RoleBranchLeader,
		RoleLeader,
		RoleVolunteer,
	}
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsSuperAdmin reports whether r has cross-tenant visibility
func (r Role) IsSuperAdmin() bool {
	return r == RoleServusAdmin
}

// IsLeader reports whether r is a leader role that may only list volunteers
func (r Role) IsLeader() bool {
	return r == RoleBranchLeader || r == RoleLeader
}

// IsAdmin reports whether r may manage users and structure in its scope
func (r Role) IsAdmin() bool {
	return r == RoleServusAdmin || r == RoleTenantAdmin || r == RoleBranchAdmin
}

// Outranks reports whether r is at least as privileged as other
func (r Role) Outranks(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

func (r Role) String() string {
	return string(r)
}
