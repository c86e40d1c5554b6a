package service

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
)

// ownership is where a new document is placed
type ownership struct {
	TenantID string
	BranchID string
}

// placement decides the tenant and branch of a new document. Super admins
// choose freely (the tenant may be given by ObjectID hex or external id);
// everyone else is pinned to their own tenant and, when they carry one,
// their own branch.
func placement(ctx context.Context, resolver *repository.TenantResolver, branches repository.BranchRepository,
	caller scope.Identity, tenantRef, branchID string) (ownership, error) {

	var own ownership
	if caller.Role.IsSuperAdmin() {
		if tenantRef == "" {
			return own, fmt.Errorf("%w: tenant_id is required", ErrInvalidInput)
		}
		tenant, err := resolver.Resolve(ctx, tenantRef)
		if err != nil {
			return own, err
		}
		if tenant == nil {
			return own, ErrTenantNotFound
		}
		own.TenantID = tenant.TenantID
		own.BranchID = branchID
	} else {
		if caller.TenantID == "" {
			return own, ErrForbidden
		}
		own.TenantID = caller.TenantID
		own.BranchID = branchID
		if caller.BranchID != "" {
			if branchID != "" && branchID != caller.BranchID {
				return own, ErrForbidden
			}
			own.BranchID = caller.BranchID
		}
	}

	if own.BranchID != "" && branches != nil {
		branch, err := branches.GetByID(ctx, own.BranchID)
		if err != nil {
			return own, err
		}
		if branch == nil || branch.TenantID != own.TenantID {
			return own, ErrBranchNotFound
		}
	}
	return own, nil
}

// canWrite reports whether the caller may modify structure (ministries,
// memberships) owned by tenantID/branchID
func canWrite(caller scope.Identity, tenantID, branchID string) bool {
	return caller.Role.IsAdmin() && scope.CanAccess(caller, tenantID, branchID)
}

// canSchedule reports whether the caller may modify events and templates
func canSchedule(caller scope.Identity, tenantID, branchID string) bool {
	return (caller.Role.IsAdmin() || caller.Role.IsLeader()) && scope.CanAccess(caller, tenantID, branchID)
}

// assignable reports whether caller may grant role to someone
func assignable(caller scope.Identity, role domain.Role) bool {
	if !role.IsValid() {
		return false
	}
	if role.IsSuperAdmin() && !caller.Role.IsSuperAdmin() {
		return false
	}
	return caller.Role.Outranks(role)
}

// tenantWideAdmin reports whether the caller administers a whole tenant
func tenantWideAdmin(caller scope.Identity) bool {
	switch caller.Role {
	case domain.RoleServusAdmin:
		return true
	case domain.RoleTenantAdmin:
		return caller.BranchID == ""
	}
	return false
}
