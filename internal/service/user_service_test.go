package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserService_ListLeaderSeesOnlyVolunteersOfOwnBranch(t *testing.T) {
	f := newFixture()
	leader := f.addUser("leader@x.com", domain.RoleLeader, "igreja-central", f.branchA.ID.Hex())
	f.addUser("vol-a@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
	f.addUser("vol-b@x.com", domain.RoleVolunteer, "igreja-central", f.branchB.ID.Hex())
	f.addUser("admin-a@x.com", domain.RoleBranchAdmin, "igreja-central", f.branchA.ID.Hex())
	f.addUser("other@x.com", domain.RoleVolunteer, "outra", "")

	svc := f.userService()
	res, err := svc.List(context.Background(), identity(leader), &dto.ListUsersQuery{
		Role:     "TenantAdmin",
		TenantID: "outra",
		BranchID: f.branchB.ID.Hex(),
	})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "vol-a@x.com", res.Items[0].Email)
	assert.Equal(t, dto.DefaultPage, res.Page)
	assert.Equal(t, dto.DefaultLimit, res.Limit)

	params := f.users.lastParams
	require.NotNil(t, params.Scope.Role)
	assert.Equal(t, "volunteer", *params.Scope.Role)
	assert.Equal(t, "igreja-central", *params.Scope.TenantID)
	assert.Equal(t, f.branchA.ID.Hex(), *params.Scope.BranchID)
}

func TestUserService_ListAdminRoleFilterAndInactive(t *testing.T) {
	f := newFixture()
	admin := f.addUser("admin@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	inactive := f.addUser("gone@x.com", domain.RoleVolunteer, "igreja-central", f.branchB.ID.Hex())
	inactive.IsActive = false
	require.NoError(t, f.users.Update(context.Background(), inactive))
	f.addUser("active@x.com", domain.RoleVolunteer, "igreja-central", f.branchB.ID.Hex())

	res, err := f.userService().List(context.Background(), identity(admin), &dto.ListUsersQuery{
		Role:     "volunteer",
		BranchID: f.branchB.ID.Hex(),
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "gone@x.com", res.Items[0].Email)
	assert.Equal(t, int64(1), res.TotalCount)
}

func TestUserService_ListVolunteerForbidden(t *testing.T) {
	f := newFixture()
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", "")

	_, err := f.userService().List(context.Background(), identity(vol), &dto.ListUsersQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_GetByID_Isolation(t *testing.T) {
	f := newFixture()
	admin := f.addUser("admin@x.com", domain.RoleBranchAdmin, "igreja-central", f.branchA.ID.Hex())
	otherBranch := f.addUser("b@x.com", domain.RoleVolunteer, "igreja-central", f.branchB.ID.Hex())
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
	svc := f.userService()
	ctx := context.Background()

	_, err := svc.GetByID(ctx, identity(admin), otherBranch.ID.Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	// tenant-wide staff stay out of branch listings and lookups alike
	tenantAdmin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	_, err = svc.GetByID(ctx, identity(admin), tenantAdmin.ID.Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := svc.GetByID(ctx, identity(admin), vol.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "v@x.com", got.Email)

	// volunteers may read themselves only
	self, err := svc.GetByID(ctx, identity(vol), vol.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, vol.ID.Hex(), self.ID)
	_, err = svc.GetByID(ctx, identity(vol), admin.ID.Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tenantAdmin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	branchAdmin := f.addUser("ba@x.com", domain.RoleBranchAdmin, "igreja-central", f.branchA.ID.Hex())
	super := f.addUser("root@x.com", domain.RoleServusAdmin, "", "")
	svc := f.userService()

	t.Run("tenant is forced for scoped creators", func(t *testing.T) {
		res, err := svc.Create(ctx, identity(tenantAdmin), &dto.CreateUserRequest{
			Email: "New@X.com", Password: "password1", Name: " Nova ", Role: "volunteer",
			TenantID: "outra", BranchID: f.branchB.ID.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", res.Email)
		assert.Equal(t, "Nova", res.Name)
		assert.Equal(t, "igreja-central", res.TenantID)
		assert.Equal(t, f.branchB.ID.Hex(), res.BranchID)
		assert.True(t, res.IsActive)

		stored, _ := f.users.GetByEmail(ctx, "new@x.com")
		require.NotNil(t, stored)
		assert.NoError(t, f.hasher.Compare(stored.PasswordHash, "password1"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, identity(tenantAdmin), &dto.CreateUserRequest{
			Email: "NEW@x.com", Password: "password1", Name: "Dup", Role: "volunteer",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("branch admin cannot leave own branch", func(t *testing.T) {
		_, err := svc.Create(ctx, identity(branchAdmin), &dto.CreateUserRequest{
			Email: "b2@x.com", Password: "password1", Name: "Bee", Role: "volunteer", BranchID: f.branchB.ID.Hex(),
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("branch admin defaults to own branch", func(t *testing.T) {
		res, err := svc.Create(ctx, identity(branchAdmin), &dto.CreateUserRequest{
			Email: "b3@x.com", Password: "password1", Name: "Bee", Role: "Leader",
		})
		require.NoError(t, err)
		assert.Equal(t, f.branchA.ID.Hex(), res.BranchID)
	})

	t.Run("cannot create a higher role", func(t *testing.T) {
		_, err := svc.Create(ctx, identity(branchAdmin), &dto.CreateUserRequest{
			Email: "up@x.com", Password: "password1", Name: "Up", Role: "TenantAdmin",
		})
		assert.ErrorIs(t, err, ErrRoleNotAssignable)

		_, err = svc.Create(ctx, identity(tenantAdmin), &dto.CreateUserRequest{
			Email: "root2@x.com", Password: "password1", Name: "Root", Role: "ServusAdmin",
		})
		assert.ErrorIs(t, err, ErrRoleNotAssignable)
	})

	t.Run("super admin tenant reference is normalized", func(t *testing.T) {
		res, err := svc.Create(ctx, identity(super), &dto.CreateUserRequest{
			Email: "ta2@x.com", Password: "password1", Name: "Ta", Role: "TenantAdmin", TenantID: f.tenant.ID.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, "igreja-central", res.TenantID)
	})

	t.Run("super admin unknown tenant", func(t *testing.T) {
		_, err := svc.Create(ctx, identity(super), &dto.CreateUserRequest{
			Email: "x@x.com", Password: "password1", Name: "X", Role: "volunteer", TenantID: "nope",
		})
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})

	t.Run("unknown branch", func(t *testing.T) {
		_, err := svc.Create(ctx, identity(tenantAdmin), &dto.CreateUserRequest{
			Email: "y@x.com", Password: "password1", Name: "Y", Role: "volunteer", BranchID: "65f000000000000000000009",
		})
		assert.ErrorIs(t, err, ErrBranchNotFound)
	})

	t.Run("leaders cannot create users", func(t *testing.T) {
		leader := f.addUser("l@x.com", domain.RoleLeader, "igreja-central", "")
		_, err := svc.Create(ctx, identity(leader), &dto.CreateUserRequest{
			Email: "z@x.com", Password: "password1", Name: "Z", Role: "volunteer",
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	assert.Contains(t, f.publisher.types(), EventUserCreated)
}

func TestUserService_Update(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
	svc := f.userService()

	_, err := svc.Update(ctx, identity(vol), vol.ID.Hex(), &dto.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	res, err := svc.Update(ctx, identity(vol), vol.ID.Hex(), &dto.UpdateUserRequest{Name: strPtr("Vera")})
	require.NoError(t, err)
	assert.Equal(t, "Vera", res.Name)

	_, err = svc.Update(ctx, identity(vol), vol.ID.Hex(), &dto.UpdateUserRequest{Role: strPtr("TenantAdmin")})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err = svc.Update(ctx, identity(admin), vol.ID.Hex(), &dto.UpdateUserRequest{
		Role:     strPtr("Leader"),
		BranchID: strPtr(f.branchB.ID.Hex()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Leader", res.Role)
	assert.Equal(t, f.branchB.ID.Hex(), res.BranchID)

	_, err = svc.Update(ctx, identity(admin), vol.ID.Hex(), &dto.UpdateUserRequest{Role: strPtr("ServusAdmin")})
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	_, err = svc.Update(ctx, identity(admin), admin.ID.Hex(), &dto.UpdateUserRequest{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Contains(t, f.publisher.types(), EventUserUpdated)
}

func TestUserService_Deactivate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addUser("ba@x.com", domain.RoleBranchAdmin, "igreja-central", f.branchA.ID.Hex())
	tenantAdmin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", f.branchA.ID.Hex())
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
	svc := f.userService()

	require.NoError(t, svc.Deactivate(ctx, identity(admin), vol.ID.Hex()))
	stored, _ := f.users.GetByID(ctx, vol.ID.Hex())
	assert.False(t, stored.IsActive)
	assert.Equal(t, []string{EventUserDeactivated}, f.publisher.types())

	assert.ErrorIs(t, svc.Deactivate(ctx, identity(admin), tenantAdmin.ID.Hex()), ErrForbidden)
	assert.ErrorIs(t, svc.Deactivate(ctx, identity(admin), admin.ID.Hex()), ErrForbidden)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", "")
	svc := f.userService()

	err := svc.ChangePassword(ctx, identity(vol), vol.ID.Hex(), &dto.ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "brand-new-pass",
	})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	require.NoError(t, svc.ChangePassword(ctx, identity(vol), vol.ID.Hex(), &dto.ChangePasswordRequest{
		CurrentPassword: "secret-pass", NewPassword: "brand-new-pass",
	}))

	require.NoError(t, svc.ChangePassword(ctx, identity(admin), vol.ID.Hex(), &dto.ChangePasswordRequest{
		NewPassword: "admin-reset-1",
	}))
	stored, _ := f.users.GetByID(ctx, vol.ID.Hex())
	assert.NoError(t, f.hasher.Compare(stored.PasswordHash, "admin-reset-1"))

	err = svc.ChangePassword(ctx, identity(vol), admin.ID.Hex(), &dto.ChangePasswordRequest{NewPassword: "whatever-1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
