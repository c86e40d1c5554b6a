package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/scope"
)

func TestBranchService_ScopedListAndAccess(t *testing.T) {
	f := newFixture()
	svc := NewBranchService(f.branches, f.resolver, nil)
	ctx := context.Background()
	require.NoError(t, f.branches.Create(ctx, &domain.Branch{TenantID: "outra", Name: "Fora", IsActive: true}))

	branchAdmin := scope.Identity{Role: domain.RoleBranchAdmin, TenantID: "igreja-central", BranchID: f.branchA.ID.Hex()}
	res, err := svc.List(ctx, branchAdmin, &dto.ListQuery{TenantID: "outra"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Centro", res.Items[0].Name)

	tenantAdmin := scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"}
	res, err = svc.List(ctx, tenantAdmin, &dto.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	super := scope.Identity{Role: domain.RoleServusAdmin}
	res, err = svc.List(ctx, super, &dto.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	_, err = svc.Get(ctx, branchAdmin, f.branchB.ID.Hex())
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestBranchService_Writes(t *testing.T) {
	f := newFixture()
	svc := NewBranchService(f.branches, f.resolver, nil)
	ctx := context.Background()
	branchAdmin := scope.Identity{Role: domain.RoleBranchAdmin, TenantID: "igreja-central", BranchID: f.branchA.ID.Hex()}
	tenantAdmin := scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"}

	_, err := svc.Create(ctx, branchAdmin, &dto.CreateBranchRequest{Name: "Sul"})
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := svc.Create(ctx, tenantAdmin, &dto.CreateBranchRequest{
		TenantID: "outra",
		Name:     "Sul",
		Address:  dto.AddressRequest{City: "Porto Alegre"},
		Schedule: []dto.ServiceTimeRequest{{DayOfWeek: 0, StartTime: "09:00", EndTime: "11:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "igreja-central", created.TenantID)
	assert.Equal(t, "Porto Alegre", created.Address.City)
	require.Len(t, created.Schedule, 1)

	updated, err := svc.Update(ctx, branchAdmin, f.branchA.ID.Hex(), &dto.UpdateBranchRequest{Timezone: strPtr("America/Sao_Paulo")})
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", updated.Timezone)

	_, err = svc.Update(ctx, branchAdmin, created.ID.Hex(), &dto.UpdateBranchRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, branchAdmin, f.branchA.ID.Hex()), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, tenantAdmin, created.ID.Hex()))
}

func TestMinistryService(t *testing.T) {
	f := newFixture()
	svc := NewMinistryService(f.ministries, f.branches, f.resolver, nil)
	ctx := context.Background()
	branchAdmin := scope.Identity{Role: domain.RoleBranchAdmin, TenantID: "igreja-central", BranchID: f.branchA.ID.Hex()}
	tenantAdmin := scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"}
	leader := scope.Identity{Role: domain.RoleLeader, TenantID: "igreja-central", BranchID: f.branchA.ID.Hex()}

	wide, err := svc.Create(ctx, tenantAdmin, &dto.CreateMinistryRequest{Name: "Louvor"})
	require.NoError(t, err)
	assert.Empty(t, wide.BranchID)

	local, err := svc.Create(ctx, branchAdmin, &dto.CreateMinistryRequest{Name: "Recepção"})
	require.NoError(t, err)
	assert.Equal(t, f.branchA.ID.Hex(), local.BranchID)

	_, err = svc.Create(ctx, leader, &dto.CreateMinistryRequest{Name: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	// tenant-wide ministries are visible to branch callers
	got, err := svc.Get(ctx, leader, wide.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Louvor", got.Name)

	_, err = svc.Update(ctx, leader, local.ID.Hex(), &dto.UpdateMinistryRequest{Name: strPtr("Outro")})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, branchAdmin, wide.ID.Hex()), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, branchAdmin, local.ID.Hex()))
}

func TestMinistryService_BranchListIncludesTenantWide(t *testing.T) {
	f := newFixture()
	svc := NewMinistryService(f.ministries, f.branches, f.resolver, nil)
	ctx := context.Background()
	tenantAdmin := scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"}
	leader := scope.Identity{Role: domain.RoleLeader, TenantID: "igreja-central", BranchID: f.branchA.ID.Hex()}

	_, err := svc.Create(ctx, tenantAdmin, &dto.CreateMinistryRequest{Name: "Louvor"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenantAdmin, &dto.CreateMinistryRequest{Name: "Recepção", BranchID: f.branchA.ID.Hex()})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenantAdmin, &dto.CreateMinistryRequest{Name: "Infantil", BranchID: f.branchB.ID.Hex()})
	require.NoError(t, err)

	res, err := svc.List(ctx, leader, &dto.ListQuery{})
	require.NoError(t, err)
	names := make([]string, 0, len(res.Items))
	for _, m := range res.Items {
		names = append(names, m.Name)
		_, err := svc.Get(ctx, leader, m.ID.Hex())
		assert.NoError(t, err, m.Name)
	}
	assert.ElementsMatch(t, []string{"Louvor", "Recepção"}, names)
}

func TestMembershipService(t *testing.T) {
	f := newFixture()
	ministries := NewMinistryService(f.ministries, f.branches, f.resolver, nil)
	svc := NewMembershipService(f.memberships, f.users, f.branches, f.ministries, f.resolver, f.publisher, nil)
	ctx := context.Background()
	admin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
	vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
	stranger := f.addUser("s@x.com", domain.RoleVolunteer, "outra", "")

	ministry, err := ministries.Create(ctx, identity(admin), &dto.CreateMinistryRequest{Name: "Louvor", BranchID: f.branchA.ID.Hex()})
	require.NoError(t, err)

	m, err := svc.Create(ctx, identity(admin), &dto.CreateMembershipRequest{
		UserID: vol.ID.Hex(), BranchID: f.branchA.ID.Hex(), MinistryID: ministry.ID.Hex(), Role: "volunteer",
	})
	require.NoError(t, err)
	assert.True(t, m.IsActive)
	assert.Equal(t, "igreja-central", m.TenantID)

	_, err = svc.Create(ctx, identity(admin), &dto.CreateMembershipRequest{
		UserID: vol.ID.Hex(), BranchID: f.branchA.ID.Hex(), MinistryID: ministry.ID.Hex(), Role: "Leader",
	})
	assert.ErrorIs(t, err, ErrMembershipExists)

	_, err = svc.Create(ctx, identity(admin), &dto.CreateMembershipRequest{UserID: stranger.ID.Hex(), Role: "volunteer"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Create(ctx, identity(admin), &dto.CreateMembershipRequest{
		UserID: vol.ID.Hex(), BranchID: f.branchB.ID.Hex(), MinistryID: ministry.ID.Hex(), Role: "volunteer",
	})
	assert.ErrorIs(t, err, ErrMinistryNotFound)

	// volunteers list only their own memberships
	res, err := svc.List(ctx, identity(vol), &dto.ListMembershipsQuery{UserID: admin.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, vol.ID.Hex(), f.memberships.lastParams.UserID)
	assert.Len(t, res.Items, 1)

	updated, err := svc.Update(ctx, identity(admin), m.ID.Hex(), &dto.UpdateMembershipRequest{Role: strPtr("Leader")})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLeader, updated.Role)

	require.NoError(t, svc.Deactivate(ctx, identity(admin), m.ID.Hex()))
	stored, _ := f.memberships.GetByID(ctx, m.ID.Hex())
	assert.False(t, stored.IsActive)

	assert.Equal(t, []string{EventMembershipCreated, EventMembershipUpdated, EventMembershipUpdated}, f.publisher.types())
}

func TestWritesAfterConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	tenantAdmin := scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"}

	t.Run("branch update", func(t *testing.T) {
		f := newFixture()
		svc := NewBranchService(f.branches, f.resolver, nil)
		f.branches.vanish = true
		_, err := svc.Update(ctx, tenantAdmin, f.branchA.ID.Hex(), &dto.UpdateBranchRequest{Name: strPtr("Centro Novo")})
		assert.ErrorIs(t, err, ErrBranchNotFound)
	})

	t.Run("branch delete", func(t *testing.T) {
		f := newFixture()
		svc := NewBranchService(f.branches, f.resolver, nil)
		f.branches.vanish = true
		assert.ErrorIs(t, svc.Delete(ctx, tenantAdmin, f.branchB.ID.Hex()), ErrBranchNotFound)
	})

	t.Run("tenant update", func(t *testing.T) {
		f := newFixture()
		svc := NewTenantService(f.tenants, f.resolver)
		f.tenants.vanish = true
		_, err := svc.Update(ctx, "igreja-central", &dto.UpdateTenantRequest{Name: strPtr("Igreja Renovada")})
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})

	t.Run("tenant soft delete", func(t *testing.T) {
		f := newFixture()
		svc := NewTenantService(f.tenants, f.resolver)
		f.tenants.vanish = true
		assert.ErrorIs(t, svc.Delete(ctx, "igreja-central"), ErrTenantNotFound)
	})

	t.Run("user update", func(t *testing.T) {
		f := newFixture()
		admin := f.addUser("ta@x.com", domain.RoleTenantAdmin, "igreja-central", "")
		vol := f.addUser("v@x.com", domain.RoleVolunteer, "igreja-central", f.branchA.ID.Hex())
		svc := f.userService()
		f.users.vanish = true
		_, err := svc.Update(ctx, identity(admin), vol.ID.Hex(), &dto.UpdateUserRequest{Name: strPtr("Vera")})
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, f.publisher.types())
	})
}
