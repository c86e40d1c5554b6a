package scope

import (
	"testing"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestBuildUserFilter_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		id       Identity
		query    Query
		opts     Options
		expected map[string]interface{}
	}{
		{
			name:  "tenant admin cannot read another tenant",
			id:    Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"},
			query: Query{TenantID: "T2", BranchID: "B9"},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"branchId": "B9",
			},
		},
		{
			name:  "branch leader only sees volunteers of own branch",
			id:    Identity{Role: domain.RoleBranchLeader, TenantID: "T1", BranchID: "B1"},
			query: Query{BranchID: "B2"},
			opts:  Options{IsLeader: true},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"branchId": "B1",
				"role":     "volunteer",
			},
		},
		{
			name:  "super admin passes through",
			id:    Identity{Role: domain.RoleServusAdmin},
			query: Query{TenantID: "T3", Role: "TenantAdmin", IsActive: boolPtr(true)},
			expected: map[string]interface{}{
				"tenantId": "T3",
				"role":     "TenantAdmin",
				"isActive": true,
			},
		},
		{
			name:  "role filter dropped by default",
			id:    Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"},
			query: Query{Role: "TenantAdmin"},
			expected: map[string]interface{}{
				"tenantId": "T1",
			},
		},
		{
			name:  "role filter re-enabled",
			id:    Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"},
			query: Query{Role: "Leader"},
			opts:  Options{AllowRoleFilter: true},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"role":     "Leader",
			},
		},
		{
			name:  "leader overrides re-enabled role filter",
			id:    Identity{Role: domain.RoleLeader, TenantID: "T1"},
			query: Query{Role: "TenantAdmin"},
			opts:  Options{IsLeader: true, AllowRoleFilter: true},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"role":     "volunteer",
			},
		},
		{
			name:  "explicit false isActive passes through",
			id:    Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"},
			query: Query{IsActive: boolPtr(false)},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"branchId": "B1",
				"isActive": false,
			},
		},
		{
			name:  "search passes through for scoped callers",
			id:    Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"},
			query: Query{Search: "maria"},
			expected: map[string]interface{}{
				"tenantId": "T1",
				"search":   "maria",
			},
		},
		{
			name:     "super admin with empty query",
			id:       Identity{Role: domain.RoleServusAdmin},
			expected: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildUserFilter(tt.id, tt.query, tt.opts)
			assert.Equal(t, tt.expected, f.Map())
		})
	}
}

func TestBuildUserFilter_TenantAlwaysFromToken(t *testing.T) {
	roles := []domain.Role{
		domain.RoleTenantAdmin,
		domain.RoleBranchAdmin,
		domain.RoleBranchLeader,
		domain.RoleLeader,
		domain.RoleVolunteer,
		domain.Role("garbage"),
	}
	queries := []Query{
		{},
		{TenantID: "OTHER"},
		{TenantID: "T1"},
		{TenantID: "OTHER", BranchID: "B7", Role: "ServusAdmin"},
	}

	for _, role := range roles {
		for _, q := range queries {
			f := BuildUserFilter(Identity{Role: role, TenantID: "T1"}, q, Options{})
			require.NotNil(t, f.TenantID, "role %s", role)
			assert.Equal(t, "T1", *f.TenantID, "role %s query %+v", role, q)
		}
	}
}

func TestBuildUserFilter_BranchFromTokenWins(t *testing.T) {
	for _, q := range []Query{{}, {BranchID: "B2"}, {BranchID: "B1"}} {
		f := BuildUserFilter(Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"}, q, Options{})
		require.NotNil(t, f.BranchID)
		assert.Equal(t, "B1", *f.BranchID)
	}
}

func TestBuildUserFilter_BranchFromQueryWhenTenantWide(t *testing.T) {
	id := Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"}

	f := BuildUserFilter(id, Query{BranchID: "B2"}, Options{})
	require.NotNil(t, f.BranchID)
	assert.Equal(t, "B2", *f.BranchID)

	f = BuildUserFilter(id, Query{}, Options{})
	assert.Nil(t, f.BranchID)
	assert.NotContains(t, f.Keys(), KeyBranchID)
}

func TestBuildUserFilter_EmptyTenantClaimStaysScoped(t *testing.T) {
	f := BuildUserFilter(Identity{Role: domain.RoleVolunteer}, Query{TenantID: "T9"}, Options{})

	require.NotNil(t, f.TenantID)
	assert.Equal(t, "", *f.TenantID)
	assert.Equal(t, []string{KeyTenantID}, f.Keys())
}

func TestBuildUserFilter_DoesNotAliasQuery(t *testing.T) {
	active := true
	q := Query{IsActive: &active}
	f := BuildUserFilter(Identity{Role: domain.RoleServusAdmin}, q, Options{})

	active = false
	require.NotNil(t, f.IsActive)
	assert.True(t, *f.IsActive)
}

func TestBuildFilter_DropsRole(t *testing.T) {
	f := BuildFilter(Identity{Role: domain.RoleServusAdmin}, Query{Role: "TenantAdmin", TenantID: "T1"})
	assert.Nil(t, f.Role)
	assert.Equal(t, map[string]interface{}{"tenantId": "T1"}, f.Map())

	f = BuildFilter(Identity{Role: domain.RoleLeader, TenantID: "T1", BranchID: "B1"}, Query{})
	assert.Nil(t, f.Role)
	assert.Equal(t, []string{KeyTenantID, KeyBranchID}, f.Keys())
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name     string
		id       Identity
		tenantID string
		branchID string
		expected bool
	}{
		{"super admin any tenant", Identity{Role: domain.RoleServusAdmin}, "T2", "B2", true},
		{"same tenant no branch", Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"}, "T1", "B5", true},
		{"other tenant", Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"}, "T2", "", false},
		{"same branch", Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"}, "T1", "B1", true},
		{"other branch", Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"}, "T1", "B2", false},
		{"tenant-wide resource", Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"}, "T1", "", true},
		{"empty tenant claim", Identity{Role: domain.RoleVolunteer}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanAccess(tt.id, tt.tenantID, tt.branchID))
		})
	}
}

func TestCanAccessUser(t *testing.T) {
	branchAdmin := Identity{Role: domain.RoleBranchAdmin, TenantID: "T1", BranchID: "B1"}
	tests := []struct {
		name     string
		id       Identity
		tenantID string
		branchID string
		expected bool
	}{
		{"same branch", branchAdmin, "T1", "B1", true},
		{"other branch", branchAdmin, "T1", "B2", false},
		{"tenant-wide user hidden from branch caller", branchAdmin, "T1", "", false},
		{"tenant caller sees tenant-wide user", Identity{Role: domain.RoleTenantAdmin, TenantID: "T1"}, "T1", "", true},
		{"super admin", Identity{Role: domain.RoleServusAdmin, BranchID: "B1"}, "T2", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanAccessUser(tt.id, tt.tenantID, tt.branchID))
		})
	}
}
