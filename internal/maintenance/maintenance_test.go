package maintenance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/pkg/security"
)

type fakeTenants []*domain.Tenant

func (f fakeTenants) List(_ context.Context, _ *bool, _ string, skip, limit int64) ([]*domain.Tenant, int64, error) {
	total := int64(len(f))
	if skip >= total {
		return nil, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return f[skip:end], total, nil
}

type fakeRefs struct {
	counts   map[string][]repository.TenantIDCount
	replaced []string
}

func (f *fakeRefs) CountByTenantID(_ context.Context, coll string) ([]repository.TenantIDCount, error) {
	return append([]repository.TenantIDCount(nil), f.counts[coll]...), nil
}

func (f *fakeRefs) ReplaceTenantID(_ context.Context, coll string, from repository.TenantIDCount, to string) (int64, error) {
	var n int64
	kept := f.counts[coll][:0]
	for _, c := range f.counts[coll] {
		if c.TenantID == from.TenantID && c.ObjectID == from.ObjectID {
			n += c.Documents
			continue
		}
		kept = append(kept, c)
	}
	f.counts[coll] = kept
	if n > 0 {
		f.add(coll, repository.TenantIDCount{TenantID: to, Documents: n})
	}
	f.replaced = append(f.replaced, coll+":"+from.TenantID+"->"+to)
	return n, nil
}

func (f *fakeRefs) add(coll string, c repository.TenantIDCount) {
	for i := range f.counts[coll] {
		if f.counts[coll][i].TenantID == c.TenantID && f.counts[coll][i].ObjectID == c.ObjectID {
			f.counts[coll][i].Documents += c.Documents
			return
		}
	}
	f.counts[coll] = append(f.counts[coll], c)
}

// documents returns the count stored under a string tenantId
func (f *fakeRefs) documents(coll, tenantID string) int64 {
	for _, c := range f.counts[coll] {
		if c.TenantID == tenantID && !c.ObjectID {
			return c.Documents
		}
	}
	return 0
}

func setup() (*domain.Tenant, *fakeRefs, *TenantChecker) {
	tenant := &domain.Tenant{ID: primitive.NewObjectID(), TenantID: "igreja-central"}
	refs := &fakeRefs{counts: map[string][]repository.TenantIDCount{
		"users": {
			{TenantID: "igreja-central", Documents: 4},
			{TenantID: tenant.ID.Hex(), Documents: 2},
			{TenantID: "igreja-fantasma", Documents: 1},
		},
		"branches": {
			{TenantID: tenant.ID.Hex(), Documents: 3},
		},
	}}
	checker := NewTenantChecker(fakeTenants{tenant}, refs, []string{"users", "branches"})
	return tenant, refs, checker
}

func TestTenantChecker_Check(t *testing.T) {
	tenant, refs, checker := setup()

	report, err := checker.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tenants)
	assert.False(t, report.Applied)
	assert.Equal(t, 1, report.Count(ReferenceOK))
	assert.Equal(t, 2, report.Count(ReferenceLegacy))
	assert.Equal(t, 1, report.Count(ReferenceOrphan))
	assert.Empty(t, refs.replaced)

	for _, ref := range report.References {
		if ref.Status == ReferenceLegacy {
			assert.Equal(t, tenant.ID.Hex(), ref.TenantID)
			assert.Equal(t, "igreja-central", ref.ReplaceWith)
		}
	}
}

func TestTenantChecker_FixDryRun(t *testing.T) {
	_, refs, checker := setup()

	report, err := checker.Fix(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, report.Applied)
	assert.Equal(t, 2, report.Count(ReferenceLegacy))
	assert.Empty(t, refs.replaced)
}

func TestTenantChecker_FixApply(t *testing.T) {
	tenant, refs, checker := setup()

	report, err := checker.Fix(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.Applied)
	assert.Len(t, refs.replaced, 2)
	assert.Equal(t, int64(6), refs.documents("users", "igreja-central"))
	assert.Equal(t, int64(3), refs.documents("branches", "igreja-central"))
	assert.Zero(t, refs.documents("users", tenant.ID.Hex()))

	again, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Count(ReferenceLegacy))
	assert.Equal(t, 1, again.Count(ReferenceOrphan))
}

func TestTenantChecker_ObjectIDTypedReferences(t *testing.T) {
	tenant := &domain.Tenant{ID: primitive.NewObjectID(), TenantID: "igreja-central"}
	refs := &fakeRefs{counts: map[string][]repository.TenantIDCount{
		"memberships": {
			{TenantID: tenant.ID.Hex(), ObjectID: true, Documents: 5},
			{TenantID: tenant.ID.Hex(), Documents: 2},
			{TenantID: primitive.NewObjectID().Hex(), ObjectID: true, Documents: 1},
		},
	}}
	checker := NewTenantChecker(fakeTenants{tenant}, refs, []string{"memberships"})

	report, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, report.References, 3)
	assert.Equal(t, 2, report.Count(ReferenceLegacy), "string and ObjectId forms are reported apart")
	assert.Equal(t, 1, report.Count(ReferenceOrphan))

	var types []string
	for _, ref := range report.References {
		if ref.Status == ReferenceLegacy {
			types = append(types, ref.Type)
		}
	}
	assert.ElementsMatch(t, []string{TypeString, TypeObjectID}, types)

	report, err = checker.Fix(context.Background(), true)
	require.NoError(t, err)
	for _, ref := range report.References {
		switch {
		case ref.Status == ReferenceLegacy && ref.Type == TypeObjectID:
			assert.Equal(t, int64(5), ref.Rewritten)
		case ref.Status == ReferenceLegacy:
			assert.Equal(t, int64(2), ref.Rewritten)
		}
	}
	assert.Equal(t, int64(7), refs.documents("memberships", "igreja-central"))

	again, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Count(ReferenceLegacy))
	assert.Equal(t, 1, again.Count(ReferenceOK))
}

func TestTenantChecker_PagesThroughTenants(t *testing.T) {
	tenants := make(fakeTenants, 0, tenantPageSize+10)
	for i := 0; i < tenantPageSize+10; i++ {
		tenants = append(tenants, &domain.Tenant{ID: primitive.NewObjectID(), TenantID: fmt.Sprintf("tenant-%d", i)})
	}
	last := tenants[len(tenants)-1]
	refs := &fakeRefs{counts: map[string][]repository.TenantIDCount{"users": {{TenantID: last.TenantID, Documents: 1}}}}

	report, err := NewTenantChecker(tenants, refs, []string{"users"}).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tenantPageSize+10, report.Tenants)
	assert.Equal(t, 1, report.Count(ReferenceOK))
}

type fakeUsers struct {
	user *domain.User
	hash string
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	if id != f.user.ID.Hex() {
		return errors.New("unexpected id")
	}
	f.hash = hash
	return nil
}

func TestResetPassword(t *testing.T) {
	hasher := security.NewHasher(4)
	users := &fakeUsers{user: &domain.User{ID: primitive.NewObjectID(), Email: "ana@servus.dev"}}
	ctx := context.Background()

	_, err := ResetPassword(ctx, users, hasher, "ana@servus.dev", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = ResetPassword(ctx, users, hasher, "bruno@servus.dev", "new-password")
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := ResetPassword(ctx, users, hasher, "  Ana@Servus.dev ", "new-password")
	require.NoError(t, err)
	assert.Equal(t, users.user.ID, user.ID)
	assert.NoError(t, hasher.Compare(users.hash, "new-password"))
}
