package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/scope"
)

func boolPtr(b bool) *bool { return &b }

func TestScopeToBSON_OmitsAbsentKeys(t *testing.T) {
	f := scope.BuildUserFilter(
		scope.Identity{Role: domain.RoleTenantAdmin, TenantID: "igreja-central"},
		scope.Query{TenantID: "other", IsActive: boolPtr(false)},
		scope.Options{},
	)

	got := scopeToBSON(f, userFields)

	assert.Equal(t, bson.M{"tenantId": "igreja-central", "isActive": false}, got)
	for _, v := range got {
		assert.NotNil(t, v)
	}
}

func TestScopeToBSON_SuperAdminEmptyQuery(t *testing.T) {
	f := scope.BuildUserFilter(scope.Identity{Role: domain.RoleServusAdmin}, scope.Query{}, scope.Options{})
	assert.Empty(t, scopeToBSON(f, userFields))
}

func TestScopeToBSON_LeaderForcedToVolunteer(t *testing.T) {
	f := scope.BuildUserFilter(
		scope.Identity{Role: domain.RoleLeader, TenantID: "t1", BranchID: "b1"},
		scope.Query{Role: "TenantAdmin"},
		scope.Options{IsLeader: true},
	)

	got := scopeToBSON(f, userFields)
	assert.Equal(t, bson.M{"tenantId": "t1", "branchId": "b1", "role": "volunteer"}, got)
}

func TestScopeToBSON_UserSearchUsesFoldedName(t *testing.T) {
	search := "José.Á"
	got := scopeToBSON(scope.Filter{Search: &search}, userFields)

	or, ok := got["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"nameFolded": primitive.Regex{Pattern: `jose\.a`, Options: "i"}}, or[0])
	assert.Equal(t, bson.M{"email": primitive.Regex{Pattern: `José\.Á`, Options: "i"}}, or[1])
}

func TestScopeToBSON_BlankSearchIgnored(t *testing.T) {
	search := "   "
	got := scopeToBSON(scope.Filter{Search: &search}, userFields)
	assert.NotContains(t, got, "$or")
}

func TestScopeToBSON_BranchCollectionUsesID(t *testing.T) {
	oid := primitive.NewObjectID()
	branch := oid.Hex()
	tenant := "t1"

	got := scopeToBSON(scope.Filter{TenantID: &tenant, BranchID: &branch}, branchFields)
	assert.Equal(t, bson.M{"tenantId": "t1", "_id": oid}, got)

	bad := "not-an-id"
	got = scopeToBSON(scope.Filter{BranchID: &bad}, branchFields)
	assert.Equal(t, bson.M{"_id": "not-an-id"}, got)
}

func TestScopeToBSON_TenantWideCollectionsIncludeBranchless(t *testing.T) {
	tenant, branch := "t1", "b1"
	f := scope.Filter{TenantID: &tenant, BranchID: &branch}

	for _, fields := range []collectionFields{ministryFields, membershipFields, eventFields, templateFields} {
		assert.Equal(t, bson.M{
			"tenantId": "t1",
			"branchId": bson.M{"$in": bson.A{"b1", nil}},
		}, scopeToBSON(f, fields))
	}
	assert.Equal(t, bson.M{"tenantId": "t1", "branchId": "b1"}, scopeToBSON(f, userFields))
}

func TestListFilter_Extras(t *testing.T) {
	tenant := "t1"
	got := listFilter(ListParams{
		Scope:      scope.Filter{TenantID: &tenant},
		UserID:     "u1",
		MinistryID: "m1",
	}, membershipFields)

	assert.Equal(t, bson.M{"tenantId": "t1", "userId": "u1", "ministryId": "m1"}, got)
}

func TestListFilter_EventWindow(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	tenant := "t1"

	got := listFilter(ListParams{Scope: scope.Filter{TenantID: &tenant}, From: &from, To: &to}, eventFields)

	assert.Equal(t, "t1", got["tenantId"])
	or, ok := got["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"startAt": bson.M{"$lt": to}, "endAt": bson.M{"$gt": from}}, or[0])
	assert.Equal(t, bson.M{
		"recurrence": bson.M{"$exists": true, "$ne": nil},
		"startAt":    bson.M{"$lt": to},
		"$or": bson.A{
			bson.M{"recurrence.until": nil},
			bson.M{"recurrence.until": bson.M{"$gte": from}},
		},
	}, or[1])
}

func TestListFilter_EventWindowOpenEnded(t *testing.T) {
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	got := listFilter(ListParams{To: &to}, eventFields)

	or, ok := got["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	recurring, ok := or[1].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, recurring, "$or", "without a lower bound every series may still recur")
}

func TestListFilter_EventWindowWithSearch(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	search := "culto"

	got := listFilter(ListParams{Scope: scope.Filter{Search: &search}, From: &from}, eventFields)

	assert.NotContains(t, got, "$or")
	and, ok := got["$and"].(bson.A)
	require.True(t, ok)
	assert.Len(t, and, 2)
}

func TestListFilter_WindowIgnoredForUnwindowedCollections(t *testing.T) {
	from := time.Now()
	got := listFilter(ListParams{From: &from}, templateFields)
	assert.Empty(t, got)
}

func TestIndexes(t *testing.T) {
	idx := Indexes()
	for _, coll := range []string{UsersCollection, TenantsCollection, MembershipsCollection, EventsCollection} {
		assert.NotEmpty(t, idx[coll], coll)
	}
}
