package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// notDeleted excludes soft-deleted tenants
var notDeleted = bson.M{"$exists": false}

// MongoTenantRepository implements TenantRepository using MongoDB
type MongoTenantRepository struct {
	coll *mongo.Collection
}

// NewMongoTenantRepository creates a new MongoTenantRepository
func NewMongoTenantRepository(db *mongo.Database) *MongoTenantRepository {
	return &MongoTenantRepository{coll: db.Collection(TenantsCollection)}
}

// Create creates a new tenant
func (r *MongoTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if tenant.ID.IsZero() {
		tenant.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, tenant)
}

// GetByID retrieves a tenant by ID
func (r *MongoTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, nil
	}
	return findOne[domain.Tenant](ctx, r.coll, bson.M{"_id": oid, "deletedAt": notDeleted})
}

// GetByTenantID retrieves a tenant by its external id
func (r *MongoTenantRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return findOne[domain.Tenant](ctx, r.coll, bson.M{"tenantId": tenantID, "deletedAt": notDeleted})
}

// List retrieves tenants with pagination and filters
func (r *MongoTenantRepository) List(ctx context.Context, isActive *bool, search string, skip, limit int64) ([]*domain.Tenant, int64, error) {
	filter := bson.M{"deletedAt": notDeleted}
	if isActive != nil {
		filter["isActive"] = *isActive
	}
	if or := searchClause(search, []searchField{{name: "name"}, {name: "tenantId"}}); len(or) > 0 {
		filter["$or"] = or
	}
	sort := bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	return findPage[domain.Tenant](ctx, r.coll, filter, sort, skip, limit)
}

// Update updates a tenant
func (r *MongoTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	return replace(ctx, r.coll, tenant.ID, tenant)
}

// SoftDelete soft deletes a tenant
func (r *MongoTenantRepository) SoftDelete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "deletedAt": notDeleted},
		bson.M{"$set": bson.M{"deletedAt": now, "isActive": false, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("soft delete tenant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByTenantID checks if a tenant exists with the given external id.
// Soft-deleted tenants still reserve their id.
func (r *MongoTenantRepository) ExistsByTenantID(ctx context.Context, tenantID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
