package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// MongoMembershipRepository implements MembershipRepository using MongoDB
type MongoMembershipRepository struct {
	coll *mongo.Collection
}

// NewMongoMembershipRepository creates a new MongoMembershipRepository
func NewMongoMembershipRepository(db *mongo.Database) *MongoMembershipRepository {
	return &MongoMembershipRepository{coll: db.Collection(MembershipsCollection)}
}

func (r *MongoMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	if membership.ID.IsZero() {
		membership.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, membership)
}

func (r *MongoMembershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	return findByID[domain.Membership](ctx, r.coll, id)
}

// FindActive returns the active membership for the tuple. Empty branch or
// ministry ids match documents without that field.
func (r *MongoMembershipRepository) FindActive(ctx context.Context, userID, tenantID, branchID, ministryID string) (*domain.Membership, error) {
	filter := bson.M{
		"userId":     userID,
		"tenantId":   tenantID,
		"branchId":   optionalField(branchID),
		"ministryId": optionalField(ministryID),
		"isActive":   true,
	}
	return findOne[domain.Membership](ctx, r.coll, filter)
}

func (r *MongoMembershipRepository) List(ctx context.Context, params ListParams) ([]*domain.Membership, int64, error) {
	return findPage[domain.Membership](ctx, r.coll, listFilter(params, membershipFields), membershipFields.sortBy, params.Skip, params.Limit)
}

func (r *MongoMembershipRepository) Update(ctx context.Context, membership *domain.Membership) error {
	return replace(ctx, r.coll, membership.ID, membership)
}

// optionalField matches v, or a missing field when v is empty
func optionalField(v string) interface{} {
	if v == "" {
		return bson.M{"$exists": false}
	}
	return v
}
