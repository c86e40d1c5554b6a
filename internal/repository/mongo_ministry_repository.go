package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// MongoMinistryRepository implements MinistryRepository using MongoDB
type MongoMinistryRepository struct {
	coll *mongo.Collection
}

// NewMongoMinistryRepository creates a new MongoMinistryRepository
func NewMongoMinistryRepository(db *mongo.Database) *MongoMinistryRepository {
	return &MongoMinistryRepository{coll: db.Collection(MinistriesCollection)}
}

func (r *MongoMinistryRepository) Create(ctx context.Context, ministry *domain.Ministry) error {
	if ministry.ID.IsZero() {
		ministry.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, ministry)
}

func (r *MongoMinistryRepository) GetByID(ctx context.Context, id string) (*domain.Ministry, error) {
	return findByID[domain.Ministry](ctx, r.coll, id)
}

func (r *MongoMinistryRepository) List(ctx context.Context, params ListParams) ([]*domain.Ministry, int64, error) {
	return findPage[domain.Ministry](ctx, r.coll, listFilter(params, ministryFields), ministryFields.sortBy, params.Skip, params.Limit)
}

func (r *MongoMinistryRepository) Update(ctx context.Context, ministry *domain.Ministry) error {
	return replace(ctx, r.coll, ministry.ID, ministry)
}

func (r *MongoMinistryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
