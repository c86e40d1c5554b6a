package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// MongoEventRepository implements EventRepository using MongoDB
type MongoEventRepository struct {
	coll *mongo.Collection
}

// NewMongoEventRepository creates a new MongoEventRepository
func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{coll: db.Collection(EventsCollection)}
}

func (r *MongoEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, event)
}

func (r *MongoEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return findByID[domain.Event](ctx, r.coll, id)
}

// List retrieves events. With a window, single events must overlap it and
// recurring events must start before its end.
func (r *MongoEventRepository) List(ctx context.Context, params ListParams) ([]*domain.Event, int64, error) {
	return findPage[domain.Event](ctx, r.coll, listFilter(params, eventFields), eventFields.sortBy, params.Skip, params.Limit)
}

func (r *MongoEventRepository) Update(ctx context.Context, event *domain.Event) error {
	return replace(ctx, r.coll, event.ID, event)
}

func (r *MongoEventRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
