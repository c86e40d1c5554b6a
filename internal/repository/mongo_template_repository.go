package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// MongoTemplateRepository implements TemplateRepository using MongoDB
type MongoTemplateRepository struct {
	coll *mongo.Collection
}

// NewMongoTemplateRepository creates a new MongoTemplateRepository
func NewMongoTemplateRepository(db *mongo.Database) *MongoTemplateRepository {
	return &MongoTemplateRepository{coll: db.Collection(TemplatesCollection)}
}

func (r *MongoTemplateRepository) Create(ctx context.Context, template *domain.ScaleTemplate) error {
	if template.ID.IsZero() {
		template.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, template)
}

func (r *MongoTemplateRepository) GetByID(ctx context.Context, id string) (*domain.ScaleTemplate, error) {
	return findByID[domain.ScaleTemplate](ctx, r.coll, id)
}

func (r *MongoTemplateRepository) List(ctx context.Context, params ListParams) ([]*domain.ScaleTemplate, int64, error) {
	return findPage[domain.ScaleTemplate](ctx, r.coll, listFilter(params, templateFields), templateFields.sortBy, params.Skip, params.Limit)
}

func (r *MongoTemplateRepository) Update(ctx context.Context, template *domain.ScaleTemplate) error {
	return replace(ctx, r.coll, template.ID, template)
}

func (r *MongoTemplateRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
