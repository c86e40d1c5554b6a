package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
)

// MongoBranchRepository implements BranchRepository using MongoDB
type MongoBranchRepository struct {
	coll *mongo.Collection
}

// NewMongoBranchRepository creates a new MongoBranchRepository
func NewMongoBranchRepository(db *mongo.Database) *MongoBranchRepository {
	return &MongoBranchRepository{coll: db.Collection(BranchesCollection)}
}

func (r *MongoBranchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	if branch.ID.IsZero() {
		branch.ID = primitive.NewObjectID()
	}
	return insert(ctx, r.coll, branch)
}

func (r *MongoBranchRepository) GetByID(ctx context.Context, id string) (*domain.Branch, error) {
	return findByID[domain.Branch](ctx, r.coll, id)
}

// List retrieves branches; a scoped branch id selects the branch itself
func (r *MongoBranchRepository) List(ctx context.Context, params ListParams) ([]*domain.Branch, int64, error) {
	return findPage[domain.Branch](ctx, r.coll, listFilter(params, branchFields), branchFields.sortBy, params.Skip, params.Limit)
}

func (r *MongoBranchRepository) Update(ctx context.Context, branch *domain.Branch) error {
	return replace(ctx, r.coll, branch.ID, branch)
}

func (r *MongoBranchRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
