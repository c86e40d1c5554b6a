package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prohmpiriya/servus/internal/domain"
)

// TenantResolver looks a tenant up by either reference form
type TenantResolver struct {
	repo TenantRepository
}

// NewTenantResolver creates a new TenantResolver
func NewTenantResolver(repo TenantRepository) *TenantResolver {
	return &TenantResolver{repo: repo}
}

// Resolve accepts an ObjectID hex or an external tenant id. An ObjectID
// match wins; otherwise ref is tried as the external id.
func (r *TenantResolver) Resolve(ctx context.Context, ref string) (*domain.Tenant, error) {
	if ref == "" {
		return nil, nil
	}
	if primitive.IsValidObjectID(ref) {
		tenant, err := r.repo.GetByID(ctx, ref)
		if err != nil || tenant != nil {
			return tenant, err
		}
	}
	return r.repo.GetByTenantID(ctx, ref)
}
