package service

import (
	"context"
	"errors"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
)

// TenantService defines the interface for tenant management operations.
// Every ref argument is an ObjectID hex or an external tenant id.
type TenantService interface {
	// Create creates a new tenant
	Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error)
	// Get retrieves a tenant; non-super-admins only see their own
	Get(ctx context.Context, caller scope.Identity, ref string) (*dto.TenantResponse, error)
	// List retrieves tenants with pagination and filters
	List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListResponse[dto.TenantResponse], error)
	// Update updates a tenant
	Update(ctx context.Context, ref string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error)
	// Delete soft deletes a tenant
	Delete(ctx context.Context, ref string) error
	// GetFeatures returns the tenant's feature flags
	GetFeatures(ctx context.Context, caller scope.Identity, ref string) (map[string]bool, error)
	// UpdateFeatures replaces the tenant's feature flags
	UpdateFeatures(ctx context.Context, ref string, req *dto.UpdateFeaturesRequest) (map[string]bool, error)
}

type tenantService struct {
	tenants  repository.TenantRepository
	resolver *repository.TenantResolver
}

// NewTenantService creates a new TenantService
func NewTenantService(tenants repository.TenantRepository, resolver *repository.TenantResolver) TenantService {
	return &tenantService{tenants: tenants, resolver: resolver}
}

// Create creates a new tenant
func (s *tenantService) Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	exists, err := s.tenants.ExistsByTenantID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTenantAlreadyExists
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		TenantID:  req.TenantID,
		Name:      req.Name,
		Domain:    req.Domain,
		LogoURL:   req.LogoURL,
		Features:  req.Features,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tenant.Features == nil {
		tenant.Features = make(map[string]bool)
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTenantAlreadyExists
		}
		return nil, err
	}
	return dto.NewTenantResponse(tenant), nil
}

// Get retrieves a tenant
func (s *tenantService) Get(ctx context.Context, caller scope.Identity, ref string) (*dto.TenantResponse, error) {
	tenant, err := s.visible(ctx, caller, ref)
	if err != nil {
		return nil, err
	}
	return dto.NewTenantResponse(tenant), nil
}

func (s *tenantService) visible(ctx context.Context, caller scope.Identity, ref string) (*domain.Tenant, error) {
	tenant, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(caller, tenant.TenantID, "") {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

func (s *tenantService) resolve(ctx context.Context, ref string) (*domain.Tenant, error) {
	tenant, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// List retrieves tenants with pagination and filters
func (s *tenantService) List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListResponse[dto.TenantResponse], error) {
	query.SetDefaults()

	tenants, total, err := s.tenants.List(ctx, query.IsActive, query.Search, query.Skip(), int64(query.Limit))
	if err != nil {
		return nil, err
	}

	items := make([]dto.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		items = append(items, *dto.NewTenantResponse(t))
	}
	return &dto.ListResponse[dto.TenantResponse]{Items: items, TotalCount: total, Page: query.Page, Limit: query.Limit}, nil
}

// Update updates a tenant
func (s *tenantService) Update(ctx context.Context, ref string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	tenant, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.Domain != nil {
		tenant.Domain = *req.Domain
	}
	if req.LogoURL != nil {
		tenant.LogoURL = *req.LogoURL
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	tenant.UpdatedAt = time.Now().UTC()

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, notFound(err, ErrTenantNotFound)
	}
	return dto.NewTenantResponse(tenant), nil
}

// Delete soft deletes a tenant
func (s *tenantService) Delete(ctx context.Context, ref string) error {
	tenant, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	return notFound(s.tenants.SoftDelete(ctx, tenant.ID.Hex()), ErrTenantNotFound)
}

// GetFeatures returns the tenant's feature flags
func (s *tenantService) GetFeatures(ctx context.Context, caller scope.Identity, ref string) (map[string]bool, error) {
	tenant, err := s.visible(ctx, caller, ref)
	if err != nil {
		return nil, err
	}
	if tenant.Features == nil {
		return map[string]bool{}, nil
	}
	return tenant.Features, nil
}

// UpdateFeatures replaces the tenant's feature flags
func (s *tenantService) UpdateFeatures(ctx context.Context, ref string, req *dto.UpdateFeaturesRequest) (map[string]bool, error) {
	tenant, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	tenant.Features = req.Features
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, notFound(err, ErrTenantNotFound)
	}
	return tenant.Features, nil
}
