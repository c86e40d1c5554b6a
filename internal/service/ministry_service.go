package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// MinistryService defines the interface for ministry management operations
type MinistryService interface {
	List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.Ministry], error)
	Get(ctx context.Context, caller scope.Identity, id string) (*domain.Ministry, error)
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateMinistryRequest) (*domain.Ministry, error)
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateMinistryRequest) (*domain.Ministry, error)
	Delete(ctx context.Context, caller scope.Identity, id string) error
}

type ministryService struct {
	ministries repository.MinistryRepository
	branches   repository.BranchRepository
	resolver   *repository.TenantResolver
	metrics    *telemetry.Metrics
}

// NewMinistryService creates a new MinistryService
func NewMinistryService(ministries repository.MinistryRepository, branches repository.BranchRepository,
	resolver *repository.TenantResolver, metrics *telemetry.Metrics) MinistryService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &ministryService{ministries: ministries, branches: branches, resolver: resolver, metrics: metrics}
}

func (s *ministryService) List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.Ministry], error) {
	query.SetDefaults()
	filter := scope.BuildFilter(caller, query.ScopeQuery())
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("ministries"), telemetry.RoleAttr(string(caller.Role)))

	ministries, total, err := s.ministries.List(ctx, repository.ListParams{Scope: filter, Skip: query.Skip(), Limit: int64(query.Limit)})
	if err != nil {
		return nil, err
	}
	return listOf(ministries, total, query.Pagination), nil
}

func (s *ministryService) Get(ctx context.Context, caller scope.Identity, id string) (*domain.Ministry, error) {
	ministry, err := s.ministries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ministry == nil || !scope.CanAccess(caller, ministry.TenantID, ministry.BranchID) {
		return nil, ErrMinistryNotFound
	}
	return ministry, nil
}

func (s *ministryService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateMinistryRequest) (*domain.Ministry, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrForbidden
	}
	own, err := placement(ctx, s.resolver, s.branches, caller, req.TenantID, req.BranchID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ministry := &domain.Ministry{
		TenantID:    own.TenantID,
		BranchID:    own.BranchID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ministries.Create(ctx, ministry); err != nil {
		return nil, err
	}
	return ministry, nil
}

func (s *ministryService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateMinistryRequest) (*domain.Ministry, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	ministry, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canWrite(caller, ministry.TenantID, ministry.BranchID) {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		ministry.Name = *req.Name
	}
	if req.Description != nil {
		ministry.Description = *req.Description
	}
	if req.IsActive != nil {
		ministry.IsActive = *req.IsActive
	}
	ministry.UpdatedAt = time.Now().UTC()

	if err := s.ministries.Update(ctx, ministry); err != nil {
		return nil, notFound(err, ErrMinistryNotFound)
	}
	return ministry, nil
}

func (s *ministryService) Delete(ctx context.Context, caller scope.Identity, id string) error {
	ministry, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	// tenant-wide ministries can only be removed by tenant-wide admins
	if !canWrite(caller, ministry.TenantID, ministry.BranchID) || (ministry.BranchID == "" && caller.BranchID != "") {
		return ErrForbidden
	}
	return notFound(s.ministries.Delete(ctx, ministry.ID.Hex()), ErrMinistryNotFound)
}
