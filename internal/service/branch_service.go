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

// BranchService defines the interface for branch management operations
type BranchService interface {
	List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.Branch], error)
	Get(ctx context.Context, caller scope.Identity, id string) (*domain.Branch, error)
	// Create needs a tenant-wide administrator
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateBranchRequest) (*domain.Branch, error)
	// Update is open to branch administrators of the branch itself
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateBranchRequest) (*domain.Branch, error)
	Delete(ctx context.Context, caller scope.Identity, id string) error
}

type branchService struct {
	branches repository.BranchRepository
	resolver *repository.TenantResolver
	metrics  *telemetry.Metrics
}

// NewBranchService creates a new BranchService
func NewBranchService(branches repository.BranchRepository, resolver *repository.TenantResolver, metrics *telemetry.Metrics) BranchService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &branchService{branches: branches, resolver: resolver, metrics: metrics}
}

func (s *branchService) List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.Branch], error) {
	query.SetDefaults()
	filter := scope.BuildFilter(caller, query.ScopeQuery())
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("branches"), telemetry.RoleAttr(string(caller.Role)))

	branches, total, err := s.branches.List(ctx, repository.ListParams{Scope: filter, Skip: query.Skip(), Limit: int64(query.Limit)})
	if err != nil {
		return nil, err
	}
	return listOf(branches, total, query.Pagination), nil
}

func (s *branchService) Get(ctx context.Context, caller scope.Identity, id string) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch == nil || !scope.CanAccess(caller, branch.TenantID, branch.ID.Hex()) {
		return nil, ErrBranchNotFound
	}
	return branch, nil
}

func (s *branchService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateBranchRequest) (*domain.Branch, error) {
	if !tenantWideAdmin(caller) {
		return nil, ErrForbidden
	}
	own, err := placement(ctx, s.resolver, nil, caller, req.TenantID, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	branch := &domain.Branch{
		TenantID:  own.TenantID,
		Name:      req.Name,
		Address:   req.Address.ToDomain(),
		Phone:     req.Phone,
		Email:     req.Email,
		Timezone:  req.Timezone,
		Schedule:  dto.ToSchedule(req.Schedule),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *branchService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateBranchRequest) (*domain.Branch, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	branch, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canWrite(caller, branch.TenantID, branch.ID.Hex()) {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.Address != nil {
		branch.Address = req.Address.ToDomain()
	}
	if req.Phone != nil {
		branch.Phone = *req.Phone
	}
	if req.Email != nil {
		branch.Email = *req.Email
	}
	if req.Timezone != nil {
		branch.Timezone = *req.Timezone
	}
	if req.Schedule != nil {
		branch.Schedule = dto.ToSchedule(*req.Schedule)
	}
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}
	branch.UpdatedAt = time.Now().UTC()

	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, notFound(err, ErrBranchNotFound)
	}
	return branch, nil
}

func (s *branchService) Delete(ctx context.Context, caller scope.Identity, id string) error {
	branch, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if !tenantWideAdmin(caller) {
		return ErrForbidden
	}
	return notFound(s.branches.Delete(ctx, branch.ID.Hex()), ErrBranchNotFound)
}

// listOf wraps a page of documents
func listOf[T any](items []*T, total int64, p dto.Pagination) *dto.ListResponse[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return &dto.ListResponse[T]{Items: out, TotalCount: total, Page: p.Page, Limit: p.Limit}
}
