package service

import (
	"context"
	"errors"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// MembershipService defines the interface for membership operations
type MembershipService interface {
	List(ctx context.Context, caller scope.Identity, query *dto.ListMembershipsQuery) (*dto.ListResponse[domain.Membership], error)
	Get(ctx context.Context, caller scope.Identity, id string) (*domain.Membership, error)
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateMembershipRequest) (*domain.Membership, error)
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateMembershipRequest) (*domain.Membership, error)
	// Deactivate soft deletes a membership
	Deactivate(ctx context.Context, caller scope.Identity, id string) error
}

type membershipService struct {
	memberships repository.MembershipRepository
	users       repository.UserRepository
	branches    repository.BranchRepository
	ministries  repository.MinistryRepository
	resolver    *repository.TenantResolver
	publisher   EventPublisher
	metrics     *telemetry.Metrics
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(memberships repository.MembershipRepository, users repository.UserRepository,
	branches repository.BranchRepository, ministries repository.MinistryRepository,
	resolver *repository.TenantResolver, publisher EventPublisher, metrics *telemetry.Metrics) MembershipService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &membershipService{
		memberships: memberships,
		users:       users,
		branches:    branches,
		ministries:  ministries,
		resolver:    resolver,
		publisher:   publisher,
		metrics:     metrics,
	}
}

// List applies the same scope rules as the user listing; leaders only see
// volunteer memberships
func (s *membershipService) List(ctx context.Context, caller scope.Identity, query *dto.ListMembershipsQuery) (*dto.ListResponse[domain.Membership], error) {
	query.SetDefaults()
	filter := scope.BuildUserFilter(caller, query.ScopeQuery(), UserListOptions(caller))
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("memberships"), telemetry.RoleAttr(string(caller.Role)))

	params := repository.ListParams{
		Scope:      filter,
		UserID:     query.UserID,
		MinistryID: query.MinistryID,
		Skip:       query.Skip(),
		Limit:      int64(query.Limit),
	}
	// volunteers only see their own memberships
	if !caller.Role.IsAdmin() && !caller.Role.IsLeader() {
		params.UserID = caller.UserID
	}

	memberships, total, err := s.memberships.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return listOf(memberships, total, query.Pagination), nil
}

func (s *membershipService) Get(ctx context.Context, caller scope.Identity, id string) (*domain.Membership, error) {
	m, err := s.memberships.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || !scope.CanAccess(caller, m.TenantID, m.BranchID) {
		return nil, ErrMembershipNotFound
	}
	if m.UserID != caller.UserID && !caller.Role.IsAdmin() &&
		!(caller.Role.IsLeader() && m.Role == domain.RoleVolunteer) {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

// Create grants a user a role. The user must belong to the membership's
// tenant and hold no active membership for the same branch and ministry.
func (s *membershipService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateMembershipRequest) (*domain.Membership, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrForbidden
	}
	role := domain.Role(req.Role)
	if role.IsSuperAdmin() || !assignable(caller, role) {
		return nil, ErrRoleNotAssignable
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID == "" {
		return nil, ErrUserNotFound
	}

	// memberships live in the user's tenant
	own, err := placement(ctx, s.resolver, s.branches, caller, user.TenantID, req.BranchID)
	if err != nil {
		return nil, err
	}
	if own.TenantID != user.TenantID {
		return nil, ErrUserNotFound
	}
	if err := checkMinistry(ctx, s.ministries, own, req.MinistryID); err != nil {
		return nil, err
	}

	existing, err := s.memberships.FindActive(ctx, user.ID.Hex(), own.TenantID, own.BranchID, req.MinistryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMembershipExists
	}

	now := time.Now().UTC()
	m := &domain.Membership{
		UserID:     user.ID.Hex(),
		TenantID:   own.TenantID,
		BranchID:   own.BranchID,
		MinistryID: req.MinistryID,
		Role:       role,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMembershipExists
		}
		return nil, err
	}
	s.publisher.Publish(ctx, EventMembershipCreated, m.TenantID, m)
	return m, nil
}

func (s *membershipService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateMembershipRequest) (*domain.Membership, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	m, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canWrite(caller, m.TenantID, m.BranchID) || !caller.Role.Outranks(m.Role) {
		return nil, ErrForbidden
	}

	if req.Role != nil {
		role := domain.Role(*req.Role)
		if role.IsSuperAdmin() || !assignable(caller, role) {
			return nil, ErrRoleNotAssignable
		}
		m.Role = role
	}
	if req.IsActive != nil {
		if *req.IsActive && !m.IsActive {
			existing, err := s.memberships.FindActive(ctx, m.UserID, m.TenantID, m.BranchID, m.MinistryID)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != m.ID {
				return nil, ErrMembershipExists
			}
		}
		m.IsActive = *req.IsActive
	}
	m.UpdatedAt = time.Now().UTC()

	if err := s.memberships.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMembershipExists
		}
		return nil, notFound(err, ErrMembershipNotFound)
	}
	s.publisher.Publish(ctx, EventMembershipUpdated, m.TenantID, m)
	return m, nil
}

func (s *membershipService) Deactivate(ctx context.Context, caller scope.Identity, id string) error {
	active := false
	_, err := s.Update(ctx, caller, id, &dto.UpdateMembershipRequest{IsActive: &active})
	return err
}
