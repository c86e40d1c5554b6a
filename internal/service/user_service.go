package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/security"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// UserService defines the interface for user management operations
type UserService interface {
	// List retrieves users visible to the caller
	List(ctx context.Context, caller scope.Identity, query *dto.ListUsersQuery) (*dto.ListResponse[dto.UserResponse], error)
	// GetByID retrieves a user visible to the caller
	GetByID(ctx context.Context, caller scope.Identity, id string) (*dto.UserResponse, error)
	// Create creates a user inside the caller's scope
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	// Update applies a partial update
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	// Deactivate soft deletes a user
	Deactivate(ctx context.Context, caller scope.Identity, id string) error
	// ChangePassword changes the caller's own password or resets another
	// user's as an administrator
	ChangePassword(ctx context.Context, caller scope.Identity, id string, req *dto.ChangePasswordRequest) error
}

type userService struct {
	users     repository.UserRepository
	branches  repository.BranchRepository
	resolver  *repository.TenantResolver
	hasher    *security.Hasher
	publisher EventPublisher
	metrics   *telemetry.Metrics
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, branches repository.BranchRepository, resolver *repository.TenantResolver,
	hasher *security.Hasher, publisher EventPublisher, metrics *telemetry.Metrics) UserService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &userService{
		users:     users,
		branches:  branches,
		resolver:  resolver,
		hasher:    hasher,
		publisher: publisher,
		metrics:   metrics,
	}
}

// UserListOptions returns the scope options a caller lists users with
func UserListOptions(caller scope.Identity) scope.Options {
	return scope.Options{
		IsLeader:        caller.Role.IsLeader(),
		AllowRoleFilter: caller.Role.IsAdmin(),
	}
}

// List retrieves users visible to the caller
func (s *userService) List(ctx context.Context, caller scope.Identity, query *dto.ListUsersQuery) (*dto.ListResponse[dto.UserResponse], error) {
	if !caller.Role.IsAdmin() && !caller.Role.IsLeader() {
		return nil, ErrForbidden
	}
	query.SetDefaults()

	filter := scope.BuildUserFilter(caller, query.ScopeQuery(), UserListOptions(caller))
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("users"), telemetry.RoleAttr(string(caller.Role)))

	users, total, err := s.users.List(ctx, repository.ListParams{
		Scope: filter,
		Skip:  query.Skip(),
		Limit: int64(query.Limit),
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *dto.NewUserResponse(u))
	}
	return &dto.ListResponse[dto.UserResponse]{Items: items, TotalCount: total, Page: query.Page, Limit: query.Limit}, nil
}

// GetByID retrieves a user visible to the caller
func (s *userService) GetByID(ctx context.Context, caller scope.Identity, id string) (*dto.UserResponse, error) {
	user, err := s.visible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// visible loads a user the caller may see. Out-of-scope users are reported
// as missing.
func (s *userService) visible(ctx context.Context, caller scope.Identity, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.ID.Hex() == caller.UserID {
		return user, nil
	}
	switch {
	case caller.Role.IsAdmin():
	case caller.Role.IsLeader():
		if user.Role != domain.RoleVolunteer {
			return nil, ErrUserNotFound
		}
	default:
		return nil, ErrUserNotFound
	}
	if !scope.CanAccessUser(caller, user.TenantID, user.BranchID) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Create creates a user inside the caller's scope
func (s *userService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrForbidden
	}
	role := domain.Role(req.Role)
	if !assignable(caller, role) {
		return nil, ErrRoleNotAssignable
	}

	// platform administrators may belong to no tenant
	var own ownership
	if !role.IsSuperAdmin() || req.TenantID != "" {
		var err error
		own, err = placement(ctx, s.resolver, s.branches, caller, req.TenantID, req.BranchID)
		if err != nil {
			return nil, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         role,
		TenantID:     own.TenantID,
		BranchID:     own.BranchID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	s.publisher.Publish(ctx, EventUserCreated, user.TenantID, resp)
	return resp, nil
}

// Update applies a partial update. Callers may edit their own name and
// phone; everything else needs an administrator who outranks the user.
func (s *userService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	user, err := s.visible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	self := user.ID.Hex() == caller.UserID
	privileged := req.Role != nil || req.BranchID != nil || req.IsActive != nil
	if !self || privileged {
		if !caller.Role.IsAdmin() || !caller.Role.Outranks(user.Role) {
			return nil, ErrForbidden
		}
		if self && (req.Role != nil || req.IsActive != nil) {
			return nil, ErrForbidden
		}
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		if !assignable(caller, role) {
			return nil, ErrRoleNotAssignable
		}
		user.Role = role
	}
	if req.BranchID != nil {
		own, err := placement(ctx, s.resolver, s.branches, caller, user.TenantID, *req.BranchID)
		if err != nil {
			return nil, err
		}
		user.BranchID = own.BranchID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	resp := dto.NewUserResponse(user)
	s.publisher.Publish(ctx, EventUserUpdated, user.TenantID, resp)
	return resp, nil
}

// Deactivate soft deletes a user
func (s *userService) Deactivate(ctx context.Context, caller scope.Identity, id string) error {
	user, err := s.visible(ctx, caller, id)
	if err != nil {
		return err
	}
	if user.ID.Hex() == caller.UserID || !caller.Role.IsAdmin() || !caller.Role.Outranks(user.Role) {
		return ErrForbidden
	}
	if !user.IsActive {
		return nil
	}

	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	s.publisher.Publish(ctx, EventUserDeactivated, user.TenantID, dto.NewUserResponse(user))
	return nil
}

// ChangePassword changes the caller's own password or resets another
// user's as an administrator
func (s *userService) ChangePassword(ctx context.Context, caller scope.Identity, id string, req *dto.ChangePasswordRequest) error {
	user, err := s.visible(ctx, caller, id)
	if err != nil {
		return err
	}

	if user.ID.Hex() == caller.UserID {
		if s.hasher.Compare(user.PasswordHash, req.CurrentPassword) != nil {
			return ErrPasswordMismatch
		}
	} else if !caller.Role.IsAdmin() || !caller.Role.Outranks(user.Role) {
		return ErrForbidden
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return notFound(s.users.UpdatePassword(ctx, user.ID.Hex(), hash), ErrUserNotFound)
}
