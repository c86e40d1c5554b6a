package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/security"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Login verifies credentials and issues a token pair
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh exchanges a refresh token for a new pair
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error)
	// Me returns the caller's profile
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	users   repository.UserRepository
	tenants *repository.TenantResolver
	hasher  *security.Hasher
	tokens  *TokenIssuer
	metrics *telemetry.Metrics
	timeNow func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, tenants *repository.TenantResolver, hasher *security.Hasher,
	tokens *TokenIssuer, metrics *telemetry.Metrics) AuthService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &authService{
		users:   users,
		tenants: tenants,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics,
		timeNow: time.Now,
	}
}

// Login verifies credentials and issues a token pair
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || s.hasher.Compare(user.PasswordHash, req.Password) != nil {
		s.metrics.LoginAttempts.Inc(ctx, telemetry.OutcomeAttr("invalid_credentials"))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.LoginAttempts.Inc(ctx, telemetry.OutcomeAttr("inactive"))
		return nil, ErrUserInactive
	}
	if user.TenantID != "" && !user.Role.IsSuperAdmin() {
		tenant, err := s.tenants.Resolve(ctx, user.TenantID)
		if err != nil {
			return nil, err
		}
		if tenant != nil && !tenant.IsActive {
			s.metrics.LoginAttempts.Inc(ctx, telemetry.OutcomeAttr("tenant_inactive"))
			return nil, ErrTenantInactive
		}
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID.Hex(), s.timeNow().UTC()); err != nil {
		logger.WarnCtx(ctx, "record last login failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
	s.metrics.LoginAttempts.Inc(ctx, telemetry.OutcomeAttr("ok"), telemetry.RoleAttr(string(user.Role)))
	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair
func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	userID, err := s.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.tokens.Issue(user)
}

// Me returns the caller's profile
func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return dto.NewUserResponse(user), nil
}
