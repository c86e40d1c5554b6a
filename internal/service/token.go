package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/pkg/middleware"
)

// TokenConfig holds token signing settings
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer signs and verifies HS256 access and refresh tokens
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer creates a new TokenIssuer
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue creates a token pair for user
func (t *TokenIssuer) Issue(user *domain.User) (*dto.TokenResponse, error) {
	access, err := t.sign(user, middleware.TokenTypeAccess, t.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(user, middleware.TokenTypeRefresh, t.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}

// ParseRefresh verifies a refresh token and returns its user id
func (t *TokenIssuer) ParseRefresh(token string) (string, error) {
	claims, err := middleware.ParseClaims(t.cfg.Secret, token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["token_type"].(string); typ != middleware.TokenTypeRefresh {
		return "", ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (t *TokenIssuer) sign(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	if t.cfg.Secret == "" {
		return "", errors.New("token secret is not configured")
	}
	now := t.now()
	claims := jwt.MapClaims{
		"sub":        user.ID.Hex(),
		"user_id":    user.ID.Hex(),
		"email":      user.Email,
		"role":       string(user.Role),
		"tenant_id":  user.TenantID,
		"branch_id":  user.BranchID,
		"token_type": tokenType,
		"jti":        uuid.New().String(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}
	if t.cfg.Issuer != "" {
		claims["iss"] = t.cfg.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.Secret))
}
