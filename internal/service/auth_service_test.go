package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/pkg/middleware"
)

const testSecret = "test-secret"

func newAuthFixture() (*fixture, AuthService, *TokenIssuer) {
	f := newFixture()
	tokens := NewTokenIssuer(TokenConfig{Secret: testSecret, Issuer: "servus-test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	return f, NewAuthService(f.users, f.resolver, f.hasher, tokens, nil), tokens
}

func TestAuthService_Login(t *testing.T) {
	f, svc, _ := newAuthFixture()
	ctx := context.Background()
	user := f.addUser("ana@x.com", domain.RoleBranchAdmin, "igreja-central", f.branchA.ID.Hex())

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ANA@x.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(60), res.ExpiresIn)
	assert.Equal(t, user.ID.Hex(), res.User.ID)

	claims, err := middleware.ParseClaims(testSecret, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims["user_id"])
	assert.Equal(t, "BranchAdmin", claims["role"])
	assert.Equal(t, "igreja-central", claims["tenant_id"])
	assert.Equal(t, f.branchA.ID.Hex(), claims["branch_id"])
	assert.Equal(t, middleware.TokenTypeAccess, claims["token_type"])
	assert.Equal(t, "servus-test", claims["iss"])

	stored, _ := f.users.GetByID(ctx, user.ID.Hex())
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f, svc, _ := newAuthFixture()
	ctx := context.Background()
	inactive := f.addUser("off@x.com", domain.RoleVolunteer, "igreja-central", "")
	inactive.IsActive = false
	require.NoError(t, f.users.Update(ctx, inactive))

	closedTenant := &domain.Tenant{TenantID: "fechada", Name: "Fechada", IsActive: false}
	require.NoError(t, f.tenants.Create(ctx, closedTenant))
	f.addUser("closed@x.com", domain.RoleVolunteer, "fechada", "")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "nobody@x.com", "secret-pass", ErrInvalidCredentials},
		{"wrong password", "off@x.com", "nope", ErrInvalidCredentials},
		{"inactive user", "off@x.com", "secret-pass", ErrUserInactive},
		{"inactive tenant", "closed@x.com", "secret-pass", ErrTenantInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &dto.LoginRequest{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	f, svc, _ := newAuthFixture()
	ctx := context.Background()
	user := f.addUser("ana@x.com", domain.RoleVolunteer, "igreja-central", "")

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ana@x.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	user.IsActive = false
	require.NoError(t, f.users.Update(ctx, user))
	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthService_Me(t *testing.T) {
	f, svc, _ := newAuthFixture()
	user := f.addUser("ana@x.com", domain.RoleVolunteer, "igreja-central", "")

	me, err := svc.Me(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", me.Email)

	_, err = svc.Me(context.Background(), "65f000000000000000000009")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenIssuer_ExpiredToken(t *testing.T) {
	tokens := NewTokenIssuer(TokenConfig{Secret: testSecret, RefreshTTL: time.Minute})
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	pair, err := tokens.Issue(&domain.User{Email: "a@x.com", Role: domain.RoleVolunteer})
	require.NoError(t, err)

	_, err = tokens.ParseRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
