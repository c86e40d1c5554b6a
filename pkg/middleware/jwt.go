package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// Context keys for caller information
const (
	ContextKeyUserID   = "user_id"
	ContextKeyEmail    = "email"
	ContextKeyRole     = "role"
	ContextKeyTenantID = "tenant_id"
	ContextKeyBranchID = "branch_id"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	// Secret key for validating JWT tokens
	Secret string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

// JWTMiddleware validates the bearer access token and injects the caller's
// claims into the gin and request contexts
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, response.ErrCodeUnauthorized, "Authorization header is required")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Abort(c, response.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if tokenString == "" {
			response.Abort(c, response.ErrCodeUnauthorized, "Token is empty")
			return
		}

		claims, err := ParseClaims(config.Secret, tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				response.Abort(c, response.ErrCodeUnauthorized, "Access token has expired")
				return
			}
			response.Abort(c, response.ErrCodeUnauthorized, "Invalid access token")
			return
		}

		if tokenType, _ := claims["token_type"].(string); tokenType == TokenTypeRefresh {
			response.Abort(c, response.ErrCodeUnauthorized, "Refresh token cannot be used for API access")
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Abort(c, response.ErrCodeUnauthorized, "Missing user_id in token")
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		tenantID, _ := claims["tenant_id"].(string)
		branchID, _ := claims["branch_id"].(string)

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyEmail, email)
		c.Set(ContextKeyRole, role)
		c.Set(ContextKeyTenantID, tenantID)
		c.Set(ContextKeyBranchID, branchID)

		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, userID)
		ctx = context.WithValue(ctx, logger.TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ParseClaims verifies an HMAC-signed token and returns its claims
func ParseClaims(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, ok := GetRole(c)
		if !ok {
			response.Abort(c, response.ErrCodeUnauthorized, "User not authenticated")
			return
		}

		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		response.Abort(c, response.ErrCodeForbidden, "Insufficient permissions")
	}
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyUserID)
}

// GetEmail extracts email from gin context
func GetEmail(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyEmail)
}

// GetRole extracts role from gin context
func GetRole(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyRole)
}

// GetTenantID extracts tenant ID from gin context
func GetTenantID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyTenantID)
}

// GetBranchID extracts branch ID from gin context; empty for tenant-wide callers
func GetBranchID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyBranchID)
}
