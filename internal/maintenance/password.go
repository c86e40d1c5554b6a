package maintenance

import (
	"context"
	"errors"
	"strings"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/pkg/security"
)

// ErrUserNotFound is returned when no user has the given email
var ErrUserNotFound = errors.New("user not found")

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// MinPasswordLength matches the API's password rule
const MinPasswordLength = 8

// UserStore is the part of the user repository a reset needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ResetPassword sets a new bcrypt password for the user with email
func ResetPassword(ctx context.Context, users UserStore, hasher *security.Hasher, email, password string) (*domain.User, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	user, err := users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if err := users.UpdatePassword(ctx, user.ID.Hex(), hash); err != nil {
		return nil, err
	}
	return user, nil
}
