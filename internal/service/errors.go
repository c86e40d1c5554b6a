package service

import (
	"errors"

	"github.com/prohmpiriya/servus/internal/repository"
)

var (
	// ErrForbidden is returned when the caller's role or scope does not
	// permit the operation
	ErrForbidden = errors.New("operation not permitted")
	// ErrInvalidInput wraps request errors that binding cannot catch
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoFieldsToUpdate is returned for empty partial updates
	ErrNoFieldsToUpdate = errors.New("at least one field must be provided for update")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrTenantInactive     = errors.New("tenant is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("current password is incorrect")

	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrRoleNotAssignable = errors.New("role is above the caller's own")

	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant with this id already exists")

	ErrBranchNotFound     = errors.New("branch not found")
	ErrMinistryNotFound   = errors.New("ministry not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("an active membership already exists")
)

// notFound reports a write that matched no document as the resource's
// not-found error
func notFound(err, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}
