// Package users declares the user-directory contract and its storage
// backends.
package users

import (
	"context"

	"github.com/dberzins/userauth/internal/server/models"
)

// Repository is the durable user directory. Lookups only ever return active
// users; a deactivated account is indistinguishable from a missing one.
type Repository interface {
	// Create stores a new user and returns it with storage-assigned fields
	// populated. A clash on an existing email returns
	// common.ErrEmailAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail returns the active user with the given email, or
	// common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns the active user with the given id, or
	// common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// TouchLastLogin records a successful authentication time for the user.
	TouchLastLogin(ctx context.Context, id string) error
}
