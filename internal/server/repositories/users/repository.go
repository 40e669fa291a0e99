// Package users is the credential store: persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

// Repository is the single abstraction over user storage. Lookups return
// common.ErrorNotFound for missing rows; writes that would duplicate an
// email return common.ErrUserExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	Count(ctx context.Context) (int, error)
}
