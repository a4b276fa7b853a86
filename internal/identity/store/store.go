// Package store persists identity accounts.
package store

import (
	"context"

	"graminsetu/internal/identity/models"
	id "graminsetu/pkg/domain"
)

// UserStore persists accounts.
//
// Error contract: FindBy* return sentinel.ErrNotFound when no account
// matches; Create returns sentinel.ErrConflict when the email is taken.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}
