package repository

import (
	"context"

	"wardrobe/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	// FindByEmail returns sql.ErrNoRows when no account uses the address.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
