package postgres

import (
	"context"
	"database/sql"

	"wardrobe/internal/model"
	"wardrobe/internal/repository"
)

// UserPostgres stores accounts in the users table.
type UserPostgres struct {
	db *sql.DB
}

func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func (r *UserPostgres) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`
	var out model.User
	if err := r.db.QueryRowContext(ctx, q, user.Email, user.PasswordHash).
		Scan(&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
