package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardrobe/internal/model"
)

func TestUserPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	cols := []string{"id", "email", "password_hash", "created_at"}

	t.Run("create", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("ana@example.com", "hash").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("user-1", "ana@example.com", "hash", time.Now()))

		u, err := repo.Create(ctx, &model.User{Email: "ana@example.com", PasswordHash: "hash"})

		require.NoError(t, err)
		assert.Equal(t, "user-1", u.ID)
	})

	t.Run("find by email", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("ana@example.com").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("user-1", "ana@example.com", "hash", time.Now()))

		u, err := repo.FindByEmail(ctx, "ana@example.com")

		require.NoError(t, err)
		assert.Equal(t, "hash", u.PasswordHash)
	})

	t.Run("unknown email", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByEmail(ctx, "nobody@example.com")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
