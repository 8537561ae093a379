package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wardrobe/internal/errs"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
	repoMocks "wardrobe/internal/repository/mocks"
)

func newAuth(repo *repoMocks.MockUserRepository) *authService {
	svc := NewAuthService(repo, logging.Nop()).(*authService)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(m *repoMocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:     "happy path lowercases the email",
			email:    "  Alice@Example.com ",
			password: "hunter222",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "alice@example.com" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter222")) == nil
				})).Return(&model.User{ID: "u1", Email: "alice@example.com"}, nil)
			},
		},
		{
			name:     "invalid email",
			email:    "alice",
			password: "hunter222",
			wantErr:  errs.ErrInvalidInput,
		},
		{
			name:     "short password",
			email:    "alice@example.com",
			password: "short",
			wantErr:  errs.ErrInvalidInput,
		},
		{
			name:     "duplicate email",
			email:    "alice@example.com",
			password: "hunter222",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.Anything).Return(nil, &pgconn.PgError{Code: "23505"})
			},
			wantErr: errs.ErrInvalidInput,
		},
		{
			name:     "store failure",
			email:    "alice@example.com",
			password: "hunter222",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.Anything).Return(nil, errors.New("conn reset"))
			},
			wantErr: errs.ErrRemoteWriteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockUserRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}

			user, err := newAuth(repo).SignUp(ctx, tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", user.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter222"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: "u1", Email: "alice@example.com", PasswordHash: string(hash)}

	t.Run("correct password", func(t *testing.T) {
		repo := new(repoMocks.MockUserRepository)
		repo.On("FindByEmail", ctx, "alice@example.com").Return(stored, nil)

		user, err := newAuth(repo).Authenticate(ctx, "ALICE@example.com", "hunter222")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(repoMocks.MockUserRepository)
		repo.On("FindByEmail", ctx, "alice@example.com").Return(stored, nil)

		_, err := newAuth(repo).Authenticate(ctx, "alice@example.com", "nope")
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(repoMocks.MockUserRepository)
		repo.On("FindByEmail", ctx, "bob@example.com").Return(nil, sql.ErrNoRows)

		_, err := newAuth(repo).Authenticate(ctx, "bob@example.com", "hunter222")
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(repoMocks.MockUserRepository)
		repo.On("FindByEmail", ctx, "alice@example.com").Return(nil, errors.New("conn reset"))

		_, err := newAuth(repo).Authenticate(ctx, "alice@example.com", "hunter222")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrUnauthenticated)
	})
}
