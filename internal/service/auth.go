package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"wardrobe/internal/errs"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
	"wardrobe/internal/repository"
)

const minPasswordLen = 8

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// AuthService manages accounts. It satisfies session.Authenticator.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

type authService struct {
	repo repository.UserRepository
	log  *logging.Logger
	cost int
}

func NewAuthService(repo repository.UserRepository, log *logging.Logger) AuthService {
	return &authService{repo: repo, log: log.With("auth_service"), cost: bcrypt.DefaultCost}
}

func (s *authService) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", errs.ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes.
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	user, err := s.repo.Create(ctx, &model.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: email already registered", errs.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: create user: %w", errs.ErrRemoteWriteFailed, err)
	}

	s.log.Info("user_signed_up", map[string]any{"user_id": user.ID})
	return user, nil
}

// Authenticate returns errs.ErrUnauthenticated for an unknown email or a wrong
// password alike.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, errs.ErrUnauthenticated
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrUnauthenticated
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", errs.ErrInvalidInput, email)
	}
	return email, nil
}
