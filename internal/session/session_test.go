package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wardrobe/internal/config"
	"wardrobe/internal/errs"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type failingStore struct {
	TokenStore
	saveErr   error
	deleteErr error
}

func (s *failingStore) Save(ctx context.Context, token string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.TokenStore.Save(ctx, token)
}

func (s *failingStore) Delete(ctx context.Context) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.TokenStore.Delete(ctx)
}

var testCfg = config.SessionConfig{Secret: "test-secret", TTL: time.Hour}

func newHolder(t *testing.T, store TokenStore, auth Authenticator) *Holder {
	t.Helper()
	h, err := NewHolder(store, auth, testCfg, logging.Nop())
	require.NoError(t, err)
	return h
}

func alice() *model.User {
	return &model.User{ID: "2b1d5c0e-1111-4a6b-9a0e-7f0c3e2d4a10", Email: "alice@example.com"}
}

func TestHolder_SignInRestoreSignOut(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "session"))
	auth := new(mockAuthenticator)
	auth.On("Authenticate", ctx, "alice@example.com", "hunter22").Return(alice(), nil)

	h := newHolder(t, store, auth)
	assert.False(t, h.Current().SignedIn())

	s, err := h.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: alice().ID, Email: "alice@example.com"}, s)
	assert.Equal(t, s, h.Current())

	// A fresh process restores the same user from the persisted token.
	restarted := newHolder(t, store, auth)
	restored, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, restored)
	assert.Equal(t, s, restarted.Current())

	require.NoError(t, restarted.SignOut(ctx))
	assert.False(t, restarted.Current().SignedIn())
	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	auth.AssertExpectations(t)
}

func TestHolder_SignIn_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("bad credentials", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Authenticate", ctx, "alice@example.com", "nope").Return(nil, errs.ErrUnauthenticated)

		h := newHolder(t, NewFileStore(filepath.Join(t.TempDir(), "session")), auth)
		_, err := h.SignIn(ctx, "alice@example.com", "nope")

		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
		assert.False(t, h.Current().SignedIn())
	})

	t.Run("token cannot be saved", func(t *testing.T) {
		auth := new(mockAuthenticator)
		auth.On("Authenticate", ctx, "alice@example.com", "hunter22").Return(alice(), nil)
		store := &failingStore{
			TokenStore: NewFileStore(filepath.Join(t.TempDir(), "session")),
			saveErr:    errors.New("disk full"),
		}

		h := newHolder(t, store, auth)
		_, err := h.SignIn(ctx, "alice@example.com", "hunter22")

		assert.ErrorContains(t, err, "disk full")
		assert.False(t, h.Current().SignedIn())
	})
}

func TestHolder_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		h := newHolder(t, NewFileStore(filepath.Join(t.TempDir(), "session")), nil)
		s, err := h.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, s.SignedIn())
	})

	t.Run("tampered token is discarded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session")
		require.NoError(t, os.WriteFile(path, []byte("not.a.jwt"), 0o600))

		h := newHolder(t, NewFileStore(path), nil)
		s, err := h.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, s.SignedIn())
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("expired token", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "session"))
		minter := newHolder(t, store, nil)
		minter.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := minter.mint(Session{UserID: alice().ID, Email: alice().Email})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, token))

		s, err := newHolder(t, store, nil).Restore(ctx)
		require.NoError(t, err)
		assert.False(t, s.SignedIn())
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "session"))
		other, err := NewHolder(store, nil, config.SessionConfig{Secret: "other", TTL: time.Hour}, logging.Nop())
		require.NoError(t, err)
		token, err := other.mint(Session{UserID: alice().ID})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, token))

		s, err := newHolder(t, store, nil).Restore(ctx)
		require.NoError(t, err)
		assert.False(t, s.SignedIn())
	})
}

func TestHolder_SignOut_ClearsUserEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	auth := new(mockAuthenticator)
	auth.On("Authenticate", ctx, "alice@example.com", "hunter22").Return(alice(), nil)
	store := &failingStore{TokenStore: NewFileStore(filepath.Join(t.TempDir(), "session"))}

	h := newHolder(t, store, auth)
	_, err := h.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	store.deleteErr = errors.New("read-only file system")
	err = h.SignOut(ctx)

	assert.ErrorContains(t, err, "read-only file system")
	assert.False(t, h.Current().SignedIn())
}

func TestHolder_Subscribe(t *testing.T) {
	ctx := context.Background()
	auth := new(mockAuthenticator)
	auth.On("Authenticate", ctx, "alice@example.com", "hunter22").Return(alice(), nil)
	h := newHolder(t, NewFileStore(filepath.Join(t.TempDir(), "session")), auth)

	var seen []Session
	unsubscribe := h.Subscribe(func(s Session) { seen = append(seen, s) })

	_, err := h.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, h.SignOut(ctx))
	// Already signed out: no transition, no notification.
	require.NoError(t, h.SignOut(ctx))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].SignedIn())
	assert.False(t, seen[1].SignedIn())

	unsubscribe()
	_, err = h.SignIn(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, Require(Session{}), errs.ErrUnauthenticated)
	assert.NoError(t, Require(Session{UserID: "u1"}))
}

func TestNewHolder_GeneratesSecret(t *testing.T) {
	h, err := NewHolder(NewFileStore(filepath.Join(t.TempDir(), "s")), nil, config.SessionConfig{}, logging.Nop())
	require.NoError(t, err)
	assert.Len(t, h.secret, 32)
	assert.Equal(t, 7*24*time.Hour, h.ttl)
}
