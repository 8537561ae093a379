// Package session owns the signed-in user. A Holder restores the persisted token
// at startup, swaps it on sign-in and sign-out, and hands out immutable Session
// values that the service layer uses to scope every query.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wardrobe/internal/config"
	"wardrobe/internal/errs"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
)

const issuer = "wardrobe"

// Session identifies the signed-in user. The zero value means signed out.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SignedIn reports whether the session carries a user.
func (s Session) SignedIn() bool { return s.UserID != "" }

// Authenticator verifies credentials against the account store.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

type claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Holder is the single owner of the current session.
type Holder struct {
	store  TokenStore
	auth   Authenticator
	secret []byte
	ttl    time.Duration
	log    *logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current Session
	subs    map[int]func(Session)
	nextSub int
}

// NewHolder builds a signed-out Holder. Without a configured secret a random one is
// generated, so tokens do not survive a restart.
func NewHolder(store TokenStore, auth Authenticator, cfg config.SessionConfig, log *logging.Logger) (*Holder, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn("session_secret_ephemeral", map[string]any{"msg": "SESSION_SECRET not set, sessions will not survive a restart"})
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Holder{
		store:  store,
		auth:   auth,
		secret: secret,
		ttl:    ttl,
		log:    log.With("session"),
		now:    time.Now,
		subs:   make(map[int]func(Session)),
	}, nil
}

// Current returns the session as of now.
func (h *Holder) Current() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe registers fn for every sign-in and sign-out transition.
// The returned func removes the subscription.
func (h *Holder) Subscribe(fn func(Session)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Restore loads the persisted token. A missing, expired or tampered token leaves
// the holder signed out; a bad token is also removed from the store.
func (h *Holder) Restore(ctx context.Context) (Session, error) {
	token, err := h.store.Load(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		h.log.Info("session_restore", map[string]any{"status": "signed_out"})
		return Session{}, nil
	}

	s, err := h.parse(token)
	if err != nil {
		h.log.Warn("session_restore", map[string]any{"status": "invalid_token", "error": err})
		if delErr := h.store.Delete(ctx); delErr != nil {
			h.log.Error("session_token_delete_failed", map[string]any{"error": delErr})
		}
		h.set(Session{})
		return Session{}, nil
	}

	h.set(s)
	h.log.Info("session_restore", map[string]any{"status": "signed_in", "user_id": s.UserID})
	return s, nil
}

// SignIn authenticates, persists a fresh token and switches to the new user.
// Nothing changes when authentication or persistence fails.
func (h *Holder) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := h.auth.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	s := Session{UserID: user.ID, Email: user.Email}
	token, err := h.mint(s)
	if err != nil {
		return Session{}, fmt.Errorf("mint session token: %w", err)
	}
	if err := h.store.Save(ctx, token); err != nil {
		return Session{}, fmt.Errorf("save session token: %w", err)
	}

	h.set(s)
	h.log.Info("session_sign_in", map[string]any{"user_id": s.UserID})
	return s, nil
}

// SignOut drops the current user before touching the store, so readers see the
// signed-out state even if removing the token fails.
func (h *Holder) SignOut(ctx context.Context) error {
	prev := h.Current()
	h.set(Session{})
	if err := h.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	h.log.Info("session_sign_out", map[string]any{"user_id": prev.UserID})
	return nil
}

func (h *Holder) set(s Session) {
	h.mu.Lock()
	changed := h.current != s
	h.current = s
	var fns []func(Session)
	if changed {
		fns = make([]func(Session), 0, len(h.subs))
		for _, fn := range h.subs {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (h *Holder) mint(s Session) (string, error) {
	now := h.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: s.UserID,
		Email:  s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	})
	return tok.SignedString(h.secret)
}

func (h *Holder) parse(token string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &c, func(*jwt.Token) (any, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil {
		return Session{}, err
	}
	if c.UserID == "" {
		return Session{}, errors.New("token has no user")
	}
	return Session{UserID: c.UserID, Email: c.Email}, nil
}

// Require returns errs.ErrUnauthenticated for a signed-out session.
func Require(s Session) error {
	if !s.SignedIn() {
		return errs.ErrUnauthenticated
	}
	return nil
}
