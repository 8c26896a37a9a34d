/**
 * @description
 * Session holds the client-side auth state of one browser (or the CLI):
 * the bearer token, the cached user and the favorited market ids.
 *
 * Key features:
 * - Implements polydebate.TokenStore so every API call reads the current token.
 * - Bootstrap validates a persisted token at startup (local JWT exp check,
 *   then GET /api/auth/me) and clears it on failure.
 * - ClearSession tears down every dependent cache, not only the token.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: unverified exp inspection
 */

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
)

// ErrMalformedUser is returned when the cached user cannot be decoded
var ErrMalformedUser = errors.New("session: cached user is malformed")

// TeardownFunc releases per-session resources held outside the store
type TeardownFunc func(sid string)

// Manager hands out Sessions over a shared Store
type Manager struct {
	store Store

	mu        sync.RWMutex
	teardowns []TeardownFunc

	now func() time.Time
}

// NewManager creates a session manager
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// OnTeardown registers fn to run whenever a session is cleared
func (m *Manager) OnTeardown(fn TeardownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns = append(m.teardowns, fn)
}

// Session returns the session handle for sid
func (m *Manager) Session(sid string) *Session {
	return &Session{ID: sid, m: m}
}

func (m *Manager) teardown(sid string) {
	m.mu.RLock()
	fns := append([]TeardownFunc(nil), m.teardowns...)
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(sid)
	}
}

// Session is a handle on one session's state
type Session struct {
	ID string
	m  *Manager
}

// Token returns the bearer token, "" when anonymous
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.m.store.Get(ctx, s.ID, KeyToken)
}

// SaveSession persists token and user after a successful login or signup
func (s *Session) SaveSession(ctx context.Context, token string, user *models.User) error {
	if err := s.m.store.Set(ctx, s.ID, KeyToken, token); err != nil {
		return err
	}
	return s.SetUser(ctx, user)
}

// SetUser replaces the cached user
func (s *Session) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return s.m.store.Delete(ctx, s.ID, KeyUser)
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	return s.m.store.Set(ctx, s.ID, KeyUser, string(raw))
}

// ClearSession removes the token, the cached user and the favorites, then
// runs registered teardown hooks.
func (s *Session) ClearSession(ctx context.Context) error {
	if err := s.m.store.Delete(ctx, s.ID, KeyToken, KeyUser); err != nil {
		return err
	}
	if err := s.m.store.ClearFavorites(ctx, s.ID); err != nil {
		return err
	}
	s.m.teardown(s.ID)
	return nil
}

// User returns the cached user. (nil, nil) means no user is cached;
// ErrMalformedUser means one is cached but unreadable.
func (s *Session) User(ctx context.Context) (*models.User, error) {
	raw, err := s.m.store.Get(ctx, s.ID, KeyUser)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, ErrMalformedUser
	}
	return &user, nil
}

// Authenticated reports whether a token is present
func (s *Session) Authenticated(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// Bootstrap validates a persisted token. With no token it returns (nil, nil).
// An expired or rejected token is cleared and also yields (nil, nil).
func (s *Session) Bootstrap(ctx context.Context, api *polydebate.Client) (*models.User, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, nil
	}

	if expired(tok, s.m.now()) {
		logger.Info("Session %s: token expired, clearing", s.ID)
		return nil, s.ClearSession(ctx)
	}

	user, err := api.WithTokens(s).CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Warn("Session %s: token validation failed, clearing: %v", s.ID, err)
		return nil, s.ClearSession(ctx)
	}
	if err := s.SetUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// expired reports whether tok is a JWT whose exp claim is in the past.
// Opaque tokens are never considered expired locally.
func expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Value reads an auxiliary session value, "" when absent
func (s *Session) Value(ctx context.Context, key string) (string, error) {
	return s.m.store.Get(ctx, s.ID, key)
}

// SetValue writes an auxiliary session value
func (s *Session) SetValue(ctx context.Context, key, value string) error {
	return s.m.store.Set(ctx, s.ID, key, value)
}

// DeleteValue removes an auxiliary session value
func (s *Session) DeleteValue(ctx context.Context, key string) error {
	return s.m.store.Delete(ctx, s.ID, key)
}

// FavoriteIDs returns the favorited market ids as a set
func (s *Session) FavoriteIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.m.store.Favorites(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// MarkFavorite adds or removes a market id from the local favorite set
func (s *Session) MarkFavorite(ctx context.Context, marketID string, on bool) error {
	if on {
		return s.m.store.AddFavorite(ctx, s.ID, marketID)
	}
	return s.m.store.RemoveFavorite(ctx, s.ID, marketID)
}

// ReplaceFavorites overwrites the local favorite set
func (s *Session) ReplaceFavorites(ctx context.Context, marketIDs []string) error {
	return s.m.store.ReplaceFavorites(ctx, s.ID, marketIDs)
}
