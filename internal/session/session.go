// ABOUTME: Session manager persisting the bearer token and session user
// ABOUTME: Composes the key-value store with the token codec

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dangquan18/subme/internal/storage"
	"github.com/dangquan18/subme/internal/token"
	"github.com/dangquan18/subme/models"
)

// Fixed storage keys
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// ErrNoSession is returned by Claims when no token is stored
var ErrNoSession = errors.New("no stored session")

// Manager reads and writes the persisted session
type Manager struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager over store
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SaveToken persists the raw bearer token
func (m *Manager) SaveToken(ctx context.Context, raw string) {
	m.store.Set(ctx, KeyToken, raw)
}

// LoadToken returns the persisted token, if any
func (m *Manager) LoadToken(ctx context.Context) (string, bool) {
	raw, ok := m.store.Get(ctx, KeyToken)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// Token implements the HTTP client's token source
func (m *Manager) Token(ctx context.Context) (string, bool) {
	return m.LoadToken(ctx)
}

// SaveUser persists u as JSON text
func (m *Manager) SaveUser(ctx context.Context, u *models.User) {
	if u == nil {
		m.store.Remove(ctx, KeyUser)
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		m.logger.Warn("Failed to encode session user", "error", err)
		return
	}
	m.store.Set(ctx, KeyUser, string(data))
}

// LoadUser returns the persisted user. Unparseable records read as absent.
func (m *Manager) LoadUser(ctx context.Context) (*models.User, bool) {
	raw, ok := m.store.Get(ctx, KeyUser)
	if !ok || raw == "" {
		return nil, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.logger.Warn("Ignoring corrupt session user", "error", err)
		return nil, false
	}
	return &u, true
}

// ClearAll removes both the token and the user. Calling it again is a no-op.
func (m *Manager) ClearAll(ctx context.Context) {
	m.store.Remove(ctx, KeyToken)
	m.store.Remove(ctx, KeyUser)
}

// Claims decodes the persisted token
func (m *Manager) Claims(ctx context.Context) (*token.Claims, error) {
	raw, ok := m.LoadToken(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return token.Decode(raw)
}

// IsSessionValid reports whether a token is stored and not expired
func (m *Manager) IsSessionValid(ctx context.Context) bool {
	raw, ok := m.LoadToken(ctx)
	if !ok {
		return false
	}
	return !token.Expired(raw, m.now())
}

// ExpiresIn returns the time left on the stored token, or zero when there is
// no valid session
func (m *Manager) ExpiresIn(ctx context.Context) time.Duration {
	c, err := m.Claims(ctx)
	if err != nil || c.ExpiredAt(m.now()) {
		return 0
	}
	return c.ExpiresAt.Sub(m.now())
}
