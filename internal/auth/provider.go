// ABOUTME: Session provider holding the current user and loading state
// ABOUTME: Explicit state machine driven by init, sign-in, sign-up, reload and sign-out

// Package auth owns the in-memory view of "who is signed in". A Provider is
// built once by the composition root and passed to whatever needs it; it is
// a cache of the persisted session kept by the session manager.
//
// States move Uninitialized -> Loading -> Authenticated or Anonymous, and
// then between Authenticated and Anonymous for the life of the process.
//
// When the HTTP client sees a 401 it calls Invalidate, which clears the
// persisted session and emits EventSessionInvalidated. The in-memory state is
// deliberately left alone: it only catches up on the next Reload or SignOut.
// Subscribers that want to react immediately listen for the event.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/internal/metrics"
	"github.com/dangquan18/subme/internal/session"
	"github.com/dangquan18/subme/internal/token"
	"github.com/dangquan18/subme/models"
)

var (
	// ErrDisposed is returned by every operation after Dispose
	ErrDisposed = errors.New("session provider disposed")
	// ErrNotAuthenticated is returned when an operation needs a signed-in user
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrTokenExpired is returned when the backend issues a token that has
	// already expired
	ErrTokenExpired = errors.New("issued token is already expired")
)

// State of the provider
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Snapshot is a point-in-time copy of the provider state. User must not be
// trusted while Loading is true.
type Snapshot struct {
	State   State
	User    *models.User
	Loading bool
}

// EventKind distinguishes provider events
type EventKind int

const (
	// EventStateChanged fires after every state transition
	EventStateChanged EventKind = iota
	// EventSessionInvalidated fires when a 401 cleared the persisted session
	EventSessionInvalidated
)

func (k EventKind) String() string {
	if k == EventSessionInvalidated {
		return "session_invalidated"
	}
	return "state_changed"
}

// Event is delivered to subscribers
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}

// Authenticator issues tokens. *api.AuthService implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
}

// VendorProfiler fetches the signed-in vendor's record. *api.VendorService
// implements it.
type VendorProfiler interface {
	Profile(ctx context.Context) (*models.Vendor, error)
}

// Provider is the session context
type Provider struct {
	sessions *session.Manager
	auth     Authenticator
	vendors  VendorProfiler
	metrics  metrics.Recorder
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	user        *models.User
	initialized bool
	disposed    bool
	subs        map[int]func(Event)
	nextSub     int

	reloads singleflight.Group
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger sets the provider logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithMetrics sets where invalidations are counted
func WithMetrics(r metrics.Recorder) Option {
	return func(p *Provider) { p.metrics = r }
}

// NewProvider creates an uninitialized provider
func NewProvider(sessions *session.Manager, authn Authenticator, vendors VendorProfiler, opts ...Option) *Provider {
	p := &Provider{
		sessions: sessions,
		auth:     authn,
		vendors:  vendors,
		metrics:  metrics.Nop{},
		logger:   slog.Default(),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init loads the persisted session. Only the first call does anything.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrDisposed
	}
	if p.initialized {
		p.mu.Unlock()
		return nil
	}
	p.initialized = true
	p.mu.Unlock()

	p.transition(StateLoading, nil)

	user := p.restore(ctx)
	if user == nil {
		p.transition(StateAnonymous, nil)
		return nil
	}
	p.transition(StateAuthenticated, user)
	return nil
}

// restore returns the user of a valid persisted session, clearing storage
// when the session is missing or expired
func (p *Provider) restore(ctx context.Context) *models.User {
	if !p.sessions.IsSessionValid(ctx) {
		p.sessions.ClearAll(ctx)
		return nil
	}
	claims, err := p.sessions.Claims(ctx)
	if err != nil {
		p.sessions.ClearAll(ctx)
		return nil
	}

	if stored, ok := p.sessions.LoadUser(ctx); ok && stored.ID == claims.Subject {
		return stored
	}

	user := claims.User()
	p.sessions.SaveUser(ctx, user)
	return user
}

// SignIn logs in with email and password
func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if err := p.checkDisposed(); err != nil {
		return nil, err
	}
	resp, err := p.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, resp)
}

// SignUp registers an account and signs it in
func (p *Provider) SignUp(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := p.checkDisposed(); err != nil {
		return nil, err
	}
	resp, err := p.auth.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, resp)
}

// establish persists a freshly issued token and the user it describes, then
// moves to Authenticated. Vendors are enriched before the transition.
func (p *Provider) establish(ctx context.Context, resp *models.AuthResponse) (*models.User, error) {
	claims, err := token.Decode(resp.AccessToken)
	if err != nil {
		return nil, err
	}
	if token.IsExpired(claims) {
		return nil, ErrTokenExpired
	}

	p.sessions.SaveToken(ctx, resp.AccessToken)

	user := claims.User()
	user.Merge(resp.User)
	if user.IsVendor() {
		// Status must come from the backend, not from whatever the login
		// response happened to carry
		user.Status = ""
		if err := p.enrich(ctx, user); err != nil {
			return nil, err
		}
	}

	p.sessions.SaveUser(ctx, user)
	p.transition(StateAuthenticated, user)

	p.logger.Info("Signed in", "user_id", user.ID, "role", user.Role)
	return user.Clone(), nil
}

// enrich fills the vendor status from GET /vendor/profile. A 401 aborts.
// Any other failure is logged and leaves the status unconfirmed, which
// routes as pending.
func (p *Provider) enrich(ctx context.Context, user *models.User) error {
	v, err := p.vendors.Profile(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			return err
		}
		p.logger.Warn("Failed to fetch vendor profile, status unconfirmed",
			"user_id", user.ID,
			"error", err,
		)
		return nil
	}

	if v.Status != "" {
		user.Status = v.Status
	}
	if v.ID != "" {
		user.VendorID = v.ID
	}
	if v.BusinessName != "" {
		user.BusinessName = v.BusinessName
	}
	return nil
}

// Reload re-derives the user from the persisted token and re-enriches
// vendors. Concurrent calls share one flight.
func (p *Provider) Reload(ctx context.Context) (*models.User, error) {
	if err := p.checkDisposed(); err != nil {
		return nil, err
	}

	ch := p.reloads.DoChan("reload", func() (any, error) {
		return p.reload(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		user, _ := res.Val.(*models.User)
		return user.Clone(), nil
	}
}

func (p *Provider) reload(ctx context.Context) (*models.User, error) {
	if !p.sessions.IsSessionValid(ctx) {
		p.sessions.ClearAll(ctx)
		p.transition(StateAnonymous, nil)
		return nil, nil
	}
	claims, err := p.sessions.Claims(ctx)
	if err != nil {
		p.sessions.ClearAll(ctx)
		p.transition(StateAnonymous, nil)
		return nil, nil
	}

	user := claims.User()
	stored, hasStored := p.sessions.LoadUser(ctx)
	if hasStored && stored.ID == claims.Subject {
		user.Merge(stored)
	}

	if user.IsVendor() {
		if err := p.enrich(ctx, user); err != nil {
			// The 401 hook already cleared storage
			p.transition(StateAnonymous, nil)
			return nil, err
		}
	}

	p.sessions.SaveUser(ctx, user)
	p.transition(StateAuthenticated, user)
	return user, nil
}

// SignOut clears the persisted session
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.checkDisposed(); err != nil {
		return err
	}
	p.sessions.ClearAll(ctx)
	p.transition(StateAnonymous, nil)
	p.logger.Info("Signed out")
	return nil
}

// Invalidate is the HTTP client's 401 hook. It clears the persisted session
// and notifies subscribers without changing the in-memory state.
func (p *Provider) Invalidate(ctx context.Context) {
	p.sessions.ClearAll(ctx)
	p.metrics.RecordSessionInvalidated()

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.emit(Event{Kind: EventSessionInvalidated, Snapshot: snap})
}

// Dispose drops all subscribers. Later operations return ErrDisposed.
func (p *Provider) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
	p.subs = nil
}

// Snapshot returns the current state
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// User returns the signed-in user or ErrNotAuthenticated
func (p *Provider) User() (*models.User, error) {
	snap := p.Snapshot()
	if snap.State != StateAuthenticated || snap.User == nil {
		return nil, ErrNotAuthenticated
	}
	return snap.User, nil
}

// Subscribe registers fn for every event. The returned func unsubscribes.
// fn runs on the goroutine that caused the event and must not block.
func (p *Provider) Subscribe(fn func(Event)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Provider) checkDisposed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrDisposed
	}
	return nil
}

func (p *Provider) snapshotLocked() Snapshot {
	return Snapshot{
		State:   p.state,
		User:    p.user.Clone(),
		Loading: p.state == StateLoading,
	}
}

func (p *Provider) transition(to State, user *models.User) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	from := p.state
	p.state = to
	p.user = user.Clone()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Debug("Session state changed", "from", from.String(), "to", to.String())
	p.emit(Event{Kind: EventStateChanged, Snapshot: snap})
}

func (p *Provider) emit(ev Event) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// String describes the snapshot for logs and whoami
func (s Snapshot) String() string {
	if s.User == nil {
		return s.State.String()
	}
	return fmt.Sprintf("%s as %s (%s)", s.State, s.User.Email, s.User.Role)
}
