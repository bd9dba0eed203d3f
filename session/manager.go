package session

import (
	"context"
	"sync"
	"time"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/tokenstore"
)

const refreshTimeout = 30 * time.Second

// Listener observes settled session transitions. Callbacks run outside the
// manager's lock, after the transition and its token-store write completed.
type Listener func(State, *Session)

// Manager is the single owner of the session state machine. Every transition,
// whether caller-initiated (Login, Logout, CheckStatus) or externally driven
// (401 invalidation, background refresh), funnels through the same serialized
// path and updates the token store inside the same critical section.
type Manager struct {
	provider Provider
	tokens   tokenstore.Store
	log      *logger.Logger

	refreshLeeway time.Duration
	now           func() time.Time

	mu           sync.Mutex
	state        State
	current      *Session
	subs         map[int]Listener
	nextSubID    int
	refreshTimer *time.Timer
	closed       bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l.Component("session") }
}

// WithRefreshLeeway sets how long before token expiry the background refresh
// fires. Zero disables the leeway, not the refresh.
func WithRefreshLeeway(d time.Duration) Option {
	return func(m *Manager) { m.refreshLeeway = d }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager in StateUnknown.
func NewManager(provider Provider, tokens tokenstore.Store, opts ...Option) *Manager {
	m := &Manager{
		provider:      provider,
		tokens:        tokens,
		log:           logger.Nop(),
		refreshLeeway: time.Minute,
		now:           time.Now,
		state:         StateUnknown,
		subs:          make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a live session exists.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Current returns a copy of the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Subscribe registers a listener for settled transitions and returns a cancel
// function. Listeners registered after a transition see only later ones.
func (m *Manager) Subscribe(fn Listener) (cancel func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// CheckStatus asks the provider for an existing session and settles into a
// definite state. It never returns an error: provider failures map to
// StateUnauthenticated.
func (m *Manager) CheckStatus(ctx context.Context) State {
	m.mu.Lock()

	sess, err := m.provider.GetSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed")
	}
	if err != nil || sess == nil || sess.AccessToken == "" {
		m.becomeUnauthenticatedLocked(ctx)
		return m.settleAndNotify()
	}

	if err := m.becomeAuthenticatedLocked(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("token store write failed during restore")
		m.becomeUnauthenticatedLocked(ctx)
	}
	return m.settleAndNotify()
}

// Login authenticates with the provider. On success the token store holds the
// new access token before Login returns. On failure the manager is
// Unauthenticated and the error is an *errs.AuthError (provider rejection) or
// *errs.StorageError (token could not be persisted).
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, &errs.ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return nil, &errs.ValidationError{Field: "password", Reason: "required"}
	}
	return m.authenticate(ctx, func(ctx context.Context) (*Session, error) {
		return m.provider.SignInWithPassword(ctx, email, password)
	})
}

// SignUp registers a new user. Semantics mirror Login.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, &errs.ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return nil, &errs.ValidationError{Field: "password", Reason: "required"}
	}
	return m.authenticate(ctx, func(ctx context.Context) (*Session, error) {
		return m.provider.SignUp(ctx, email, password)
	})
}

func (m *Manager) authenticate(ctx context.Context, fn func(context.Context) (*Session, error)) (*Session, error) {
	m.mu.Lock()

	sess, err := fn(ctx)
	if err != nil {
		m.becomeUnauthenticatedLocked(ctx)
		m.settleAndNotify()
		if errs.IsAuth(err) {
			return nil, err
		}
		return nil, &errs.AuthError{Reason: "sign-in failed", Err: err}
	}

	if err := m.becomeAuthenticatedLocked(ctx, sess); err != nil {
		m.becomeUnauthenticatedLocked(ctx)
		m.settleAndNotify()
		return nil, err
	}
	m.settleAndNotify()
	return sess.Clone(), nil
}

// Logout signs out remotely on a best-effort basis, then unconditionally
// moves to Unauthenticated and clears the token store. Local state is never
// left authenticated after Logout, even when the remote call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()

	if m.current != nil {
		if err := m.provider.SignOut(ctx, m.current.AccessToken); err != nil {
			m.log.Warn().Err(err).Msg("remote sign-out failed, clearing local session anyway")
		}
	}
	err := m.becomeUnauthenticatedLocked(ctx)
	m.settleAndNotify()
	return err
}

// Invalidate handles an authentication rejection observed by the transport
// layer. token is the store's current token at the time the 401 was seen; if
// the live session no longer matches (already logged out, or re-authenticated
// since), the call is a no-op so sibling in-flight 401s do not surface
// duplicate invalidations.
func (m *Manager) Invalidate(ctx context.Context, token string) {
	m.mu.Lock()

	if m.state != StateAuthenticated || m.current == nil ||
		(token != "" && m.current.AccessToken != token) {
		m.mu.Unlock()
		return
	}
	m.log.Info().Msg("session rejected by backend, signing out locally")
	m.becomeUnauthenticatedLocked(ctx)
	m.settleAndNotify()
}

// HandleAuthChange applies an externally observed auth-state change, such as
// a token refreshed elsewhere or a remote sign-out. A nil session means
// signed out. The transition logic is the same one Login and Logout use.
func (m *Manager) HandleAuthChange(ctx context.Context, sess *Session) {
	m.mu.Lock()

	if sess == nil || sess.AccessToken == "" {
		m.becomeUnauthenticatedLocked(ctx)
		m.settleAndNotify()
		return
	}
	if err := m.becomeAuthenticatedLocked(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("token store write failed during auth change")
		m.becomeUnauthenticatedLocked(ctx)
	}
	m.settleAndNotify()
}

// Close stops the background refresh timer. The manager must not be used
// after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopRefreshLocked()
}

// =============================================================================
// Transitions (mu held)
// =============================================================================

func (m *Manager) becomeAuthenticatedLocked(ctx context.Context, sess *Session) error {
	if err := m.tokens.Set(ctx, sess.AccessToken); err != nil {
		return err
	}
	m.state = StateAuthenticated
	m.current = sess.Clone()
	m.scheduleRefreshLocked()
	return nil
}

func (m *Manager) becomeUnauthenticatedLocked(ctx context.Context) error {
	m.state = StateUnauthenticated
	m.current = nil
	m.stopRefreshLocked()
	if err := m.tokens.Clear(ctx); err != nil {
		m.log.Error().Err(err).Msg("token store clear failed")
		return err
	}
	return nil
}

// settleAndNotify snapshots the settled state, releases the lock, and runs
// listeners. Listeners therefore always observe a state consistent with the
// token store.
func (m *Manager) settleAndNotify() State {
	state := m.state
	sess := m.current.Clone()
	listeners := make([]Listener, 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(state, sess)
	}
	return state
}

// =============================================================================
// Background refresh
// =============================================================================

func (m *Manager) scheduleRefreshLocked() {
	m.stopRefreshLocked()
	if m.closed || m.current == nil || m.current.RefreshToken == "" || m.current.ExpiresAt.IsZero() {
		return
	}
	d := m.current.ExpiresAt.Sub(m.now()) - m.refreshLeeway
	if d < 0 {
		d = 0
	}
	refreshToken := m.current.RefreshToken
	m.refreshTimer = time.AfterFunc(d, func() { m.refresh(refreshToken) })
}

func (m *Manager) stopRefreshLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// refresh runs off the timer goroutine. It only applies its outcome while the
// session it was scheduled for is still live; a logout or re-login that raced
// the timer wins.
func (m *Manager) refresh(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	sess, err := m.provider.RefreshSession(ctx, refreshToken)

	m.mu.Lock()
	if m.state != StateAuthenticated || m.current == nil || m.current.RefreshToken != refreshToken {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("background token refresh failed, signing out")
		m.becomeUnauthenticatedLocked(ctx)
		m.settleAndNotify()
		return
	}
	if err := m.becomeAuthenticatedLocked(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("token store write failed during refresh")
		m.becomeUnauthenticatedLocked(ctx)
	}
	m.settleAndNotify()
}
