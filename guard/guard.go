// Package guard gates actions behind an authenticated session. Callers hand
// it an action; the guard runs the action only once the session manager
// reports an authenticated state, and applies a caller-chosen policy when it
// does not.
package guard

import (
	"context"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/session"
)

// Sessions is the slice of the session manager the guard consumes.
type Sessions interface {
	State() session.State
	Subscribe(fn session.Listener) (cancel func())
}

// Policy controls what happens when the session is not authenticated.
type Policy struct {
	// PromptOnUnauthenticated runs the guard's prompt hook before failing.
	PromptOnUnauthenticated bool
	// Redirect runs the guard's redirect hook before failing.
	Redirect bool
}

// Action is the work to run once authenticated.
type Action func(ctx context.Context) error

// ErrNotAuthenticated is the failure returned when the guard blocks an
// action. It is an *errs.AuthError so callers branch on it like any other
// auth failure.
var ErrNotAuthenticated = &errs.AuthError{Reason: "not authenticated"}

// Guard decides whether an action may run.
type Guard struct {
	sessions Sessions
	prompt   func(ctx context.Context)
	redirect func(ctx context.Context)
	log      *logger.Logger
}

// Option customizes a Guard.
type Option func(*Guard)

// WithPrompt sets the hook run when Policy.PromptOnUnauthenticated applies.
func WithPrompt(fn func(ctx context.Context)) Option {
	return func(g *Guard) { g.prompt = fn }
}

// WithRedirect sets the hook run when Policy.Redirect applies.
func WithRedirect(fn func(ctx context.Context)) Option {
	return func(g *Guard) { g.redirect = fn }
}

// WithLogger sets the guard's logger.
func WithLogger(log *logger.Logger) Option {
	return func(g *Guard) { g.log = log }
}

// New creates a Guard watching the given session manager.
func New(sessions Sessions, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes action if and only if the session is authenticated. While the
// session state is still unknown (before the first status check settles) Run
// waits for a definite state rather than treating unknown as unauthenticated;
// the wait ends early if ctx is cancelled. When the settled state is
// unauthenticated the action is not invoked, the policy hooks fire, and
// ErrNotAuthenticated is returned.
func (g *Guard) Run(ctx context.Context, policy Policy, action Action) error {
	state := g.sessions.State()
	if state == session.StateUnknown {
		var err error
		state, err = g.awaitSettled(ctx)
		if err != nil {
			return err
		}
	}

	if state != session.StateAuthenticated {
		g.log.Debug().Str("state", state.String()).Msg("action blocked")
		if policy.PromptOnUnauthenticated && g.prompt != nil {
			g.prompt(ctx)
		}
		if policy.Redirect && g.redirect != nil {
			g.redirect(ctx)
		}
		return ErrNotAuthenticated
	}

	return action(ctx)
}

// awaitSettled blocks until the session manager leaves StateUnknown.
func (g *Guard) awaitSettled(ctx context.Context) (session.State, error) {
	settled := make(chan session.State, 1)
	cancel := g.sessions.Subscribe(func(state session.State, _ *session.Session) {
		select {
		case settled <- state:
		default:
		}
	})
	defer cancel()

	// The state may have settled between the initial read and the
	// subscription; re-check before blocking.
	if state := g.sessions.State(); state != session.StateUnknown {
		return state, nil
	}

	select {
	case state := <-settled:
		return state, nil
	case <-ctx.Done():
		return session.StateUnknown, ctx.Err()
	}
}
