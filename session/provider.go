package session

import "context"

// Provider is the backing auth provider (Supabase GoTrue in production).
// The manager treats it as an opaque capability; token issuance and
// persistence of the restorable session are the provider's concern.
type Provider interface {
	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp registers a new user and returns its session.
	SignUp(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes the session remotely. A remote failure must not
	// prevent local logout.
	SignOut(ctx context.Context, accessToken string) error
	// GetSession restores a previously established session. Returns
	// (nil, nil) when there is none.
	GetSession(ctx context.Context) (*Session, error)
	// RefreshSession exchanges a refresh token for a fresh session.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}
