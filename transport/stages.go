package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/tokenstore"
)

// BearerToken returns a request stage that reads the token store once per
// request and attaches the token as a bearer credential. An empty store sends
// the request unauthenticated; the server decides whether that is acceptable.
// A storage read failure aborts the request instead of silently sending it
// unauthenticated.
func BearerToken(store tokenstore.Store) RequestStage {
	return func(ctx context.Context, req *http.Request) error {
		token, ok, err := store.Get(ctx)
		if err != nil {
			return err
		}
		if ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// RequestID returns a request stage that tags each request with a unique id
// for log correlation.
func RequestID() RequestStage {
	return func(_ context.Context, req *http.Request) error {
		req.Header.Set("X-Request-ID", uuid.NewString())
		return nil
	}
}

// Throttle returns a request stage that rate-limits outgoing requests.
func Throttle(limiter *rate.Limiter) RequestStage {
	return func(ctx context.Context, req *http.Request) error {
		if err := limiter.Wait(ctx); err != nil {
			return &errs.NetworkError{URL: req.URL.String(), Err: err}
		}
		return nil
	}
}

// Invalidator tears down the live session. Implemented by session.Manager.
type Invalidator interface {
	Invalidate(ctx context.Context, token string)
}

// AuthInvalidation returns the response stage that handles auth expiry: on a
// 401 it consults the token store's current value (not one captured at
// request time) and, if a token is still present, signals the session manager
// to invalidate it. When the store is already empty a sibling request got
// here first and the 401 needs no further action. The stage only performs the
// side effect; Do re-raises the 401 as an AuthError regardless.
func AuthInvalidation(sessions Invalidator, store tokenstore.Store) ResponseStage {
	return func(ctx context.Context, resp *Response) error {
		if resp.StatusCode != http.StatusUnauthorized {
			return nil
		}
		token, ok, err := store.Get(ctx)
		if err != nil || !ok {
			return nil
		}
		sessions.Invalidate(ctx, token)
		return nil
	}
}

// Logging returns a response stage that records every resolved request.
func Logging(log *logger.Logger) ResponseStage {
	l := log.Component("http")
	return func(_ context.Context, resp *Response) error {
		evt := l.Debug()
		if resp.StatusCode >= 400 {
			evt = l.Warn()
		}
		evt.Str("method", resp.Method).
			Str("path", resp.Path).
			Int("status", resp.StatusCode).
			Dur("duration", resp.Duration).
			Msg("request completed")
		return nil
	}
}
