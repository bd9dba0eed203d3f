// Package supabase implements the session.Provider contract against a
// Supabase GoTrue auth endpoint. The restorable session is persisted to disk
// the same way the mobile client persists it to device storage.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/session"
)

// Config holds auth client configuration.
type Config struct {
	// URL is the Supabase project URL.
	URL string
	// AnonKey is the project's anon API key, sent as the apikey header.
	AnonKey string
	// SessionPath is where the restorable session is persisted. Empty
	// disables persistence (sessions then live only in process).
	SessionPath string
	// HTTPClient defaults to a 30s-timeout client.
	HTTPClient *http.Client
	// Logger defaults to a no-op logger.
	Logger *logger.Logger
}

// Auth is a GoTrue auth client implementing session.Provider.
type Auth struct {
	baseURL     string
	anonKey     string
	sessionPath string
	httpClient  *http.Client
	log         *logger.Logger
}

// New creates an auth client.
func New(cfg Config) (*Auth, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("AnonKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Auth{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		sessionPath: cfg.SessionPath,
		httpClient:  httpClient,
		log:         log.Component("supabase"),
	}, nil
}

// =============================================================================
// session.Provider
// =============================================================================

// SignInWithPassword exchanges credentials for a session.
func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := a.post(ctx, "/auth/v1/token?grant_type=password", body, "")
	if err != nil {
		return nil, err
	}
	return a.persistResponse(resp)
}

// SignUp registers a new user.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*session.Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := a.post(ctx, "/auth/v1/signup", body, "")
	if err != nil {
		return nil, err
	}
	return a.persistResponse(resp)
}

// SignOut revokes the session remotely and drops the persisted copy. The
// persisted copy is removed even when the remote call fails.
func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.post(ctx, "/auth/v1/logout", nil, accessToken)
	if removeErr := a.removePersisted(); removeErr != nil {
		a.log.Warn().Err(removeErr).Msg("failed to remove persisted session")
	}
	return err
}

// GetSession restores the persisted session. An expired session is refreshed
// before being returned; an unrefreshable one counts as absent.
func (a *Auth) GetSession(ctx context.Context) (*session.Session, error) {
	stored, err := a.loadPersisted()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	sess := stored.toSession()
	if !sess.ExpiresAt.IsZero() && time.Until(sess.ExpiresAt) < time.Minute {
		if sess.RefreshToken == "" {
			a.removePersisted()
			return nil, nil
		}
		refreshed, err := a.RefreshSession(ctx, sess.RefreshToken)
		if err != nil {
			a.removePersisted()
			return nil, nil
		}
		return refreshed, nil
	}
	return sess, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := a.post(ctx, "/auth/v1/token?grant_type=refresh_token", body, "")
	if err != nil {
		return nil, err
	}
	return a.persistResponse(resp)
}

// =============================================================================
// Wire types
// =============================================================================

type authResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *authUser `json:"user"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authError struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (r *authResponse) toSession() *session.Session {
	sess := &session.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.User != nil {
		sess.UserID = r.User.ID
		sess.Email = r.User.Email
	}

	switch {
	case r.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		sess.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	default:
		sess.ExpiresAt = tokenExpiry(r.AccessToken)
	}
	if sess.UserID == "" {
		sess.UserID = tokenSubject(r.AccessToken)
	}
	return sess
}

// tokenExpiry pulls the exp claim out of the access token without verifying
// the signature; the backend, not this client, is the verifier.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func tokenSubject(accessToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// =============================================================================
// HTTP plumbing
// =============================================================================

func (a *Auth) post(ctx context.Context, path string, body any, accessToken string) (*authResponse, error) {
	reqURL := a.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &errs.NetworkError{URL: reqURL, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &errs.AuthError{Reason: authFailureReason(data, resp.StatusCode)}
	}
	if len(data) == 0 {
		return &authResponse{}, nil
	}

	var parsed authResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &errs.ShapeError{Endpoint: path, Reason: "auth response is not valid JSON"}
	}
	return &parsed, nil
}

func authFailureReason(body []byte, status int) string {
	var parsed authError
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.ErrorDescription != "":
			return parsed.ErrorDescription
		case parsed.Message != "":
			return parsed.Message
		case parsed.Error != "":
			return parsed.Error
		}
	}
	return fmt.Sprintf("auth request failed with status %d", status)
}

// persistResponse stores the raw auth response and returns it as a session.
// A session that never got a token is a contract violation, not a login.
func (a *Auth) persistResponse(resp *authResponse) (*session.Session, error) {
	if resp.AccessToken == "" {
		return nil, &errs.ShapeError{Endpoint: "/auth/v1", Reason: "auth response missing access_token"}
	}
	if a.sessionPath != "" {
		if err := a.writePersisted(resp); err != nil {
			a.log.Warn().Err(err).Msg("failed to persist session")
		}
	}
	return resp.toSession(), nil
}

func (a *Auth) writePersisted(resp *authResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.sessionPath), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(a.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (a *Auth) loadPersisted() (*authResponse, error) {
	if a.sessionPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(a.sessionPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.StorageError{Op: "read session", Err: err}
	}
	var parsed authResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		// A corrupt session file counts as no session.
		a.removePersisted()
		return nil, nil
	}
	return &parsed, nil
}

func (a *Auth) removePersisted() error {
	if a.sessionPath == "" {
		return nil
	}
	err := os.Remove(a.sessionPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
