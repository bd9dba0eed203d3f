package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/tokenstore"
)

type recordingInvalidator struct {
	mu     sync.Mutex
	tokens []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tokens...)
}

func newTestClient(t *testing.T, serverURL string, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = serverURL
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore()
	store.Set(context.Background(), "tok_abc")

	client := newTestClient(t, server.URL, Config{
		RequestStages: []RequestStage{BearerToken(store)},
	})

	if _, err := client.Get(context.Background(), "/categories", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok_abc" {
		t.Errorf("Authorization = %q, want Bearer tok_abc", gotAuth)
	}
}

func TestEmptyStoreSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, Config{
		RequestStages: []RequestStage{BearerToken(tokenstore.NewMemoryStore())},
	})

	if _, err := client.Get(context.Background(), "/categories", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want unauthenticated request", gotAuth)
	}
}

func TestStorageFailureAbortsRequest(t *testing.T) {
	served := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = true
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore()
	store.FailNext = &errs.StorageError{Op: "read token", Err: errors.New("keychain locked")}

	client := newTestClient(t, server.URL, Config{
		RequestStages: []RequestStage{BearerToken(store)},
	})

	_, err := client.Get(context.Background(), "/categories", nil)
	if !errs.IsStorage(err) {
		t.Fatalf("err = %v, want StorageError", err)
	}
	if served {
		t.Error("request was sent despite storage failure")
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore()
	store.Set(context.Background(), "tok_abc")
	invalidator := &recordingInvalidator{}

	client := newTestClient(t, server.URL, Config{
		RequestStages:  []RequestStage{BearerToken(store)},
		ResponseStages: []ResponseStage{AuthInvalidation(invalidator, store)},
	})

	_, err := client.Get(context.Background(), "/transactions", nil)
	if !errs.IsAuth(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	calls := invalidator.calls()
	if len(calls) != 1 || calls[0] != "tok_abc" {
		t.Fatalf("invalidator calls = %v, want [tok_abc]", calls)
	}
}

func TestUnauthorizedAfterLogoutSkipsInvalidation(t *testing.T) {
	// A 401 arriving when the store is already empty means a sibling request
	// already tore the session down; no duplicate invalidation.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore()
	invalidator := &recordingInvalidator{}

	client := newTestClient(t, server.URL, Config{
		ResponseStages: []ResponseStage{AuthInvalidation(invalidator, store)},
	})

	_, err := client.Get(context.Background(), "/transactions", nil)
	if !errs.IsAuth(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if calls := invalidator.calls(); len(calls) != 0 {
		t.Fatalf("invalidator calls = %v, want none", calls)
	}
}

func TestNonAuthErrorsPassThrough(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		store := tokenstore.NewMemoryStore()
		store.Set(context.Background(), "tok_abc")
		invalidator := &recordingInvalidator{}

		client := newTestClient(t, server.URL, Config{
			ResponseStages: []ResponseStage{AuthInvalidation(invalidator, store)},
		})

		_, err := client.Get(context.Background(), "/x", nil)
		if got := errs.HTTPStatus(err); got != status {
			t.Errorf("status %d: HTTPStatus(err) = %d, err = %v", status, got, err)
		}
		if len(invalidator.calls()) != 0 {
			t.Errorf("status %d mutated session state", status)
		}
		if ok, _, _ := storeState(store); !ok {
			t.Errorf("status %d cleared the token store", status)
		}
		server.Close()
	}
}

func storeState(store tokenstore.Store) (bool, string, error) {
	token, ok, err := store.Get(context.Background())
	return ok, token, err
}

func TestNetworkFailure(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Get(context.Background(), "/categories", nil)
	if !errs.IsNetwork(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, Config{})

	_, err := client.Do(context.Background(), Descriptor{
		Method:  http.MethodGet,
		Path:    "/slow",
		Timeout: 50 * time.Millisecond,
	})
	if !errs.IsNetwork(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestAllowStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, Config{})

	resp, err := client.Do(context.Background(), Descriptor{
		Method:        http.MethodGet,
		Path:          "/maybe-missing",
		AllowStatuses: []int{http.StatusNotFound},
	})
	if err != nil {
		t.Fatalf("err = %v, want suppressed 404", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
}

func TestQueryParameters(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, Config{})

	query := url.Values{"type": {"expense"}, "year": {"2026"}}
	if _, err := client.Get(context.Background(), "/categories", query); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotQuery.Get("type") != "expense" || gotQuery.Get("year") != "2026" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestRequestIDStage(t *testing.T) {
	ids := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[r.Header.Get("X-Request-ID")] = true
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, Config{
		RequestStages: []RequestStage{RequestID()},
	})

	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/x", nil); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if len(ids) != 3 || ids[""] {
		t.Errorf("request ids = %v, want 3 distinct non-empty ids", ids)
	}
}

func TestThrottleStage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	// 1 request immediately, then ~20/s.
	client := newTestClient(t, server.URL, Config{
		RequestStages: []RequestStage{Throttle(rate.NewLimiter(20, 1))},
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/x", nil); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests took %v, want throttling to spread them", elapsed)
	}
}

func TestMetricsStage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	metrics := NewMetrics()
	client := newTestClient(t, server.URL, Config{
		ResponseStages: []ResponseStage{metrics.Stage()},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Get(context.Background(), "/categories", nil); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	got := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/categories", "200"))
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing BaseURL")
	}
}
