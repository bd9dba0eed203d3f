package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.New(transport.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(client)
}

func TestGet(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"user_1","email":"user@example.com","currency":"VND","initial_balance":1000}`))
	})

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "user_1" || got.InitialBalance != 1000 {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetNullIsShapeError(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	_, err := svc.Get(context.Background())
	var shape *errs.ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("err = %v, want ShapeError", err)
	}
}

func TestUpdateValidates(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	if _, err := svc.Update(context.Background(), Input{}); !errs.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestInitialBalance(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles/initial-balance" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"initial_balance":2500.5}`))
	})

	got, err := svc.InitialBalance(context.Background())
	if err != nil {
		t.Fatalf("initial balance: %v", err)
	}
	if got != 2500.5 {
		t.Errorf("got = %v, want 2500.5", got)
	}
}

func TestInitialBalanceMissingFieldIsShapeError(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := svc.InitialBalance(context.Background())
	var shape *errs.ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("err = %v, want ShapeError", err)
	}
}

func TestSetInitialBalance(t *testing.T) {
	var gotMethod string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Write([]byte(`{"initial_balance":100}`))
	})

	if err := svc.SetInitialBalance(context.Background(), 100); err != nil {
		t.Fatalf("set: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
}
