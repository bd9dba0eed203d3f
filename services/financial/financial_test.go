package financial

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

func newClient(t *testing.T, handler http.HandlerFunc) *transport.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.New(transport.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGoalsServerSideFilter(t *testing.T) {
	var gotQuery string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":"g1","name":"Vacation","target_amount":5000,"status":"active"}]}`))
	})
	svc := NewGoals(client)

	got, err := svc.GetAll(context.Background(), GoalActive)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	// Goals filter server-side, unlike categories.
	if gotQuery != "status=active" {
		t.Errorf("query = %q, want status=active", gotQuery)
	}
	if len(got) != 1 || got[0].ID != "g1" {
		t.Fatalf("got = %+v", got)
	}
}

func TestGoalsRejectsUnknownStatus(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	if _, err := NewGoals(client).GetAll(context.Background(), "paused"); !errs.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestGoalsDeleteRequiresID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	if err := NewGoals(client).Delete(context.Background(), ""); !errs.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestFixedCostCreateUnwrapsEnvelope(t *testing.T) {
	// The /financial endpoints wrap records in {"data": ...}; the caller
	// receives the inner record.
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in FixedCostInput
		json.NewDecoder(r.Body).Decode(&in)
		w.Write([]byte(`{"data":{"id":"fc_1","name":"` + in.Name + `","amount":900,"due_day":1}}`))
	})
	svc := NewFixedCosts(client)

	got, err := svc.Create(context.Background(), FixedCostInput{Name: "Rent", Amount: 900, DueDay: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "fc_1" || got.Name != "Rent" {
		t.Fatalf("got = %+v, want inner record fc_1", got)
	}
}

func TestEnvelopeMissingDataIsShapeError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})
	_, err := NewFixedCosts(client).GetByID(context.Background(), "fc_1")
	var shape *errs.ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("err = %v, want ShapeError", err)
	}
}

func TestEnvelopeNullListIsEmpty(t *testing.T) {
	for _, body := range []string{`{"data":null}`, `{"data":[]}`, `null`} {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		got, err := NewFixedInvestments(client).GetAll(context.Background())
		if err != nil {
			t.Fatalf("body %s: %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("body %s: got = %v, want empty slice", body, got)
		}
	}
}

func TestFixedCostValidation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	svc := NewFixedCosts(client)

	cases := []FixedCostInput{
		{Amount: 900, DueDay: 1},              // no name
		{Name: "Rent", Amount: 0, DueDay: 1},  // zero amount
		{Name: "Rent", Amount: 900, DueDay: 0},  // bad day
		{Name: "Rent", Amount: 900, DueDay: 32}, // bad day
	}
	for i, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errs.IsValidation(err) {
			t.Errorf("case %d: err = %v, want ValidationError", i, err)
		}
	}
}

func TestFixedInvestmentValidation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	svc := NewFixedInvestments(client)

	if _, err := svc.Create(context.Background(), FixedInvestmentInput{Name: "ETF", Amount: 100, Frequency: "weekly"}); !errs.IsValidation(err) {
		t.Errorf("bad frequency: err = %v", err)
	}
}

func TestPeriodicIncomeRoundTrip(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"data":{"id":"pi_1","name":"Salary","amount":3000,"pay_day":25,"frequency":"monthly"}}`))
		default:
			w.Write([]byte(`{"data":[{"id":"pi_1","name":"Salary","amount":3000,"pay_day":25,"frequency":"monthly"}]}`))
		}
	})
	svc := NewPeriodicIncome(client)

	created, err := svc.Create(context.Background(), PeriodicIncomeInput{
		Name: "Salary", Amount: 3000, PayDay: 25, Frequency: FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "pi_1" {
		t.Errorf("ID = %q", created.ID)
	}

	list, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
}
