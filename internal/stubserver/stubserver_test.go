package stubserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/services/categories"
	"github.com/hien-duc/spendwise-go/services/financial"
	"github.com/hien-duc/spendwise-go/services/profiles"
	"github.com/hien-duc/spendwise-go/services/reports"
	"github.com/hien-duc/spendwise-go/services/transactions"
	"github.com/hien-duc/spendwise-go/session"
	"github.com/hien-duc/spendwise-go/supabase"
	"github.com/hien-duc/spendwise-go/tokenstore"
	"github.com/hien-duc/spendwise-go/transport"
)

// client bundles the fully wired SDK pointed at a stub server.
type client struct {
	sessions     *session.Manager
	tokens       *tokenstore.MemoryStore
	categories   *categories.Service
	transactions *transactions.Service
	goals        *financial.GoalsService
	fixedCosts   *financial.FixedCostsService
	profiles     *profiles.Service
	reports      *reports.Service
}

func newClient(t *testing.T, server *Server) *client {
	t.Helper()
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	auth, err := supabase.New(supabase.Config{
		URL:         ts.URL,
		AnonKey:     "stub-anon-key",
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	})
	if err != nil {
		t.Fatalf("auth client: %v", err)
	}

	tokens := tokenstore.NewMemoryStore()
	sessions := session.NewManager(auth, tokens)
	t.Cleanup(sessions.Close)

	httpClient, err := transport.New(transport.Config{
		BaseURL:        ts.URL + "/api",
		RequestStages:  []transport.RequestStage{transport.BearerToken(tokens), transport.RequestID()},
		ResponseStages: []transport.ResponseStage{transport.AuthInvalidation(sessions, tokens)},
	})
	if err != nil {
		t.Fatalf("http client: %v", err)
	}

	return &client{
		sessions:     sessions,
		tokens:       tokens,
		categories:   categories.New(httpClient),
		transactions: transactions.New(httpClient),
		goals:        financial.NewGoals(httpClient),
		fixedCosts:   financial.NewFixedCosts(httpClient),
		profiles:     profiles.New(httpClient),
		reports:      reports.New(httpClient),
	}
}

func TestFullFlow(t *testing.T) {
	server := New(Options{AnonKey: "stub-anon-key"})
	server.Register("user@example.com", "hunter2")
	c := newClient(t, server)
	ctx := context.Background()

	// Unauthenticated calls are rejected by the backend.
	if _, err := c.categories.GetAll(ctx, ""); !errs.IsAuth(err) {
		t.Fatalf("unauthenticated list: err = %v, want AuthError", err)
	}

	sess, err := c.sessions.Login(ctx, "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}

	// Every new account starts with the seeded category set.
	cats, err := c.categories.GetAll(ctx, "")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("no seeded categories")
	}
	expense, err := c.categories.GetAll(ctx, categories.TypeExpense)
	if err != nil {
		t.Fatalf("list expense categories: %v", err)
	}
	for _, cat := range expense {
		if cat.Type != categories.TypeExpense {
			t.Errorf("category %q has type %q", cat.Name, cat.Type)
		}
	}

	created, err := c.transactions.Create(ctx, transactions.Input{
		CategoryID: expense[0].ID,
		Type:       categories.TypeExpense,
		Amount:     120,
		Date:       "2025-06-15",
		Note:       "groceries",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.ID == "" || created.UserID == "" {
		t.Fatalf("created transaction missing server fields: %+v", created)
	}

	listed, err := c.transactions.ListByMonth(ctx, 6, 2025)
	if err != nil {
		t.Fatalf("list by month: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}
	other, err := c.transactions.ListByMonth(ctx, 7, 2025)
	if err != nil {
		t.Fatalf("list other month: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("july should be empty, got %+v", other)
	}

	goal, err := c.goals.Create(ctx, financial.GoalInput{Name: "Emergency fund", TargetAmount: 5000})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if goal.Status != financial.GoalActive {
		t.Errorf("goal status = %q, want active", goal.Status)
	}
	active, err := c.goals.GetAll(ctx, financial.GoalActive)
	if err != nil {
		t.Fatalf("list active goals: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active goals = %+v", active)
	}

	fc, err := c.fixedCosts.Create(ctx, financial.FixedCostInput{Name: "Rent", Amount: 900, DueDay: 1})
	if err != nil {
		t.Fatalf("create fixed cost: %v", err)
	}
	if fc.ID == "" {
		t.Fatal("fixed cost missing id")
	}

	if err := c.profiles.SetInitialBalance(ctx, 1500); err != nil {
		t.Fatalf("set initial balance: %v", err)
	}
	balance, err := c.profiles.InitialBalance(ctx)
	if err != nil {
		t.Fatalf("get initial balance: %v", err)
	}
	if balance != 1500 {
		t.Errorf("balance = %v, want 1500", balance)
	}

	report, err := c.reports.Monthly(ctx, 6, 2025)
	if err != nil {
		t.Fatalf("monthly report: %v", err)
	}
	if report.TotalExpense != 120 {
		t.Errorf("total expense = %v, want 120", report.TotalExpense)
	}
	if len(report.Categories) != 1 || report.Categories[0].Percentage != 100 {
		t.Errorf("categories = %+v", report.Categories)
	}

	annual, err := c.reports.Annual(ctx, 2025)
	if err != nil {
		t.Fatalf("annual report: %v", err)
	}
	if len(annual.Months) != 1 || annual.Months[0].Month != 6 || annual.Months[0].Expense != 120 {
		t.Errorf("annual months = %+v", annual.Months)
	}
}

func TestRevokedTokenTearsDownSession(t *testing.T) {
	server := New(Options{AnonKey: "stub-anon-key"})
	server.Register("user@example.com", "hunter2")
	c := newClient(t, server)
	ctx := context.Background()

	sess, err := c.sessions.Login(ctx, "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	server.RevokeToken(sess.AccessToken)

	if _, err := c.categories.GetAll(ctx, ""); !errs.IsAuth(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if c.sessions.State() != session.StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", c.sessions.State())
	}
	if _, ok, err := c.tokens.Get(ctx); err != nil || ok {
		t.Errorf("token store not cleared (ok=%v err=%v)", ok, err)
	}
}

func TestBadCredentials(t *testing.T) {
	server := New(Options{AnonKey: "stub-anon-key"})
	server.Register("user@example.com", "hunter2")
	c := newClient(t, server)

	_, err := c.sessions.Login(context.Background(), "user@example.com", "wrong")
	if !errs.IsAuth(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if c.sessions.State() != session.StateUnauthenticated {
		t.Errorf("state = %v", c.sessions.State())
	}
}

func TestSignUpFlow(t *testing.T) {
	server := New(Options{AnonKey: "stub-anon-key"})
	c := newClient(t, server)
	ctx := context.Background()

	sess, err := c.sessions.SignUp(ctx, "new@example.com", "s3cret")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess.UserID == "" {
		t.Fatal("sign up returned no user id")
	}

	// Duplicate registration is rejected.
	if _, err := c.sessions.SignUp(ctx, "new@example.com", "s3cret"); !errs.IsAuth(err) {
		t.Fatalf("duplicate sign up: err = %v, want AuthError", err)
	}

	profile, err := c.profiles.Get(ctx)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Email != "new@example.com" {
		t.Errorf("profile email = %q", profile.Email)
	}
}

func TestSessionRestoreAcrossManagers(t *testing.T) {
	server := New(Options{AnonKey: "stub-anon-key"})
	server.Register("user@example.com", "hunter2")

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	newManager := func() *session.Manager {
		auth, err := supabase.New(supabase.Config{
			URL:         ts.URL,
			AnonKey:     "stub-anon-key",
			SessionPath: sessionPath,
		})
		if err != nil {
			t.Fatalf("auth client: %v", err)
		}
		mgr := session.NewManager(auth, tokenstore.NewMemoryStore())
		t.Cleanup(mgr.Close)
		return mgr
	}

	first := newManager()
	if _, err := first.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh manager sharing the session file restores the session.
	second := newManager()
	if got := second.CheckStatus(context.Background()); got != session.StateAuthenticated {
		t.Fatalf("restored state = %v, want authenticated", got)
	}
	if second.Current() == nil || second.Current().UserID == "" {
		t.Fatal("restored session missing user")
	}
}
