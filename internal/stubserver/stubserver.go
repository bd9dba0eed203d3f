// Package stubserver is an in-memory SpendWise backend for local development
// and integration tests. It speaks both surfaces the client consumes: the
// GoTrue auth endpoints under /auth/v1 and the resource API under /api, with
// the same per-resource envelope quirks as the production backend.
package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/services/categories"
	"github.com/hien-duc/spendwise-go/services/financial"
	"github.com/hien-duc/spendwise-go/services/profiles"
	"github.com/hien-duc/spendwise-go/services/transactions"
)

// Options configures the stub server.
type Options struct {
	// AnonKey, when set, is required as the apikey header on auth calls.
	AnonKey string
	// TokenTTL is the lifetime of issued access tokens. Zero means one hour.
	TokenTTL time.Duration
	// Logger defaults to a no-op logger.
	Logger *logger.Logger
}

// Server is the in-memory backend. It implements http.Handler.
type Server struct {
	opts   Options
	router chi.Router
	log    *logger.Logger

	mu      sync.Mutex
	users   map[string]*user  // keyed by email
	byID    map[string]*user  // keyed by user id
	access  map[string]string // access token -> user id
	refresh map[string]string // refresh token -> user id
}

type user struct {
	id       string
	email    string
	password string

	profile          profiles.Profile
	categories       map[string]*categories.Category
	transactions     map[string]*transactions.Transaction
	goals            map[string]*financial.Goal
	fixedCosts       map[string]*financial.FixedCost
	fixedInvestments map[string]*financial.FixedInvestment
	periodicIncome   map[string]*financial.PeriodicIncome
}

// New creates a stub server.
func New(opts Options) *Server {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		opts:    opts,
		log:     log.Component("stubserver"),
		users:   map[string]*user{},
		byID:    map[string]*user{},
		access:  map[string]string{},
		refresh: map[string]string{},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/token", s.handleToken)
		r.Post("/signup", s.handleSignup)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireBearer)

		r.Get("/categories", s.listCategories)
		r.Post("/categories", s.createCategory)
		r.Get("/categories/{id}", s.getCategory)
		r.Put("/categories/{id}", s.updateCategory)
		r.Delete("/categories/{id}", s.deleteCategory)

		r.Get("/transactions", s.listTransactions)
		r.Post("/transactions", s.createTransaction)
		r.Get("/transactions/{id}", s.getTransaction)
		r.Put("/transactions/{id}", s.updateTransaction)
		r.Delete("/transactions/{id}", s.deleteTransaction)

		r.Route("/financial", func(r chi.Router) {
			r.Get("/financial-goals", s.listGoals)
			r.Post("/financial-goals", s.createGoal)
			r.Get("/financial-goals/{id}", s.getGoal)
			r.Put("/financial-goals/{id}", s.updateGoal)
			r.Delete("/financial-goals/{id}", s.deleteGoal)

			r.Get("/fixed-costs", s.listFixedCosts)
			r.Post("/fixed-costs", s.createFixedCost)
			r.Delete("/fixed-costs/{id}", s.deleteFixedCost)

			r.Get("/fixed-investments", s.listFixedInvestments)
			r.Post("/fixed-investments", s.createFixedInvestment)
			r.Delete("/fixed-investments/{id}", s.deleteFixedInvestment)

			r.Get("/periodic-income", s.listPeriodicIncome)
			r.Post("/periodic-income", s.createPeriodicIncome)
			r.Delete("/periodic-income/{id}", s.deletePeriodicIncome)
		})

		r.Get("/profiles", s.getProfile)
		r.Put("/profiles", s.updateProfile)
		r.Get("/profiles/initial-balance", s.getInitialBalance)
		r.Put("/profiles/initial-balance", s.setInitialBalance)

		r.Get("/reports/monthly", s.monthlyReport)
		r.Get("/reports/annual", s.annualReport)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Register creates a user directly, bypassing the signup endpoint. It returns
// the user id. Intended for test seeding.
func (s *Server) Register(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(email, password).id
}

func (s *Server) registerLocked(email, password string) *user {
	u := &user{
		id:       uuid.NewString(),
		email:    email,
		password: password,
		profile: profiles.Profile{
			Email:     email,
			Currency:  "VND",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		categories:       map[string]*categories.Category{},
		transactions:     map[string]*transactions.Transaction{},
		goals:            map[string]*financial.Goal{},
		fixedCosts:       map[string]*financial.FixedCost{},
		fixedInvestments: map[string]*financial.FixedInvestment{},
		periodicIncome:   map[string]*financial.PeriodicIncome{},
	}
	u.profile.ID = u.id
	s.seedCategoriesLocked(u)
	s.users[email] = u
	s.byID[u.id] = u
	return u
}

// seedCategoriesLocked mirrors the default category set every new account
// starts with.
func (s *Server) seedCategoriesLocked(u *user) {
	defaults := []categories.Category{
		{Name: "Salary", Type: categories.TypeIncome, Icon: "cash"},
		{Name: "Food", Type: categories.TypeExpense, Icon: "food"},
		{Name: "Transport", Type: categories.TypeExpense, Icon: "bus"},
		{Name: "Stocks", Type: categories.TypeInvestment, Icon: "chart-line"},
	}
	for _, c := range defaults {
		c.ID = uuid.NewString()
		c.UserID = u.id
		cp := c
		u.categories[c.ID] = &cp
	}
}

// =============================================================================
// Auth endpoints
// =============================================================================

type credentials struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.checkAPIKey(w, r) {
		return
	}
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		authFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch r.URL.Query().Get("grant_type") {
	case "password":
		s.mu.Lock()
		u, ok := s.users[creds.Email]
		if !ok || u.password != creds.Password {
			s.mu.Unlock()
			authFail(w, http.StatusBadRequest, "Invalid login credentials")
			return
		}
		resp := s.issueLocked(u)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)

	case "refresh_token":
		s.mu.Lock()
		userID, ok := s.refresh[creds.RefreshToken]
		if !ok {
			s.mu.Unlock()
			authFail(w, http.StatusBadRequest, "Invalid Refresh Token")
			return
		}
		delete(s.refresh, creds.RefreshToken)
		resp := s.issueLocked(s.byID[userID])
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)

	default:
		authFail(w, http.StatusBadRequest, "unsupported grant type")
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.checkAPIKey(w, r) {
		return
	}
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		authFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		authFail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[creds.Email]; exists {
		s.mu.Unlock()
		authFail(w, http.StatusUnprocessableEntity, "User already registered")
		return
	}
	u := s.registerLocked(creds.Email, creds.Password)
	resp := s.issueLocked(u)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s.mu.Lock()
	delete(s.access, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         userInfo `json:"user"`
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) issueLocked(u *user) tokenResponse {
	access := "stub_" + uuid.NewString()
	refresh := "ref_" + uuid.NewString()
	s.access[access] = u.id
	s.refresh[refresh] = u.id

	ttl := s.opts.TokenTTL
	return tokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    int(ttl.Seconds()),
		ExpiresAt:    time.Now().Add(ttl).Unix(),
		RefreshToken: refresh,
		User:         userInfo{ID: u.id, Email: u.email},
	}
}

func (s *Server) checkAPIKey(w http.ResponseWriter, r *http.Request) bool {
	if s.opts.AnonKey == "" || r.Header.Get("apikey") == s.opts.AnonKey {
		return true
	}
	authFail(w, http.StatusUnauthorized, "No API key found in request")
	return false
}

func authFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error_description": msg})
}

// =============================================================================
// Bearer middleware
// =============================================================================

// RevokeToken drops an access token, making later calls with it fail with
// 401. Intended for tests simulating token expiry.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.access, token)
	s.mu.Unlock()
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		s.mu.Lock()
		userID, ok := s.access[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (s *Server) currentUser(r *http.Request) *user {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[userIDFrom(r.Context())]
}

// =============================================================================
// JSON helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData wraps the payload in the data envelope used by the /financial
// resources.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

func notFound(w http.ResponseWriter, resource string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": fmt.Sprintf("%s not found", resource)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"message": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0, false
	}
	return v, true
}
