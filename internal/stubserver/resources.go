package stubserver

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hien-duc/spendwise-go/services/categories"
	"github.com/hien-duc/spendwise-go/services/financial"
	"github.com/hien-duc/spendwise-go/services/profiles"
	"github.com/hien-duc/spendwise-go/services/transactions"
)

type ctxKey int

const userIDKey ctxKey = iota

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// =============================================================================
// Categories (bare envelope)
// =============================================================================

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	out := make([]categories.Category, 0, len(u.categories))
	for _, c := range u.categories {
		out = append(out, *c)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in categories.Input
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" || in.Type == "" {
		badRequest(w, "name and type are required")
		return
	}
	rec := &categories.Category{
		ID:        uuid.NewString(),
		UserID:    u.id,
		Name:      in.Name,
		Type:      in.Type,
		Icon:      in.Icon,
		Color:     in.Color,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	u.categories[rec.ID] = rec
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	rec, ok := u.categories[chi.URLParam(r, "id")]
	var out categories.Category
	if ok {
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "category")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in categories.Input
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	rec, ok := u.categories[chi.URLParam(r, "id")]
	var out categories.Category
	if ok {
		rec.Name, rec.Type, rec.Icon, rec.Color = in.Name, in.Type, in.Icon, in.Color
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "category")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.categories, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Transactions (bare envelope)
// =============================================================================

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	month, hasMonth := queryInt(r, "month")
	year, hasYear := queryInt(r, "year")

	s.mu.Lock()
	out := make([]transactions.Transaction, 0, len(u.transactions))
	for _, t := range u.transactions {
		if hasMonth && hasYear {
			m, y, ok := transactionMonth(t.Date)
			if !ok || m != month || y != year {
				continue
			}
		}
		out = append(out, *t)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in transactions.Input
	if !decodeBody(w, r, &in) {
		return
	}
	if in.CategoryID == "" || in.Type == "" || in.Amount <= 0 || in.Date == "" {
		badRequest(w, "category_id, type, amount, and transaction_date are required")
		return
	}
	s.mu.Lock()
	if _, ok := u.categories[in.CategoryID]; !ok {
		s.mu.Unlock()
		badRequest(w, "unknown category")
		return
	}
	rec := &transactions.Transaction{
		ID:         uuid.NewString(),
		UserID:     u.id,
		CategoryID: in.CategoryID,
		Type:       in.Type,
		Amount:     in.Amount,
		Note:       in.Note,
		Date:       in.Date,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	u.transactions[rec.ID] = rec
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	rec, ok := u.transactions[chi.URLParam(r, "id")]
	var out transactions.Transaction
	if ok {
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "transaction")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in transactions.Input
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	rec, ok := u.transactions[chi.URLParam(r, "id")]
	var out transactions.Transaction
	if ok {
		rec.CategoryID, rec.Type, rec.Amount, rec.Note, rec.Date = in.CategoryID, in.Type, in.Amount, in.Note, in.Date
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "transaction")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.transactions, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Financial resources (data envelope)
// =============================================================================

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	out := make([]financial.Goal, 0, len(u.goals))
	for _, g := range u.goals {
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, *g)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in financial.GoalInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" || in.TargetAmount <= 0 {
		badRequest(w, "name and target_amount are required")
		return
	}
	status := in.Status
	if status == "" {
		status = financial.GoalActive
	}
	rec := &financial.Goal{
		ID:           uuid.NewString(),
		UserID:       u.id,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		TargetDate:   in.TargetDate,
		Status:       status,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	u.goals[rec.ID] = rec
	s.mu.Unlock()
	writeData(w, http.StatusCreated, rec)
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	rec, ok := u.goals[chi.URLParam(r, "id")]
	var out financial.Goal
	if ok {
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "financial goal")
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in financial.GoalInput
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	rec, ok := u.goals[chi.URLParam(r, "id")]
	var out financial.Goal
	if ok {
		rec.Name, rec.TargetAmount, rec.TargetDate = in.Name, in.TargetAmount, in.TargetDate
		if in.Status != "" {
			rec.Status = in.Status
		}
		out = *rec
	}
	s.mu.Unlock()
	if !ok {
		notFound(w, "financial goal")
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.goals, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFixedCosts(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	out := make([]financial.FixedCost, 0, len(u.fixedCosts))
	for _, fc := range u.fixedCosts {
		out = append(out, *fc)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createFixedCost(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in financial.FixedCostInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" || in.Amount <= 0 || in.DueDay < 1 || in.DueDay > 31 {
		badRequest(w, "name, amount, and a due_day between 1 and 31 are required")
		return
	}
	rec := &financial.FixedCost{
		ID:         uuid.NewString(),
		UserID:     u.id,
		CategoryID: in.CategoryID,
		Name:       in.Name,
		Amount:     in.Amount,
		DueDay:     in.DueDay,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	u.fixedCosts[rec.ID] = rec
	s.mu.Unlock()
	writeData(w, http.StatusCreated, rec)
}

func (s *Server) deleteFixedCost(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.fixedCosts, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFixedInvestments(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	out := make([]financial.FixedInvestment, 0, len(u.fixedInvestments))
	for _, fi := range u.fixedInvestments {
		out = append(out, *fi)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createFixedInvestment(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in financial.FixedInvestmentInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" || in.Amount <= 0 {
		badRequest(w, "name and amount are required")
		return
	}
	rec := &financial.FixedInvestment{
		ID:        uuid.NewString(),
		UserID:    u.id,
		Name:      in.Name,
		Amount:    in.Amount,
		Frequency: in.Frequency,
		StartDate: in.StartDate,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	u.fixedInvestments[rec.ID] = rec
	s.mu.Unlock()
	writeData(w, http.StatusCreated, rec)
}

func (s *Server) deleteFixedInvestment(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.fixedInvestments, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPeriodicIncome(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	out := make([]financial.PeriodicIncome, 0, len(u.periodicIncome))
	for _, pi := range u.periodicIncome {
		out = append(out, *pi)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createPeriodicIncome(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in financial.PeriodicIncomeInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" || in.Amount <= 0 || in.PayDay < 1 || in.PayDay > 31 {
		badRequest(w, "name, amount, and a pay_day between 1 and 31 are required")
		return
	}
	rec := &financial.PeriodicIncome{
		ID:        uuid.NewString(),
		UserID:    u.id,
		Name:      in.Name,
		Amount:    in.Amount,
		PayDay:    in.PayDay,
		Frequency: in.Frequency,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	u.periodicIncome[rec.ID] = rec
	s.mu.Unlock()
	writeData(w, http.StatusCreated, rec)
}

func (s *Server) deletePeriodicIncome(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	delete(u.periodicIncome, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Profiles (bare envelope)
// =============================================================================

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	p := u.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in profiles.Input
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	if in.FullName != "" {
		u.profile.FullName = in.FullName
	}
	if in.Currency != "" {
		u.profile.Currency = in.Currency
	}
	p := u.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getInitialBalance(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	balance := u.profile.InitialBalance
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]float64{"initial_balance": balance})
}

func (s *Server) setInitialBalance(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	var in struct {
		InitialBalance *float64 `json:"initial_balance"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.InitialBalance == nil {
		badRequest(w, "initial_balance is required")
		return
	}
	s.mu.Lock()
	u.profile.InitialBalance = *in.InitialBalance
	balance := u.profile.InitialBalance
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]float64{"initial_balance": balance})
}

// transactionMonth parses the calendar month out of a transaction date,
// accepting either a bare date or a full RFC 3339 timestamp.
func transactionMonth(date string) (month, year int, ok bool) {
	if len(date) > 10 {
		date = date[:10]
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, 0, false
	}
	return int(t.Month()), t.Year(), true
}
