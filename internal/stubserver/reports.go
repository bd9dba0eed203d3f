package stubserver

import (
	"net/http"
	"sort"

	"github.com/hien-duc/spendwise-go/services/categories"
)

// The report handlers reproduce the payload quirks of the Postgres RPC
// functions: the monthly rollup arrives as a single-element array inside a
// data envelope, the annual rollup as an object with a months array.

type monthlyRow struct {
	TotalIncome     float64          `json:"total_income"`
	TotalExpense    float64          `json:"total_expense"`
	TotalInvestment float64          `json:"total_investment"`
	Balance         float64          `json:"balance"`
	Categories      []categoryRollup `json:"categories"`
}

type categoryRollup struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

type monthRow struct {
	Month      int     `json:"month"`
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	Investment float64 `json:"investment"`
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	month, okM := queryInt(r, "month")
	year, okY := queryInt(r, "year")
	if !okM || !okY || month < 1 || month > 12 {
		badRequest(w, "month and year query parameters are required")
		return
	}

	u := s.currentUser(r)
	s.mu.Lock()
	row := monthlyRow{Categories: []categoryRollup{}}
	byCategory := map[string]float64{}
	for _, t := range u.transactions {
		m, y, ok := transactionMonth(t.Date)
		if !ok || m != month || y != year {
			continue
		}
		switch t.Type {
		case categories.TypeIncome:
			row.TotalIncome += t.Amount
		case categories.TypeExpense:
			row.TotalExpense += t.Amount
			byCategory[t.CategoryID] += t.Amount
		case categories.TypeInvestment:
			row.TotalInvestment += t.Amount
		}
	}
	for id, amount := range byCategory {
		rollup := categoryRollup{CategoryID: id, Amount: amount}
		if c, ok := u.categories[id]; ok {
			rollup.CategoryName = c.Name
		}
		if row.TotalExpense > 0 {
			rollup.Percentage = amount / row.TotalExpense * 100
		}
		row.Categories = append(row.Categories, rollup)
	}
	s.mu.Unlock()

	row.Balance = row.TotalIncome - row.TotalExpense - row.TotalInvestment
	sort.Slice(row.Categories, func(i, j int) bool {
		return row.Categories[i].Amount > row.Categories[j].Amount
	})
	writeData(w, http.StatusOK, []monthlyRow{row})
}

func (s *Server) annualReport(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(r, "year")
	if !ok {
		badRequest(w, "year query parameter is required")
		return
	}

	u := s.currentUser(r)
	s.mu.Lock()
	byMonth := map[int]*monthRow{}
	for _, t := range u.transactions {
		m, y, ok := transactionMonth(t.Date)
		if !ok || y != year {
			continue
		}
		row := byMonth[m]
		if row == nil {
			row = &monthRow{Month: m}
			byMonth[m] = row
		}
		switch t.Type {
		case categories.TypeIncome:
			row.Income += t.Amount
		case categories.TypeExpense:
			row.Expense += t.Amount
		case categories.TypeInvestment:
			row.Investment += t.Amount
		}
	}
	s.mu.Unlock()

	months := make([]monthRow, 0, len(byMonth))
	for _, row := range byMonth {
		months = append(months, *row)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}
