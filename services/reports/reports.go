// Package reports is the client for the /reports resources. The heavy
// aggregation runs in Postgres RPC functions behind the backend; this client
// only requests and reshapes their output. The RPC payloads are the least
// uniform in the API (a bare object, a single-element array, or a data
// envelope, depending on the function), so extraction is done with gjson
// instead of a rigid struct decode.
package reports

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const (
	monthlyPath = "/reports/monthly"
	annualPath  = "/reports/annual"
)

// CategoryBreakdown is one category's share of a monthly report.
type CategoryBreakdown struct {
	CategoryID   string
	CategoryName string
	Amount       float64
	Percentage   float64
}

// MonthlyReport is the rollup for one calendar month.
type MonthlyReport struct {
	Month           int
	Year            int
	TotalIncome     float64
	TotalExpense    float64
	TotalInvestment float64
	Balance         float64
	Categories      []CategoryBreakdown
}

// MonthTotal is one month's totals within an annual report.
type MonthTotal struct {
	Month      int
	Income     float64
	Expense    float64
	Investment float64
}

// AnnualReport is the rollup for one calendar year.
type AnnualReport struct {
	Year   int
	Months []MonthTotal
}

// Service exposes report operations.
type Service struct {
	client *transport.Client
}

// New creates the reports service.
func New(client *transport.Client) *Service {
	return &Service{client: client}
}

// Monthly fetches the monthly rollup. A month with no transactions yields a
// zero-valued report, not an error.
func (s *Service) Monthly(ctx context.Context, month, year int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, &errs.ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if year <= 0 {
		return nil, &errs.ValidationError{Field: "year", Reason: "must be positive"}
	}

	query := url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}
	resp, err := s.client.Get(ctx, monthlyPath, query)
	if err != nil {
		return nil, err
	}

	root, ok := rpcPayload(resp.Body)
	if !ok {
		return nil, &errs.ShapeError{Endpoint: monthlyPath, Reason: "report payload is not valid JSON"}
	}

	report := &MonthlyReport{Month: month, Year: year}
	if !root.Exists() || root.Type == gjson.Null {
		return report, nil
	}

	report.TotalIncome = root.Get("total_income").Float()
	report.TotalExpense = root.Get("total_expense").Float()
	report.TotalInvestment = root.Get("total_investment").Float()
	if bal := root.Get("balance"); bal.Exists() {
		report.Balance = bal.Float()
	} else {
		report.Balance = report.TotalIncome - report.TotalExpense - report.TotalInvestment
	}

	root.Get("categories").ForEach(func(_, item gjson.Result) bool {
		report.Categories = append(report.Categories, CategoryBreakdown{
			CategoryID:   item.Get("category_id").String(),
			CategoryName: item.Get("category_name").String(),
			Amount:       item.Get("amount").Float(),
			Percentage:   item.Get("percentage").Float(),
		})
		return true
	})
	return report, nil
}

// Annual fetches the yearly rollup.
func (s *Service) Annual(ctx context.Context, year int) (*AnnualReport, error) {
	if year <= 0 {
		return nil, &errs.ValidationError{Field: "year", Reason: "must be positive"}
	}

	query := url.Values{"year": {strconv.Itoa(year)}}
	resp, err := s.client.Get(ctx, annualPath, query)
	if err != nil {
		return nil, err
	}

	root, ok := rpcPayload(resp.Body)
	if !ok {
		return nil, &errs.ShapeError{Endpoint: annualPath, Reason: "report payload is not valid JSON"}
	}

	report := &AnnualReport{Year: year}
	months := root.Get("months")
	if !months.Exists() {
		// Some RPC shapes return the month rows directly.
		months = root
	}
	appendRow := func(item gjson.Result) {
		report.Months = append(report.Months, MonthTotal{
			Month:      int(item.Get("month").Int()),
			Income:     item.Get("income").Float(),
			Expense:    item.Get("expense").Float(),
			Investment: item.Get("investment").Float(),
		})
	}
	switch {
	case months.IsArray():
		months.ForEach(func(_, item gjson.Result) bool {
			appendRow(item)
			return true
		})
	case months.IsObject() && months.Get("month").Exists():
		appendRow(months)
	}
	return report, nil
}

// rpcPayload locates the meaningful payload inside an RPC response: unwraps a
// {"data": ...} envelope when present and flattens a single-element array to
// its element.
func rpcPayload(body []byte) (gjson.Result, bool) {
	if len(body) == 0 {
		return gjson.Result{}, true
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.Exists() {
		root = data
	}
	if root.IsArray() {
		items := root.Array()
		if len(items) == 0 {
			return gjson.Result{}, true
		}
		if len(items) == 1 && items[0].IsObject() {
			return items[0], true
		}
	}
	return root, true
}
