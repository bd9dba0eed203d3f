// Package transactions is the client for the /transactions resource. The
// backend returns bare records for this resource (no data envelope).
package transactions

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const basePath = "/transactions"

// Transaction is a single income/expense/investment record.
type Transaction struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	CategoryID string  `json:"category_id"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note,omitempty"`
	Date       string  `json:"transaction_date"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// Input is the payload for creating or updating a transaction.
type Input struct {
	CategoryID string  `json:"category_id"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note,omitempty"`
	Date       string  `json:"transaction_date"`
}

// Service exposes transaction operations.
type Service struct {
	client *transport.Client
}

// New creates the transactions service.
func New(client *transport.Client) *Service {
	return &Service{client: client}
}

// GetAll lists every transaction for the authenticated user.
func (s *Service) GetAll(ctx context.Context) ([]Transaction, error) {
	resp, err := s.client.Get(ctx, basePath, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(resp, basePath)
}

// ListByMonth lists transactions for a calendar month. Filtering happens
// server-side via query parameters.
func (s *Service) ListByMonth(ctx context.Context, month, year int) ([]Transaction, error) {
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
	resp, err := s.client.Get(ctx, basePath, query)
	if err != nil {
		return nil, err
	}
	return decodeList(resp, basePath)
}

// GetByID fetches a single transaction.
func (s *Service) GetByID(ctx context.Context, id string) (*Transaction, error) {
	if id == "" {
		return nil, &errs.ValidationError{Field: "id", Reason: "required"}
	}
	resp, err := s.client.Get(ctx, basePath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath+"/"+id)
}

// Create records a transaction.
func (s *Service) Create(ctx context.Context, in Input) (*Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, basePath, in)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath)
}

// Update replaces a transaction.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Transaction, error) {
	if id == "" {
		return nil, &errs.ValidationError{Field: "id", Reason: "required"}
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Put(ctx, basePath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath+"/"+id)
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &errs.ValidationError{Field: "id", Reason: "required"}
	}
	_, err := s.client.Delete(ctx, basePath+"/"+id)
	return err
}

func validateInput(in Input) error {
	if in.CategoryID == "" {
		return &errs.ValidationError{Field: "category_id", Reason: "required"}
	}
	if in.Type == "" {
		return &errs.ValidationError{Field: "type", Reason: "required"}
	}
	if in.Amount <= 0 {
		return &errs.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.Date == "" {
		return &errs.ValidationError{Field: "transaction_date", Reason: "required"}
	}
	return nil
}

func decodeList(resp *transport.Response, endpoint string) ([]Transaction, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return []Transaction{}, nil
	}
	var out []Transaction
	if err := resp.JSON(&out); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a transaction array"}
	}
	if out == nil {
		out = []Transaction{}
	}
	return out, nil
}

func decodeOne(resp *transport.Response, endpoint string) (*Transaction, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a transaction, got null"}
	}
	var out Transaction
	if err := resp.JSON(&out); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a transaction object"}
	}
	if out.ID == "" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "transaction missing id"}
	}
	return &out, nil
}
