// Package categories is the client for the /categories resource. The backend
// returns bare records for this resource (no data envelope); the listing
// endpoint is unfiltered and type filtering happens client-side, matching the
// backend's contract.
package categories

import (
	"context"
	"fmt"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const basePath = "/categories"

// Category types accepted by the backend.
const (
	TypeIncome     = "income"
	TypeExpense    = "expense"
	TypeInvestment = "investment"
)

// Category is a transaction category record.
type Category struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Input is the payload for creating or updating a category.
type Input struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// Service exposes category operations.
type Service struct {
	client *transport.Client
}

// New creates the categories service.
func New(client *transport.Client) *Service {
	return &Service{client: client}
}

// GetAll lists categories. categoryType filters to one of the Type constants;
// empty returns every category. The backend endpoint is unfiltered, so the
// filter is applied locally.
func (s *Service) GetAll(ctx context.Context, categoryType string) ([]Category, error) {
	if categoryType != "" && !validType(categoryType) {
		return nil, &errs.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown category type %q", categoryType)}
	}

	resp, err := s.client.Get(ctx, basePath, nil)
	if err != nil {
		return nil, err
	}
	all, err := decodeList(resp, basePath)
	if err != nil {
		return nil, err
	}
	if categoryType == "" {
		return all, nil
	}

	filtered := make([]Category, 0, len(all))
	for _, c := range all {
		if c.Type == categoryType {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// GetByID fetches a single category.
func (s *Service) GetByID(ctx context.Context, id string) (*Category, error) {
	if id == "" {
		return nil, &errs.ValidationError{Field: "id", Reason: "required"}
	}
	resp, err := s.client.Get(ctx, basePath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath+"/"+id)
}

// Create adds a category.
func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	if in.Name == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if !validType(in.Type) {
		return nil, &errs.ValidationError{Field: "type", Reason: "must be income, expense, or investment"}
	}
	resp, err := s.client.Post(ctx, basePath, in)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath)
}

// Update replaces a category.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Category, error) {
	if id == "" {
		return nil, &errs.ValidationError{Field: "id", Reason: "required"}
	}
	if in.Name == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if !validType(in.Type) {
		return nil, &errs.ValidationError{Field: "type", Reason: "must be income, expense, or investment"}
	}
	resp, err := s.client.Put(ctx, basePath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return decodeOne(resp, basePath+"/"+id)
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &errs.ValidationError{Field: "id", Reason: "required"}
	}
	_, err := s.client.Delete(ctx, basePath+"/"+id)
	return err
}

func validType(t string) bool {
	return t == TypeIncome || t == TypeExpense || t == TypeInvestment
}

func decodeList(resp *transport.Response, endpoint string) ([]Category, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return []Category{}, nil
	}
	var out []Category
	if err := resp.JSON(&out); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a category array"}
	}
	if out == nil {
		out = []Category{}
	}
	return out, nil
}

func decodeOne(resp *transport.Response, endpoint string) (*Category, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a category, got null"}
	}
	var out Category
	if err := resp.JSON(&out); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a category object"}
	}
	if out.ID == "" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "category missing id"}
	}
	return &out, nil
}
