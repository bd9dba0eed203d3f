package financial

import (
	"context"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const fixedCostsPath = "/financial/fixed-costs"

// FixedCost is a recurring monthly cost such as rent or a subscription.
type FixedCost struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	CategoryID string  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	DueDay     int     `json:"due_day"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// FixedCostInput is the payload for creating or updating a fixed cost.
type FixedCostInput struct {
	CategoryID string  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	DueDay     int     `json:"due_day"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
}

// FixedCostsService exposes fixed-cost operations.
type FixedCostsService struct {
	client *transport.Client
}

// NewFixedCosts creates the fixed costs service.
func NewFixedCosts(client *transport.Client) *FixedCostsService {
	return &FixedCostsService{client: client}
}

// GetAll lists fixed costs.
func (s *FixedCostsService) GetAll(ctx context.Context) ([]FixedCost, error) {
	resp, err := s.client.Get(ctx, fixedCostsPath, nil)
	if err != nil {
		return nil, err
	}
	return unwrapList[FixedCost](resp, fixedCostsPath)
}

// GetByID fetches a single fixed cost.
func (s *FixedCostsService) GetByID(ctx context.Context, id string) (*FixedCost, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, fixedCostsPath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedCost](resp, fixedCostsPath+"/"+id)
}

// Create adds a fixed cost.
func (s *FixedCostsService) Create(ctx context.Context, in FixedCostInput) (*FixedCost, error) {
	if err := validateFixedCost(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, fixedCostsPath, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedCost](resp, fixedCostsPath)
}

// Update replaces a fixed cost.
func (s *FixedCostsService) Update(ctx context.Context, id string, in FixedCostInput) (*FixedCost, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validateFixedCost(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Put(ctx, fixedCostsPath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedCost](resp, fixedCostsPath+"/"+id)
}

// Delete removes a fixed cost.
func (s *FixedCostsService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := s.client.Delete(ctx, fixedCostsPath+"/"+id)
	return err
}

func validateFixedCost(in FixedCostInput) error {
	if in.Name == "" {
		return &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if in.Amount <= 0 {
		return &errs.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		return &errs.ValidationError{Field: "due_day", Reason: "must be between 1 and 31"}
	}
	return nil
}
