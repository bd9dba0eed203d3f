package financial

import (
	"context"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const fixedInvestmentsPath = "/financial/fixed-investments"

// Investment frequencies accepted by the backend.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// FixedInvestment is a recurring investment contribution.
type FixedInvestment struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	StartDate string  `json:"start_date,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// FixedInvestmentInput is the payload for creating or updating a fixed
// investment.
type FixedInvestmentInput struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	StartDate string  `json:"start_date,omitempty"`
}

// FixedInvestmentsService exposes fixed-investment operations.
type FixedInvestmentsService struct {
	client *transport.Client
}

// NewFixedInvestments creates the fixed investments service.
func NewFixedInvestments(client *transport.Client) *FixedInvestmentsService {
	return &FixedInvestmentsService{client: client}
}

// GetAll lists fixed investments.
func (s *FixedInvestmentsService) GetAll(ctx context.Context) ([]FixedInvestment, error) {
	resp, err := s.client.Get(ctx, fixedInvestmentsPath, nil)
	if err != nil {
		return nil, err
	}
	return unwrapList[FixedInvestment](resp, fixedInvestmentsPath)
}

// GetByID fetches a single fixed investment.
func (s *FixedInvestmentsService) GetByID(ctx context.Context, id string) (*FixedInvestment, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, fixedInvestmentsPath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedInvestment](resp, fixedInvestmentsPath+"/"+id)
}

// Create adds a fixed investment.
func (s *FixedInvestmentsService) Create(ctx context.Context, in FixedInvestmentInput) (*FixedInvestment, error) {
	if err := validateFixedInvestment(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, fixedInvestmentsPath, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedInvestment](resp, fixedInvestmentsPath)
}

// Update replaces a fixed investment.
func (s *FixedInvestmentsService) Update(ctx context.Context, id string, in FixedInvestmentInput) (*FixedInvestment, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validateFixedInvestment(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Put(ctx, fixedInvestmentsPath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[FixedInvestment](resp, fixedInvestmentsPath+"/"+id)
}

// Delete removes a fixed investment.
func (s *FixedInvestmentsService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := s.client.Delete(ctx, fixedInvestmentsPath+"/"+id)
	return err
}

func validateFixedInvestment(in FixedInvestmentInput) error {
	if in.Name == "" {
		return &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if in.Amount <= 0 {
		return &errs.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !validFrequency(in.Frequency) {
		return &errs.ValidationError{Field: "frequency", Reason: "must be monthly, quarterly, or yearly"}
	}
	return nil
}

func validFrequency(f string) bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyYearly
}
