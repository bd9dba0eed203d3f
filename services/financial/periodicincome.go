package financial

import (
	"context"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const periodicIncomePath = "/financial/periodic-income"

// PeriodicIncome is a recurring income such as a salary.
type PeriodicIncome struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	PayDay    int     `json:"pay_day"`
	Frequency string  `json:"frequency"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// PeriodicIncomeInput is the payload for creating or updating a periodic
// income.
type PeriodicIncomeInput struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	PayDay    int     `json:"pay_day"`
	Frequency string  `json:"frequency"`
}

// PeriodicIncomeService exposes periodic-income operations.
type PeriodicIncomeService struct {
	client *transport.Client
}

// NewPeriodicIncome creates the periodic income service.
func NewPeriodicIncome(client *transport.Client) *PeriodicIncomeService {
	return &PeriodicIncomeService{client: client}
}

// GetAll lists periodic incomes.
func (s *PeriodicIncomeService) GetAll(ctx context.Context) ([]PeriodicIncome, error) {
	resp, err := s.client.Get(ctx, periodicIncomePath, nil)
	if err != nil {
		return nil, err
	}
	return unwrapList[PeriodicIncome](resp, periodicIncomePath)
}

// GetByID fetches a single periodic income.
func (s *PeriodicIncomeService) GetByID(ctx context.Context, id string) (*PeriodicIncome, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, periodicIncomePath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return unwrapOne[PeriodicIncome](resp, periodicIncomePath+"/"+id)
}

// Create adds a periodic income.
func (s *PeriodicIncomeService) Create(ctx context.Context, in PeriodicIncomeInput) (*PeriodicIncome, error) {
	if err := validatePeriodicIncome(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Post(ctx, periodicIncomePath, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[PeriodicIncome](resp, periodicIncomePath)
}

// Update replaces a periodic income.
func (s *PeriodicIncomeService) Update(ctx context.Context, id string, in PeriodicIncomeInput) (*PeriodicIncome, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validatePeriodicIncome(in); err != nil {
		return nil, err
	}
	resp, err := s.client.Put(ctx, periodicIncomePath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[PeriodicIncome](resp, periodicIncomePath+"/"+id)
}

// Delete removes a periodic income.
func (s *PeriodicIncomeService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := s.client.Delete(ctx, periodicIncomePath+"/"+id)
	return err
}

func validatePeriodicIncome(in PeriodicIncomeInput) error {
	if in.Name == "" {
		return &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if in.Amount <= 0 {
		return &errs.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.PayDay < 1 || in.PayDay > 31 {
		return &errs.ValidationError{Field: "pay_day", Reason: "must be between 1 and 31"}
	}
	if !validFrequency(in.Frequency) {
		return &errs.ValidationError{Field: "frequency", Reason: "must be monthly, quarterly, or yearly"}
	}
	return nil
}
