package financial

import (
	"context"
	"net/url"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const goalsPath = "/financial/financial-goals"

// Goal statuses used by the backend.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalCancelled = "cancelled"
)

// Goal is a savings target the user is working toward.
type Goal struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	TargetDate    string  `json:"target_date,omitempty"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// GoalInput is the payload for creating or updating a goal.
type GoalInput struct {
	Name         string  `json:"name"`
	TargetAmount float64 `json:"target_amount"`
	TargetDate   string  `json:"target_date,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// GoalsService exposes financial-goal operations.
type GoalsService struct {
	client *transport.Client
}

// NewGoals creates the financial goals service.
func NewGoals(client *transport.Client) *GoalsService {
	return &GoalsService{client: client}
}

// GetAll lists goals. status filters server-side via a query parameter;
// empty lists all.
func (s *GoalsService) GetAll(ctx context.Context, status string) ([]Goal, error) {
	var query url.Values
	if status != "" {
		if status != GoalActive && status != GoalCompleted && status != GoalCancelled {
			return nil, &errs.ValidationError{Field: "status", Reason: "must be active, completed, or cancelled"}
		}
		query = url.Values{"status": {status}}
	}
	resp, err := s.client.Get(ctx, goalsPath, query)
	if err != nil {
		return nil, err
	}
	return unwrapList[Goal](resp, goalsPath)
}

// GetByID fetches a single goal.
func (s *GoalsService) GetByID(ctx context.Context, id string) (*Goal, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, goalsPath+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	return unwrapOne[Goal](resp, goalsPath+"/"+id)
}

// Create adds a goal.
func (s *GoalsService) Create(ctx context.Context, in GoalInput) (*Goal, error) {
	if in.Name == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "required"}
	}
	if in.TargetAmount <= 0 {
		return nil, &errs.ValidationError{Field: "target_amount", Reason: "must be positive"}
	}
	resp, err := s.client.Post(ctx, goalsPath, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[Goal](resp, goalsPath)
}

// Update replaces a goal.
func (s *GoalsService) Update(ctx context.Context, id string, in GoalInput) (*Goal, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "required"}
	}
	resp, err := s.client.Put(ctx, goalsPath+"/"+id, in)
	if err != nil {
		return nil, err
	}
	return unwrapOne[Goal](resp, goalsPath+"/"+id)
}

// Delete removes a goal.
func (s *GoalsService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := s.client.Delete(ctx, goalsPath+"/"+id)
	return err
}
