// Package profiles is the client for the /profiles resource. The backend
// returns bare records for this resource (no data envelope).
package profiles

import (
	"context"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

const (
	basePath           = "/profiles"
	initialBalancePath = "/profiles/initial-balance"
)

// Profile is the authenticated user's profile record.
type Profile struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	InitialBalance float64 `json:"initial_balance"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// Input is the payload for updating the profile.
type Input struct {
	FullName string `json:"full_name,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Service exposes profile operations. The profile is addressed by the bearer
// token; no identifier argument is needed.
type Service struct {
	client *transport.Client
}

// New creates the profiles service.
func New(client *transport.Client) *Service {
	return &Service{client: client}
}

// Get fetches the authenticated user's profile.
func (s *Service) Get(ctx context.Context) (*Profile, error) {
	resp, err := s.client.Get(ctx, basePath, nil)
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp, basePath)
}

// Update modifies the authenticated user's profile.
func (s *Service) Update(ctx context.Context, in Input) (*Profile, error) {
	if in.FullName == "" && in.Currency == "" {
		return nil, &errs.ValidationError{Reason: "nothing to update"}
	}
	resp, err := s.client.Put(ctx, basePath, in)
	if err != nil {
		return nil, err
	}
	return decodeProfile(resp, basePath)
}

// InitialBalance fetches the profile's starting balance.
func (s *Service) InitialBalance(ctx context.Context) (float64, error) {
	resp, err := s.client.Get(ctx, initialBalancePath, nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		InitialBalance *float64 `json:"initial_balance"`
	}
	if err := resp.JSON(&out); err != nil || out.InitialBalance == nil {
		return 0, &errs.ShapeError{Endpoint: initialBalancePath, Reason: "expected an initial_balance field"}
	}
	return *out.InitialBalance, nil
}

// SetInitialBalance replaces the profile's starting balance.
func (s *Service) SetInitialBalance(ctx context.Context, amount float64) error {
	body := map[string]float64{"initial_balance": amount}
	_, err := s.client.Put(ctx, initialBalancePath, body)
	return err
}

func decodeProfile(resp *transport.Response, endpoint string) (*Profile, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a profile, got null"}
	}
	var out Profile
	if err := resp.JSON(&out); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a profile object"}
	}
	if out.ID == "" {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "profile missing id"}
	}
	return &out, nil
}
