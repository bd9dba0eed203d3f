// Package financial is the client for the /financial resources: financial
// goals, fixed costs, fixed investments, and periodic income. Unlike the
// categories and transactions endpoints, every /financial endpoint wraps its
// payload in a {"data": ...} envelope; that inconsistency is a property of
// the backend and is preserved here rather than normalized away.
package financial

import (
	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/transport"
)

// unwrapOne extracts a single record from the data envelope.
func unwrapOne[T any](resp *transport.Response, endpoint string) (*T, error) {
	var env struct {
		Data *T `json:"data"`
	}
	if err := resp.JSON(&env); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a data envelope"}
	}
	if env.Data == nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "envelope missing data"}
	}
	return env.Data, nil
}

// unwrapList extracts a record list from the data envelope. A null or absent
// list yields an empty slice, never nil.
func unwrapList[T any](resp *transport.Response, endpoint string) ([]T, error) {
	if len(resp.Body) == 0 || string(resp.Body) == "null" {
		return []T{}, nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := resp.JSON(&env); err != nil {
		return nil, &errs.ShapeError{Endpoint: endpoint, Reason: "expected a data envelope"}
	}
	if env.Data == nil {
		return []T{}, nil
	}
	return env.Data, nil
}

func requireID(id string) error {
	if id == "" {
		return &errs.ValidationError{Field: "id", Reason: "required"}
	}
	return nil
}
