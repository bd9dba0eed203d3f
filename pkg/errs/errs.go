// Package errs defines the error taxonomy shared by the SpendWise client.
// Services and the transport layer classify every failure into one of these
// types so callers have a single set of shapes to branch on.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or invalid caller input detected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NetworkError reports that no HTTP response was received (connectivity
// failure or timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a response with a non-2xx status other than 401.
type HTTPError struct {
	Status int
	Method string
	Path   string
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s %s", e.Status, e.Method, e.Path)
}

// AuthError reports a 401 response or a failed login/signup/refresh.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ShapeError reports a response payload that violated the expected contract,
// such as a null body where a record was required.
type ShapeError struct {
	Endpoint string
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape: %s: %s", e.Endpoint, e.Reason)
}

// StorageError reports a failed device-storage operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var e *StorageError
	return errors.As(err, &e)
}

// HTTPStatus returns the status code carried by an HTTPError in err's chain,
// or 0 when err carries none.
func HTTPStatus(err error) int {
	var e *HTTPError
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
