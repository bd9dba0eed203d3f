// Package tokenstore holds the single persistent slot for the current bearer
// token. The session manager is the only writer; the transport layer reads it
// once per outgoing request.
package tokenstore

import "context"

// Store is a persistent single-value token slot.
//
// All operations are idempotent: Set overwrites, Clear on an empty store is a
// no-op success. Failures surface as *errs.StorageError.
type Store interface {
	// Get returns the stored token. ok is false when the slot is empty.
	Get(ctx context.Context) (token string, ok bool, err error)
	// Set stores the token, replacing any previous value.
	Set(ctx context.Context, token string) error
	// Clear removes the stored token.
	Clear(ctx context.Context) error
}
