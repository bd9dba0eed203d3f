package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and ephemeral use.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool

	// FailNext, when non-nil, is returned by the next mutating or reading
	// operation and then reset. Lets tests simulate storage failures.
	FailNext error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return "", false, err
	}
	return s.token, s.set, nil
}

func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.token = token
	s.set = true
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.token = ""
	s.set = false
	return nil
}

func (s *MemoryStore) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}
