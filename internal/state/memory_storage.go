package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps user FSM states in process memory. It backs tests and
// redis-less deployments; abandoned sessions are reaped by the Cleaner.
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[int64]*UserState
}

// NewMemoryStorage returns an in-memory Storage implementation.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{states: make(map[int64]*UserState)}
}

// GetState returns the stored user state or ErrStateNotFound when absent.
func (s *MemoryStorage) GetState(_ context.Context, userID int64) (*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}

	copied := *stored
	return &copied, nil
}

// SetState saves the provided user state.
func (s *MemoryStorage) SetState(_ context.Context, userID int64, state *UserState) error {
	state.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *state
	s.states[userID] = &copied
	return nil
}

// ClearState removes the stored state for the given user.
func (s *MemoryStorage) ClearState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

// GetAllStates lists every stored user state.
func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*UserState, 0, len(s.states))
	for _, stored := range s.states {
		copied := *stored
		result = append(result, &copied)
	}

	return result, nil
}
