package twofa

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-process maps. Intended for tests and
// single-node development setups.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]UserSecurityRecord
	pendings map[string]PendingSetup
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]UserSecurityRecord),
		pendings: make(map[string]PendingSetup),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID string) (*UserSecurityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	// Copy the slice so callers cannot mutate stored state
	record.BackupCodes = append([]string(nil), record.BackupCodes...)
	return &record, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, userID string, record UserSecurityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.BackupCodes = append([]string(nil), record.BackupCodes...)
	s.records[userID] = record
	return nil
}

// GetPending implements Store.
func (s *MemoryStore) GetPending(_ context.Context, userID string) (*PendingSetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, ok := s.pendings[userID]
	if !ok {
		return nil, nil
	}
	return &pending, nil
}

// PutPending implements Store.
func (s *MemoryStore) PutPending(_ context.Context, pending PendingSetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendings[pending.UserID] = pending
	return nil
}

// DeletePending implements Store.
func (s *MemoryStore) DeletePending(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pendings, userID)
	return nil
}
