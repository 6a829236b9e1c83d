package testutil

import (
	"context"
	"sync"

	"proxen/internal/session"
)

// MemoryStore is an in-memory session.Store.
type MemoryStore struct {
	mu     sync.Mutex
	snap   session.Snapshot
	saves  int
	closed bool

	// Error injection for testing
	LoadErr  error
	SaveErr  error
	ResetErr error
}

// NewMemoryStore creates a MemoryStore holding snap.
func NewMemoryStore(snap session.Snapshot) *MemoryStore {
	return &MemoryStore{snap: snap}
}

// Load implements session.Store.
func (m *MemoryStore) Load(ctx context.Context) (session.Snapshot, error) {
	if m.LoadErr != nil {
		return session.Snapshot{}, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return session.Snapshot{Profile: m.snap.Profile, State: m.snap.State.Clone()}, nil
}

// Save implements session.Store.
func (m *MemoryStore) Save(ctx context.Context, snap session.Snapshot) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = session.Snapshot{Profile: snap.Profile, State: snap.State.Clone()}
	m.saves++
	return nil
}

// Reset implements session.Store.
func (m *MemoryStore) Reset(ctx context.Context) error {
	if m.ResetErr != nil {
		return m.ResetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = session.Snapshot{}
	return nil
}

// Snapshot returns what is currently stored.
func (m *MemoryStore) Snapshot() session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return session.Snapshot{Profile: m.snap.Profile, State: m.snap.State.Clone()}
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close records that the store was closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
