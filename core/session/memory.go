package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored session, or nil when absent or expired.
func (m *MemoryStore) Get(_ context.Context, key Key) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.After(m.now()) {
		delete(m.entries, key)
		return nil, nil
	}
	return entry.session.Clone(), nil
}

// Put overwrites the session for key and resets its expiry.
func (m *MemoryStore) Put(_ context.Context, key Key, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		session:   s.Clone(),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Delete removes the session for key. Deleting an absent session is a no-op.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
