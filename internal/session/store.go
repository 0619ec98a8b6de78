// Package session persists the bearer credential that proves an
// authenticated identity to the trading backend. Exactly one credential
// exists at a time, stored under a fixed key.
package session

import (
	"context"
	"sync"
)

// Store is the durable home of the session credential. Save overwrites any
// prior value, Read reports the current credential or absence and never
// fails, Clear is idempotent.
type Store interface {
	Save(ctx context.Context, token string) error
	Read(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory. Tests and ephemeral
// sessions use it in place of the database-backed store.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	saved bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save overwrites the stored credential.
func (store *MemoryStore) Save(ctx context.Context, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = token
	store.saved = true
	return nil
}

// Read returns the credential and whether one is present.
func (store *MemoryStore) Read(ctx context.Context) (string, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.token, store.saved
}

// Clear removes the credential.
func (store *MemoryStore) Clear(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = ""
	store.saved = false
	return nil
}
