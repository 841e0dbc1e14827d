package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no checkpoint is stored under the ID.
var ErrNotFound = errors.New("store: checkpoint not found")

// Store reads and writes serialized checkpoints keyed by checkpoint ID.
type Store interface {
	// Get returns the stored body, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)

	// Put stores body under id, replacing any previous value.
	Put(ctx context.Context, id string, body []byte) error

	// Delete removes the checkpoint. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *Memory) Put(_ context.Context, id string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = append([]byte(nil), body...)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

var _ Store = (*Memory)(nil)
