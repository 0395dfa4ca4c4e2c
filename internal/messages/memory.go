package messages

import (
	"context"
	"sync"
)

// MemoryStore keeps messages in process memory, in insertion order.
type MemoryStore struct {
	mu   sync.RWMutex
	msgs []Message
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends a message
func (m *MemoryStore) Add(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msgs = append(m.msgs, msg)
	return nil
}

// List returns a snapshot of the stored messages, optionally filtered by recipient
func (m *MemoryStore) List(_ context.Context, to string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Message, 0, len(m.msgs))
	for _, msg := range m.msgs {
		if to == "" || msg.To == to {
			out = append(out, msg)
		}
	}
	return out, nil
}

// ByTo returns the latest message for a recipient
func (m *MemoryStore) ByTo(_ context.Context, to string) (Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.msgs) - 1; i >= 0; i-- {
		if m.msgs[i].To == to {
			return m.msgs[i], true, nil
		}
	}
	return Message{}, false, nil
}

// Count returns the number of stored messages
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.msgs)
}
