package store

import "sync"

// Logical keys under which the persisted collections live. Both values
// are plain JSON arrays with no schema version field.
const (
	KeyTasks         = "tasks"
	KeyNotifications = "notifications"
)

// Storage is a small key-value contract over session-local persistent
// storage. The task store and notification queue hold whole collections
// under single keys and always write back the full value they read.
type Storage interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) ([]byte, bool, error)

	// Set overwrites the value under key.
	Set(key string, value []byte) error

	// Delete removes the key entirely.
	Delete(key string) error
}

// MemoryStorage is a Storage held entirely in memory. It backs tests and
// serves as the degraded-mode fallback when the on-disk database cannot
// be opened.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStorage returns an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
