package store

import (
	"errors"
	"sync"
)

// Blob slot names. The whole persisted state lives in a handful of named
// JSON blobs, mirroring the original browser-profile storage layout.
const (
	BlobBooks    = "library:books"
	BlobShown    = "library:shown"
	BlobInstance = "instance"
)

// ErrBlobNotFound is returned by Blobs.Get when the named blob does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// Blobs is the persistence boundary: get/set/delete of whole named blobs.
// Implementations must be safe for concurrent use. The interface exists so
// stores can be tested against an in-memory double instead of a real
// database.
type Blobs interface {
	Get(name string) ([]byte, error)
	Set(name string, data []byte) error
	Delete(name string) error
}

// MemoryBlobs is an in-memory Blobs implementation for testing.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailWrites makes Set return an error, for exercising persist failures.
	FailWrites error
}

// NewMemoryBlobs creates an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string][]byte)}
}

// Get implements Blobs.
func (m *MemoryBlobs) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrBlobNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set implements Blobs.
func (m *MemoryBlobs) Set(name string, data []byte) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.blobs[name] = stored
	return nil
}

// Delete implements Blobs.
func (m *MemoryBlobs) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// Seed places raw bytes into a slot without going through Set, so tests can
// plant corrupt payloads.
func (m *MemoryBlobs) Seed(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = data
}
