package asset

import (
	"context"
	"errors"
	"sync"
)

var ErrBackendDown = errors.New("media host unavailable")

// MemoryBackend keeps uploaded payloads in a map. SetFailures makes the next
// calls fail, which lets tests drive the error paths of the services.
type MemoryBackend struct {
	mu         sync.Mutex
	objects    map[string]string
	failPut    bool
	failRemove bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]string)}
}

func (b *MemoryBackend) Put(ctx context.Context, key string, payload string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failPut {
		return "", ErrBackendDown
	}

	b.objects[key] = payload
	return "memory://" + key, nil
}

func (b *MemoryBackend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failRemove {
		return ErrBackendDown
	}

	delete(b.objects, key)
	return nil
}

// Has reports whether an object is stored under key.
func (b *MemoryBackend) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.objects)
}

// SetFailures toggles both failure switches under the lock.
func (b *MemoryBackend) SetFailures(put, remove bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failPut = put
	b.failRemove = remove
}
