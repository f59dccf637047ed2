package blobstore

import (
	"context"
	"sync"
)

type memoryObject struct {
	body        []byte
	contentType string
}

// Memory is an in-process Store for tests and local development.
type Memory struct {
	mu         sync.RWMutex
	objects    map[string]memoryObject
	publicBase string

	// FailPut and FailDelete force the matching operation to return the given error.
	FailPut    error
	FailDelete error
}

func NewMemory(publicBase string) *Memory {
	return &Memory{
		objects:    make(map[string]memoryObject),
		publicBase: publicBase,
	}
}

func (m *Memory) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPut != nil {
		return "", m.FailPut
	}

	cp := make([]byte, len(body))
	copy(cp, body)
	m.objects[key] = memoryObject{body: cp, contentType: contentType}

	return joinURL(m.publicBase, key), nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}

	cp := make([]byte, len(obj.body))
	copy(cp, obj.body)
	return cp, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete != nil {
		return m.FailDelete
	}

	delete(m.objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key]
	return ok
}

// ContentType returns the content type key was stored with.
func (m *Memory) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.objects[key].contentType
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
