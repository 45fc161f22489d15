package objectstore

import (
	"context"
	"strings"
	"sync"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

type object struct {
	data        []byte
	contentType string
}

// Memory is an in-process DocumentStore; paths are bucket-relative keys.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]object)}
}

func (m *Memory) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = clean(path)
	if path == "" {
		return &domain.OpError{Op: "objectstore.put", Kind: domain.KindInvalidConfig, Err: errEmptyPath}
	}
	cp := append([]byte(nil), data...)
	m.mu.Lock()
	m.objects[path] = object{data: cp, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[clean(path)]
	m.mu.RUnlock()
	if !ok {
		return nil, &domain.OpError{Op: "objectstore.get", Kind: domain.KindNotFound, Path: path}
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return &domain.OpError{Op: "objectstore.delete", Kind: domain.KindNotFound, Path: path}
	}
	delete(m.objects, path)
	return nil
}

func clean(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
