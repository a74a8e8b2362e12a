// Package memory keeps exported objects in-process for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// Stored is a captured object.
type Stored struct {
	ContentType string
	Metadata    map[string]string
	Data        []byte
}

// BlobStore stores objects in memory and returns memory:// URIs.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string]Stored
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string]Stored)}
}

// Put reads obj.Body fully and stores it under obj.Path.
func (s *BlobStore) Put(_ context.Context, obj crawler.Object) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("read object body: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Path] = Stored{
		ContentType: obj.ContentType,
		Metadata:    maps.Clone(obj.Metadata),
		Data:        data,
	}
	return fmt.Sprintf("memory://%s", obj.Path), nil
}

// Get returns the object stored at path.
func (s *BlobStore) Get(path string) (Stored, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	return obj, ok
}
