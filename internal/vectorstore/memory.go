package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Memory is an in-process Backend. It loses everything on exit.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dim     int
	records []Record
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

func (m *Memory) EnsureCollection(ctx context.Context, name string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[name]; ok {
		if c.dim != dim {
			return fmt.Errorf("%w: collection %q has dimension %d, not %d", domain.ErrInvalidRequest, name, c.dim, dim)
		}
		return nil
	}
	m.collections[name] = &memoryCollection{dim: dim}
	return nil
}

func (m *Memory) Insert(ctx context.Context, name string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	for _, r := range records {
		if len(r.Vector) != c.dim {
			return fmt.Errorf("%w: vector has dimension %d, collection expects %d", domain.ErrEmbedding, len(r.Vector), c.dim)
		}
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		c.records = append(c.records, r)
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, name string, vector []float32, k int) (domain.RetrievalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[name]
	if !ok {
		return domain.RetrievalResult{}, nil
	}
	return rank(c.records, vector, k), nil
}

func (m *Memory) Count(ctx context.Context, name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[name]
	if !ok {
		return 0, nil
	}
	return len(c.records), nil
}

func (m *Memory) Close() error { return nil }
