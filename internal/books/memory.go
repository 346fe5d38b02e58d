package books

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and --memory mode.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]Book

	// SetPageCountErr is returned by SetPageCount when non-nil.
	SetPageCountErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]Book)}
}

func (m *MemoryStore) Create(_ context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; ok {
		return fmt.Errorf("book %s already exists", b.ID)
	}
	m.books[b.ID] = *b
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &b, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (m *MemoryStore) SetPageCount(_ context.Context, id string, n, blocksPerPage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetPageCountErr != nil {
		return m.SetPageCountErr
	}
	b, ok := m.books[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b.PageCount = n
	b.BlocksPerPage = blocksPerPage
	m.books[id] = b
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.books, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
