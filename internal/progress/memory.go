package progress

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type key struct{ reader, book string }

// MemoryStore keeps progress in memory. Record applies immediately.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[key]Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[key]Progress)}
}

func (m *MemoryStore) Get(_ context.Context, readerID, bookID string) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[key{readerID, bookID}]
	if !ok {
		return nil, fmt.Errorf("%w: reader %s book %s", ErrNotFound, readerID, bookID)
	}
	return &p, nil
}

func (m *MemoryStore) Record(readerID, bookID string, page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{readerID, bookID}
	p := m.entries[k]
	p.ReaderID, p.BookID, p.Page, p.LastRead = readerID, bookID, page, time.Now().UTC()
	m.entries[k] = p
}

func (m *MemoryStore) Save(_ context.Context, p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.LastRead = time.Now().UTC()
	m.entries[key{p.ReaderID, p.BookID}] = p
	return nil
}

func (m *MemoryStore) DeleteBook(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.book == bookID {
			delete(m.entries, k)
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
