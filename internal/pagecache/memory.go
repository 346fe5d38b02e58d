package pagecache

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and the server's --memory mode.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]map[int]Page

	writes int

	// WriteErr, when set, fails every WriteAll without storing anything.
	WriteErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]map[int]Page)}
}

func (m *MemoryStore) Exists(_ context.Context, bookID string, blocksPerPage int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.books[bookID] {
		if p.BlocksPerPage == blocksPerPage {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Count(_ context.Context, bookID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.books[bookID]), nil
}

func (m *MemoryStore) WriteAll(_ context.Context, bookID string, pages []Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}

	existing := m.books[bookID]
	seen := make(map[int]bool, len(pages))
	for _, p := range pages {
		if _, ok := existing[p.PageNum]; ok || seen[p.PageNum] {
			return fmt.Errorf("%w: book %s page %d", ErrDuplicatePage, bookID, p.PageNum)
		}
		seen[p.PageNum] = true
	}

	if existing == nil {
		existing = make(map[int]Page, len(pages))
		m.books[bookID] = existing
	}
	for _, p := range pages {
		p.BookID = bookID
		existing[p.PageNum] = p
	}
	return nil
}

func (m *MemoryStore) Window(_ context.Context, bookID string, index, size int) (Window, error) {
	first, last, err := Bounds(index, size)
	if err != nil {
		return Window{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	book := m.books[bookID]
	w := Window{Pages: []Page{}, Total: len(book)}
	// Page numbers are dense, so nothing lies beyond len(book).
	for n := first; n <= min(last, len(book)); n++ {
		if p, ok := book[n]; ok {
			w.Pages = append(w.Pages, p)
		}
	}
	return w, nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, bookID)
	return nil
}

// Writes returns how many times WriteAll was called.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Pages returns every page of a book ordered by page number.
func (m *MemoryStore) Pages(bookID string) []Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pages := make([]Page, 0, len(m.books[bookID]))
	for _, p := range m.books[bookID] {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNum < pages[j].PageNum })
	return pages
}

var _ Store = (*MemoryStore)(nil)
