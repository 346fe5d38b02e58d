// Package progress records where each reader is in each book.
package progress

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a reader has no progress for a book.
var ErrNotFound = errors.New("progress not found")

// Progress is one reader's position in one book. Page is the 0-based page
// index last served to the reader.
type Progress struct {
	ReaderID string    `json:"reader_id"`
	BookID   string    `json:"book_id"`
	Page     int       `json:"page"`
	Favorite bool      `json:"favorite"`
	LastRead time.Time `json:"last_read"`
}

// Store persists reading progress.
type Store interface {
	Get(ctx context.Context, readerID, bookID string) (*Progress, error)

	// Record notes that page was served to the reader. It does not wait for
	// the write and leaves Favorite untouched.
	Record(readerID, bookID string, page int)

	// Save writes page and favorite and waits for the write.
	Save(ctx context.Context, p Progress) error

	// DeleteBook removes every reader's progress for the book.
	DeleteBook(ctx context.Context, bookID string) error
}
