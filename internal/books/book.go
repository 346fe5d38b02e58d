// Package books manages uploaded e-book archives and their records.
package books

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no book has the requested id.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidArchive is returned for uploads that are not readable EPUB
	// archives.
	ErrInvalidArchive = errors.New("invalid epub archive")
)

// Book is an uploaded archive and its reader-facing metadata.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Filename    string    `json:"filename"`
	ArchivePath string    `json:"-"`
	CoverPath   string    `json:"-"`
	PageCount   int       `json:"page_count"`
	UploadedAt  time.Time `json:"uploaded_at"`

	// BlocksPerPage is the threshold PageCount was computed with. Zero means
	// the book has not been paginated.
	BlocksPerPage int `json:"blocks_per_page,omitempty"`
}

// HasCover reports whether a cover image was extracted at upload.
func (b *Book) HasCover() bool {
	return b.CoverPath != ""
}

// Store persists book records.
type Store interface {
	Create(ctx context.Context, b *Book) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Book, error)
	// List returns books newest first.
	List(ctx context.Context) ([]Book, error)
	// SetPageCount records the number of pages of a book and the threshold
	// they were produced with. A zero threshold resets the book to
	// unpaginated.
	SetPageCount(ctx context.Context, id string, n, blocksPerPage int) error
	Delete(ctx context.Context, id string) error
}
