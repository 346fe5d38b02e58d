// Package pagecache persists the pages produced by pagination, one ordered
// set per book.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// MaxWindowSize is the largest number of pages one window may hold.
const MaxWindowSize = 100

var (
	// ErrDuplicatePage is returned when a write would store a second page
	// with an existing (book, page number). It means two extractions of the
	// same book were not serialized and must never be ignored.
	ErrDuplicatePage = errors.New("pagecache: duplicate page number")

	// ErrInvalidWindow is returned for a negative index, a size outside
	// 1..MaxWindowSize, or a window whose page numbers do not fit in an int.
	ErrInvalidWindow = errors.New("pagecache: invalid window")
)

// Page is one persisted page of a book.
type Page struct {
	BookID        string `json:"book_id"`
	PageNum       int    `json:"page_num"`
	Title         string `json:"title"`
	HTML          string `json:"html"`
	BlocksPerPage int    `json:"blocks_per_page"`
}

// Window is a contiguous, ordered run of pages plus the book's page total.
type Window struct {
	Pages []Page `json:"pages"`
	Total int    `json:"total_pages"`
}

// Store is the persisted page collection.
type Store interface {
	// Exists reports whether the book has pages produced with blocksPerPage.
	Exists(ctx context.Context, bookID string, blocksPerPage int) (bool, error)

	// Count returns the number of pages stored for the book.
	Count(ctx context.Context, bookID string) (int, error)

	// WriteAll stores a book's pages. Either every page is stored or none is.
	WriteAll(ctx context.Context, bookID string, pages []Page) error

	// Window returns pages index*size+1 through index*size+size. A window
	// past the end has no pages and is not an error.
	Window(ctx context.Context, bookID string, index, size int) (Window, error)

	// DeleteAll removes every page of the book.
	DeleteAll(ctx context.Context, bookID string) error
}

// Bounds returns the first and last page numbers of a window.
func Bounds(index, size int) (first, last int, err error) {
	if index < 0 || size <= 0 || size > MaxWindowSize {
		return 0, 0, fmt.Errorf("%w: index %d size %d", ErrInvalidWindow, index, size)
	}
	if index > (math.MaxInt-size)/size {
		return 0, 0, fmt.Errorf("%w: index %d size %d out of range", ErrInvalidWindow, index, size)
	}
	first = index*size + 1
	return first, first + size - 1, nil
}
