// Package reader serves book pages, paginating each book the first time it
// is read and keeping the result in the page cache.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/epub"
	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/internal/jobs"
	"github.com/jackzampolin/reader/internal/metrics"
	"github.com/jackzampolin/reader/internal/pagecache"
)

// ErrBookNotFound is returned for operations on an unknown book.
var ErrBookNotFound = errors.New("book not found")

// State is the pagination state of one book.
type State int

const (
	Unpaginated State = iota
	Paginating
	Paginated
)

func (s State) String() string {
	switch s {
	case Paginating:
		return "paginating"
	case Paginated:
		return "paginated"
	default:
		return "unpaginated"
	}
}

// BookStore is the part of the book store the coordinator needs.
type BookStore interface {
	Get(ctx context.Context, id string) (*books.Book, error)
	SetPageCount(ctx context.Context, id string, n, blocksPerPage int) error
}

// Submitter runs tasks off the request goroutine. *jobs.CPUWorkerPool
// satisfies it.
type Submitter interface {
	Submit(task jobs.Task) (<-chan jobs.Result, error)
}

// Recorder receives one metric per extraction. *metrics.Recorder satisfies it.
type Recorder interface {
	Record(m metrics.Metric)
}

// Config configures a Coordinator.
type Config struct {
	Pages   pagecache.Store
	Books   BookStore
	Pool    Submitter
	Metrics Recorder // optional
	Logger  *slog.Logger

	BlocksPerPage int
	AssetBaseURL  string
	MaxEntryBytes int64
}

// Extraction describes how a book's pages were obtained.
type Extraction struct {
	BookID    string        `json:"book_id"`
	Pages     int           `json:"pages"`
	Cached    bool          `json:"cached"`
	Documents int           `json:"documents,omitempty"`
	Skipped   []string      `json:"skipped,omitempty"`
	Assets    int           `json:"assets,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Coordinator makes sure each book is paginated exactly once per threshold,
// however many readers ask for it at the same time.
type Coordinator struct {
	pages   pagecache.Store
	books   BookStore
	pool    Submitter
	metrics Recorder
	logger  *slog.Logger

	assetBaseURL  string
	maxEntryBytes int64
	blocksPerPage atomic.Int64

	locks    *lockTable
	paginate func([]epub.Document, epub.Options) (*epub.Result, error)

	mu     sync.Mutex
	states map[string]State
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		pages:         cfg.Pages,
		books:         cfg.Books,
		pool:          cfg.Pool,
		metrics:       cfg.Metrics,
		logger:        logger,
		assetBaseURL:  cfg.AssetBaseURL,
		maxEntryBytes: cfg.MaxEntryBytes,
		locks:         newLockTable(),
		paginate:      epub.PaginateAll,
		states:        make(map[string]State),
	}
	c.SetBlocksPerPage(cfg.BlocksPerPage)
	return c
}

// SetBlocksPerPage changes the threshold used by later extractions. Books
// paginated with another threshold are paginated again on their next read.
func (c *Coordinator) SetBlocksPerPage(n int) {
	if n <= 0 {
		n = epub.DefaultBlocksPerPage
	}
	c.blocksPerPage.Store(int64(n))
}

// BlocksPerPage returns the current threshold.
func (c *Coordinator) BlocksPerPage() int {
	return int(c.blocksPerPage.Load())
}

// State reports the pagination state of a book as seen by this process.
func (c *Coordinator) State(bookID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[bookID]
}

// Paginating returns the number of extractions in progress.
func (c *Coordinator) Paginating() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.states {
		if s == Paginating {
			n++
		}
	}
	return n
}

func (c *Coordinator) setState(bookID string, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == Unpaginated {
		delete(c.states, bookID)
		return
	}
	c.states[bookID] = s
}

// EnsurePaginated makes sure the book's pages are cached for the current
// threshold. The extraction runs on the worker pool and keeps going if ctx
// ends first, so the next caller finds the pages cached.
func (c *Coordinator) EnsurePaginated(ctx context.Context, bookID string) (*Extraction, error) {
	if _, err := c.book(ctx, bookID); err != nil {
		return nil, err
	}

	bpp := c.BlocksPerPage()

	release, err := c.locks.acquire(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// The book may have been deleted while we waited for the lock.
	book, err := c.book(ctx, bookID)
	if err != nil {
		release()
		return nil, err
	}

	exists, err := c.pages.Exists(ctx, bookID, bpp)
	if err != nil {
		release()
		return nil, err
	}
	if exists {
		n, err := c.pages.Count(ctx, bookID)
		release()
		if err != nil {
			return nil, err
		}
		c.setState(bookID, Paginated)
		return &Extraction{BookID: bookID, Pages: n, Cached: true}, nil
	}
	// A book without any page content is marked on its record instead.
	if book.PageCount == 0 && book.BlocksPerPage == bpp {
		release()
		c.setState(bookID, Paginated)
		return &Extraction{BookID: bookID, Cached: true}, nil
	}

	c.setState(bookID, Paginating)

	var ext *Extraction
	results, err := c.pool.Submit(jobs.Task{
		ID:   bookID,
		Name: "paginate",
		Run: func(taskCtx context.Context) error {
			defer release()
			var err error
			ext, err = c.extract(taskCtx, book, bpp)
			return err
		},
	})
	if err != nil {
		c.setState(bookID, Unpaginated)
		release()
		return nil, err
	}

	select {
	case r := <-results:
		// A task drained at shutdown never ran, so it never released.
		release()
		if r.Err != nil {
			if errors.Is(r.Err, jobs.ErrPoolStopped) {
				c.setState(bookID, Unpaginated)
			}
			return nil, r.Err
		}
		return ext, nil
	case <-ctx.Done():
		c.logger.Debug("caller left before pagination finished", "book_id", bookID)
		go c.settle(bookID, results, release)
		return nil, ctx.Err()
	}
}

// settle waits for the result of an extraction nobody is waiting on any
// more and releases the book lock, which the task never took over if the
// pool drained it at shutdown.
func (c *Coordinator) settle(bookID string, results <-chan jobs.Result, release func()) {
	r := <-results
	release()
	if errors.Is(r.Err, jobs.ErrPoolStopped) {
		c.setState(bookID, Unpaginated)
	}
}

// extract paginates a book and stores its pages. It runs with the book
// lock held. On failure no pages are left for the book.
func (c *Coordinator) extract(ctx context.Context, book *books.Book, bpp int) (ext *Extraction, err error) {
	logger := c.logger.With("book_id", book.ID, "blocks_per_page", bpp)
	start := time.Now()
	m := metrics.Metric{BookID: book.ID, BlocksPerPage: bpp}

	defer func() {
		m.Duration = time.Since(start)
		m.Success = err == nil
		if err != nil {
			m.Error = err.Error()
			c.setState(book.ID, Unpaginated)
		} else {
			c.setState(book.ID, Paginated)
		}
		if c.metrics != nil {
			c.metrics.Record(m)
		}
	}()

	// Pages from another threshold are stale.
	if n, err := c.pages.Count(ctx, book.ID); err != nil {
		return nil, err
	} else if n > 0 {
		logger.Info("discarding pages from another layout", "pages", n)
		if err := c.pages.DeleteAll(ctx, book.ID); err != nil {
			return nil, err
		}
	}

	walker := epub.Walker{MaxEntryBytes: c.maxEntryBytes}
	walk, err := walker.Walk(ctx, book.ArchivePath, home.AssetsDirFor(book.ArchivePath))
	if err != nil {
		logger.Warn("archive walk failed", "error", err)
		return nil, err
	}
	m.Documents = len(walk.Documents)
	m.Assets = len(walk.Assets)

	res, err := c.paginate(walk.Documents, epub.Options{
		BookID:        book.ID,
		AssetBaseURL:  c.assetBaseURL,
		BlocksPerPage: bpp,
	})
	if err != nil {
		return nil, err
	}
	m.SkippedDocuments = len(res.Skipped)
	for _, name := range res.Skipped {
		logger.Warn("skipped undecodable document", "document", name)
	}

	pages := make([]pagecache.Page, 0, len(res.Pages))
	for _, p := range res.Pages {
		pages = append(pages, pagecache.Page{
			BookID:        book.ID,
			PageNum:       p.Number,
			Title:         p.Title,
			HTML:          p.HTML,
			BlocksPerPage: bpp,
		})
	}

	if err := c.pages.WriteAll(ctx, book.ID, pages); err != nil {
		if errors.Is(err, pagecache.ErrDuplicatePage) {
			logger.Error("duplicate pages written for book", "error", err)
		}
		return nil, err
	}

	if err := c.books.SetPageCount(ctx, book.ID, len(pages), bpp); err != nil {
		if derr := c.pages.DeleteAll(context.WithoutCancel(ctx), book.ID); derr != nil {
			logger.Error("failed to remove pages after page count update failed", "error", derr)
		}
		return nil, fmt.Errorf("set page count: %w", err)
	}

	m.Pages = len(pages)
	ext = &Extraction{
		BookID:    book.ID,
		Pages:     len(pages),
		Documents: len(walk.Documents),
		Skipped:   res.Skipped,
		Assets:    len(walk.Assets),
		Duration:  time.Since(start),
	}
	logger.Info("book paginated",
		"pages", ext.Pages,
		"documents", ext.Documents,
		"skipped", len(ext.Skipped),
		"assets", ext.Assets,
		"duration", ext.Duration)
	return ext, nil
}

// GetPage returns the page at a 0-based index.
func (c *Coordinator) GetPage(ctx context.Context, bookID string, index int) (pagecache.Window, error) {
	return c.GetWindow(ctx, bookID, index, 1)
}

// GetWindow returns pages index*size+1 through index*size+size, paginating
// the book first if needed. A window past the end has no pages.
func (c *Coordinator) GetWindow(ctx context.Context, bookID string, index, size int) (pagecache.Window, error) {
	if _, _, err := pagecache.Bounds(index, size); err != nil {
		return pagecache.Window{}, err
	}
	if _, err := c.EnsurePaginated(ctx, bookID); err != nil {
		return pagecache.Window{}, err
	}
	return c.pages.Window(ctx, bookID, index, size)
}

// Invalidate deletes the book's cached pages and resets its page count.
// It waits for an extraction in progress to finish first.
func (c *Coordinator) Invalidate(ctx context.Context, bookID string) error {
	if _, err := c.book(ctx, bookID); err != nil {
		return err
	}

	release, err := c.locks.acquire(ctx, bookID)
	if err != nil {
		return err
	}
	defer release()

	if err := c.pages.DeleteAll(ctx, bookID); err != nil {
		return err
	}
	if err := c.books.SetPageCount(ctx, bookID, 0, 0); err != nil {
		return fmt.Errorf("reset page count: %w", err)
	}
	c.setState(bookID, Unpaginated)
	c.logger.Info("page cache invalidated", "book_id", bookID)
	return nil
}

// Delete removes the book's pages and then calls remove, all while holding
// the book lock. An extraction in progress finishes first, and no new one
// can start until remove has returned. remove is expected to delete the
// book record and its files.
func (c *Coordinator) Delete(ctx context.Context, bookID string, remove func(context.Context) error) error {
	if _, err := c.book(ctx, bookID); err != nil {
		return err
	}

	release, err := c.locks.acquire(ctx, bookID)
	if err != nil {
		return err
	}
	defer release()

	if err := c.pages.DeleteAll(ctx, bookID); err != nil {
		return err
	}
	c.setState(bookID, Unpaginated)
	if err := remove(ctx); err != nil {
		return err
	}
	c.logger.Info("book deleted", "book_id", bookID)
	return nil
}

func (c *Coordinator) book(ctx context.Context, bookID string) (*books.Book, error) {
	book, err := c.books.Get(ctx, bookID)
	if errors.Is(err, books.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}
	return book, err
}

// Retryable reports whether err is a failure worth retrying later, such
// as an unreadable archive or a full work queue.
func Retryable(err error) bool {
	return errors.Is(err, epub.ErrArchiveRead) ||
		errors.Is(err, epub.ErrAssetWrite) ||
		errors.Is(err, jobs.ErrQueueFull) ||
		errors.Is(err, jobs.ErrPoolStopped)
}
