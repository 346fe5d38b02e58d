package pagecache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/schema"
)

// writeChunk bounds the number of pages created by one mutation.
const writeChunk = 50

// DefraStore keeps pages in DefraDB's Page collection.
type DefraStore struct {
	client *defra.Client
	logger *slog.Logger
}

// NewDefraStore creates a DefraDB-backed store.
func NewDefraStore(client *defra.Client, logger *slog.Logger) *DefraStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefraStore{client: client, logger: logger}
}

func (s *DefraStore) Exists(ctx context.Context, bookID string, blocksPerPage int) (bool, error) {
	n, err := defra.NewQuery(schema.Page).
		Filter("book_id", bookID).
		Filter("blocks_per_page", blocksPerPage).
		Count(ctx, s.client)
	if err != nil {
		return false, fmt.Errorf("pagecache: exists %s: %w", bookID, err)
	}
	return n > 0, nil
}

func (s *DefraStore) Count(ctx context.Context, bookID string) (int, error) {
	n, err := defra.NewQuery(schema.Page).Filter("book_id", bookID).Count(ctx, s.client)
	if err != nil {
		return 0, fmt.Errorf("pagecache: count %s: %w", bookID, err)
	}
	return n, nil
}

// WriteAll creates the pages in chunks. If a chunk fails for any reason
// other than a uniqueness violation, the chunks already written are deleted
// so the book is left without pages.
func (s *DefraStore) WriteAll(ctx context.Context, bookID string, pages []Page) error {
	if n, err := s.Count(ctx, bookID); err != nil {
		return err
	} else if n > 0 {
		return fmt.Errorf("%w: book %s already has %d pages", ErrDuplicatePage, bookID, n)
	}

	for start := 0; start < len(pages); start += writeChunk {
		end := min(start+writeChunk, len(pages))

		inputs := make([]map[string]any, 0, end-start)
		for _, p := range pages[start:end] {
			inputs = append(inputs, map[string]any{
				"book_id":         bookID,
				"page_num":        p.PageNum,
				"title":           p.Title,
				"html":            p.HTML,
				"blocks_per_page": p.BlocksPerPage,
			})
		}

		if _, err := s.client.CreateMany(ctx, schema.Page, inputs); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: book %s: %v", ErrDuplicatePage, bookID, err)
			}
			if start > 0 {
				if _, derr := s.client.DeleteWhere(context.WithoutCancel(ctx), schema.Page, "book_id", bookID); derr != nil {
					s.logger.Error("failed to roll back partial page write", "book_id", bookID, "error", derr)
				}
			}
			return fmt.Errorf("pagecache: write pages %d-%d of %s: %w", start+1, end, bookID, err)
		}
	}

	s.logger.Debug("pages written", "book_id", bookID, "count", len(pages))
	return nil
}

func (s *DefraStore) Window(ctx context.Context, bookID string, index, size int) (Window, error) {
	first, last, err := Bounds(index, size)
	if err != nil {
		return Window{}, err
	}

	resp, err := defra.NewQuery(schema.Page).
		Filter("book_id", bookID).
		FilterGTE("page_num", first).
		FilterLTE("page_num", last).
		OrderBy("page_num", "ASC").
		Fields("book_id", "page_num", "title", "html", "blocks_per_page").
		Execute(ctx, s.client)
	if err != nil {
		return Window{}, fmt.Errorf("pagecache: window %s: %w", bookID, err)
	}

	total, err := s.Count(ctx, bookID)
	if err != nil {
		return Window{}, err
	}

	w := Window{Pages: []Page{}, Total: total}
	for _, doc := range resp.Docs(schema.Page) {
		w.Pages = append(w.Pages, pageFromDoc(doc))
	}
	return w, nil
}

func (s *DefraStore) DeleteAll(ctx context.Context, bookID string) error {
	n, err := s.client.DeleteWhere(ctx, schema.Page, "book_id", bookID)
	if err != nil {
		return fmt.Errorf("pagecache: delete %s: %w", bookID, err)
	}
	s.logger.Debug("pages deleted", "book_id", bookID, "count", n)
	return nil
}

func pageFromDoc(doc map[string]any) Page {
	p := Page{}
	p.BookID, _ = doc["book_id"].(string)
	p.Title, _ = doc["title"].(string)
	p.HTML, _ = doc["html"].(string)
	if n, ok := doc["page_num"].(float64); ok {
		p.PageNum = int(n)
	}
	if n, ok := doc["blocks_per_page"].(float64); ok {
		p.BlocksPerPage = int(n)
	}
	return p
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "already exists")
}

var _ Store = (*DefraStore)(nil)
