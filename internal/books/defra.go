package books

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/schema"
)

var bookFields = []string{
	"_docID", "book_id", "title", "author", "description", "filename",
	"archive_path", "cover_path", "page_count", "blocks_per_page", "uploaded_at",
}

// DefraStore keeps books in DefraDB's Book collection.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a DefraDB-backed book store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) Create(ctx context.Context, b *Book) error {
	if err := defra.ValidateID(b.ID); err != nil {
		return err
	}
	_, err := s.client.Create(ctx, schema.Book, map[string]any{
		"book_id":      b.ID,
		"title":        b.Title,
		"author":       b.Author,
		"description":  b.Description,
		"filename":     b.Filename,
		"archive_path": b.ArchivePath,
		"cover_path":   b.CoverPath,
		"page_count":   b.PageCount,
		"uploaded_at":  b.UploadedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("create book %s: %w", b.ID, err)
	}
	return nil
}

func (s *DefraStore) Get(ctx context.Context, id string) (*Book, error) {
	b, _, err := s.get(ctx, id)
	return b, err
}

// get returns the book and its document id.
func (s *DefraStore) get(ctx context.Context, id string) (*Book, string, error) {
	resp, err := defra.NewQuery(schema.Book).
		Filter("book_id", id).
		Fields(bookFields...).
		Execute(ctx, s.client)
	if err != nil {
		return nil, "", fmt.Errorf("get book %s: %w", id, err)
	}
	docs := resp.Docs(schema.Book)
	if len(docs) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	docID, _ := docs[0]["_docID"].(string)
	return bookFromDoc(docs[0]), docID, nil
}

func (s *DefraStore) List(ctx context.Context) ([]Book, error) {
	resp, err := defra.NewQuery(schema.Book).
		Fields(bookFields...).
		OrderBy("uploaded_at", "DESC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	docs := resp.Docs(schema.Book)
	out := make([]Book, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *bookFromDoc(doc))
	}
	return out, nil
}

func (s *DefraStore) SetPageCount(ctx context.Context, id string, n, blocksPerPage int) error {
	_, docID, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.client.Update(ctx, schema.Book, docID, map[string]any{
		"page_count":      n,
		"blocks_per_page": blocksPerPage,
	}); err != nil {
		return fmt.Errorf("set page count of %s: %w", id, err)
	}
	return nil
}

func (s *DefraStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.DeleteWhere(ctx, schema.Book, "book_id", id)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func bookFromDoc(doc map[string]any) *Book {
	b := &Book{}
	b.ID, _ = doc["book_id"].(string)
	b.Title, _ = doc["title"].(string)
	b.Author, _ = doc["author"].(string)
	b.Description, _ = doc["description"].(string)
	b.Filename, _ = doc["filename"].(string)
	b.ArchivePath, _ = doc["archive_path"].(string)
	b.CoverPath, _ = doc["cover_path"].(string)
	if n, ok := doc["page_count"].(float64); ok {
		b.PageCount = int(n)
	}
	if n, ok := doc["blocks_per_page"].(float64); ok {
		b.BlocksPerPage = int(n)
	}
	if s, ok := doc["uploaded_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			b.UploadedAt = t
		}
	}
	return b
}

var _ Store = (*DefraStore)(nil)
