package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/schema"
)

// DefraStore reads progress through the client and writes it through the
// sink.
type DefraStore struct {
	client *defra.Client
	sink   *defra.Sink
	now    func() time.Time
}

// NewDefraStore creates a DefraDB-backed progress store.
func NewDefraStore(client *defra.Client, sink *defra.Sink) *DefraStore {
	return &DefraStore{client: client, sink: sink, now: time.Now}
}

func (s *DefraStore) Get(ctx context.Context, readerID, bookID string) (*Progress, error) {
	resp, err := defra.NewQuery(schema.Progress).
		Filter("reader_id", readerID).
		Filter("book_id", bookID).
		Fields("reader_id", "book_id", "page", "favorite", "last_read").
		Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	docs := resp.Docs(schema.Progress)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: reader %s book %s", ErrNotFound, readerID, bookID)
	}
	return progressFromDoc(docs[0]), nil
}

func (s *DefraStore) Record(readerID, bookID string, page int) {
	s.sink.Send(s.upsert(readerID, bookID, map[string]any{
		"page": page,
	}))
}

func (s *DefraStore) Save(ctx context.Context, p Progress) error {
	op := s.upsert(p.ReaderID, p.BookID, map[string]any{
		"page":     p.Page,
		"favorite": p.Favorite,
	})
	if _, err := s.sink.SendSync(ctx, op); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *DefraStore) DeleteBook(ctx context.Context, bookID string) error {
	if _, err := s.client.DeleteWhere(ctx, schema.Progress, "book_id", bookID); err != nil {
		return fmt.Errorf("delete progress of %s: %w", bookID, err)
	}
	return nil
}

func (s *DefraStore) upsert(readerID, bookID string, fields map[string]any) defra.WriteOp {
	doc := map[string]any{
		"reader_id": readerID,
		"book_id":   bookID,
		"last_read": s.now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		doc[k] = v
	}
	return defra.WriteOp{
		Collection: schema.Progress,
		Op:         defra.OpUpsert,
		Filter: map[string]any{
			"reader_id": map[string]any{"_eq": readerID},
			"book_id":   map[string]any{"_eq": bookID},
		},
		Document: doc,
	}
}

func progressFromDoc(doc map[string]any) *Progress {
	p := &Progress{}
	p.ReaderID, _ = doc["reader_id"].(string)
	p.BookID, _ = doc["book_id"].(string)
	p.Favorite, _ = doc["favorite"].(bool)
	if n, ok := doc["page"].(float64); ok {
		p.Page = int(n)
	}
	if s, ok := doc["last_read"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			p.LastRead = t
		}
	}
	return p
}

var _ Store = (*DefraStore)(nil)
