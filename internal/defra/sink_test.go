package defra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockDefraServer answers every GraphQL mutation with a single document
// under the mutation's result key and records the queries it saw.
type mockDefraServer struct {
	*httptest.Server
	requests atomic.Int32
	mu       sync.Mutex
	queries  []string
}

func newMockDefraServer(t *testing.T) *mockDefraServer {
	t.Helper()
	m := &mockDefraServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.Add(1)

		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		m.mu.Lock()
		m.queries = append(m.queries, req.Query)
		m.mu.Unlock()

		// "mutation { create_Metric(...) ..." -> "create_Metric"
		key := strings.TrimPrefix(req.Query, "mutation { ")
		if i := strings.Index(key, "("); i > 0 {
			key = key[:i]
		}
		json.NewEncoder(w).Encode(GQLResponse{
			Data: map[string]any{key: []any{map[string]any{"_docID": "doc123"}}},
		})
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockDefraServer) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func startSink(t *testing.T, url string, batch int, interval time.Duration) *Sink {
	t.Helper()
	s := NewSink(SinkConfig{
		Client:        NewClient(url),
		BatchSize:     batch,
		FlushInterval: interval,
	})
	s.Start(context.Background())
	return s
}

func TestSink_SendSync_Create(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 10, 50*time.Millisecond)
	defer sink.Stop()

	result, err := sink.SendSync(context.Background(), WriteOp{
		Collection: "Metric",
		Document:   map[string]any{"book_id": "b1", "pages": 12},
		Op:         OpCreate,
	})
	if err != nil {
		t.Fatalf("SendSync failed: %v", err)
	}
	if result.DocID != "doc123" {
		t.Errorf("expected docID 'doc123', got %q", result.DocID)
	}
}

func TestSink_SendSync_Upsert(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 10, 50*time.Millisecond)
	defer sink.Stop()

	_, err := sink.SendSync(context.Background(), WriteOp{
		Collection: "Progress",
		Filter:     map[string]any{"book_id": map[string]any{"_eq": "b1"}},
		Document:   map[string]any{"book_id": "b1", "page": 4},
		Op:         OpUpsert,
	})
	if err != nil {
		t.Fatalf("SendSync upsert failed: %v", err)
	}
	q := srv.Queries()
	if len(q) != 1 || !strings.HasPrefix(q[0], "mutation { upsert_Progress(filter: {book_id: {_eq: \"b1\"}}") {
		t.Errorf("queries = %v", q)
	}
}

func TestSink_Update_Delete(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 10, 50*time.Millisecond)
	defer sink.Stop()

	ctx := context.Background()
	res, err := sink.SendSync(ctx, WriteOp{Collection: "Book", DocID: "bae-1", Document: map[string]any{"page_count": 3}, Op: OpUpdate})
	if err != nil || res.DocID != "bae-1" {
		t.Fatalf("update: res=%+v err=%v", res, err)
	}
	res, err = sink.SendSync(ctx, WriteOp{Collection: "Book", DocID: "bae-1", Op: OpDelete})
	if err != nil || res.DocID != "bae-1" {
		t.Fatalf("delete: res=%+v err=%v", res, err)
	}
}

func TestSink_BatchBySize(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 3, 10*time.Second)

	for i := 0; i < 3; i++ {
		sink.Send(WriteOp{Collection: "Metric", Document: map[string]any{"index": i}, Op: OpCreate})
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.requests.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := srv.requests.Load(); got != 3 {
		t.Errorf("expected 3 requests before interval elapsed, got %d", got)
	}
	sink.Stop()
}

func TestSink_BatchByTime(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 100, 50*time.Millisecond)

	sink.Send(WriteOp{Collection: "Metric", Document: map[string]any{"n": 1}, Op: OpCreate})

	time.Sleep(200 * time.Millisecond)
	if got := srv.requests.Load(); got != 1 {
		t.Errorf("expected 1 request from time flush, got %d", got)
	}
	sink.Stop()
}

func TestSink_ManualFlush(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 100, 10*time.Second)
	defer sink.Stop()

	sink.Send(WriteOp{Collection: "Metric", Document: map[string]any{"n": 1}, Op: OpCreate})
	time.Sleep(20 * time.Millisecond)
	sink.Flush()
	time.Sleep(100 * time.Millisecond)

	if got := srv.requests.Load(); got != 1 {
		t.Errorf("expected 1 request after manual flush, got %d", got)
	}
}

func TestSink_GracefulShutdown(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 100, 10*time.Second)

	for i := 0; i < 5; i++ {
		sink.Send(WriteOp{Collection: "Metric", Document: map[string]any{"index": i}, Op: OpCreate})
	}
	sink.Stop()

	if got := srv.requests.Load(); got != 5 {
		t.Errorf("expected 5 requests after graceful shutdown, got %d", got)
	}
}

func TestSink_PreservesOrder(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 100, 10*time.Second)

	for page := 1; page <= 4; page++ {
		sink.Send(WriteOp{
			Collection: "Progress",
			Filter:     map[string]any{"book_id": map[string]any{"_eq": "b1"}},
			Document:   map[string]any{"page": page},
			Op:         OpUpsert,
		})
	}
	sink.Stop()

	q := srv.Queries()
	if len(q) != 4 {
		t.Fatalf("got %d queries, want 4", len(q))
	}
	if !strings.Contains(q[3], "page: 4") {
		t.Errorf("last write = %s, want page 4", q[3])
	}
}

func TestSink_ConcurrentSends(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 100, 50*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sink.Send(WriteOp{Collection: "Metric", Document: map[string]any{"index": idx}, Op: OpCreate})
		}(i)
	}
	wg.Wait()
	sink.Stop()

	if got := srv.requests.Load(); got != 10 {
		t.Errorf("expected 10 requests, got %d", got)
	}
}

func TestSink_ClosedSink(t *testing.T) {
	srv := newMockDefraServer(t)
	sink := startSink(t, srv.URL, 10, 50*time.Millisecond)
	sink.Stop()

	// Must not panic.
	sink.Send(WriteOp{Collection: "Metric", Op: OpCreate})

	_, err := sink.SendSync(context.Background(), WriteOp{Collection: "Metric", Op: OpCreate})
	if !errors.Is(err, ErrSinkClosed) {
		t.Errorf("SendSync after Stop error = %v, want ErrSinkClosed", err)
	}
}
