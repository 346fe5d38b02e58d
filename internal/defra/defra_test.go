package defra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy_500", http.StatusInternalServerError, true},
		{"unhealthy_503", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			err := NewClient(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/graphql" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content-type: %s", ct)
		}
		w.Write([]byte(`{"data": {"Page": [{"_docID": "bae-1", "page_num": 1}, {"_docID": "bae-2", "page_num": 2}]}}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Execute(context.Background(), `{ Page { _docID page_num } }`, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Error() != "" {
		t.Errorf("unexpected GraphQL error: %s", resp.Error())
	}
	docs := resp.Docs("Page")
	if len(docs) != 2 {
		t.Fatalf("Docs() len = %d, want 2", len(docs))
	}
	if docs[1]["_docID"] != "bae-2" {
		t.Errorf("docs[1] = %v", docs[1])
	}
}

func TestClient_Execute_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "field not found"}]}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Execute(context.Background(), `{ Invalid }`, nil)
	if err != nil {
		t.Fatalf("Execute() returned transport error: %v", err)
	}
	if resp.Error() != "field not found" {
		t.Errorf("unexpected error message: %q", resp.Error())
	}
}

func TestClient_Execute_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient(server.URL).Execute(ctx, `{ Book { title } }`, nil); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestClient_Query_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data": {"_count": 4}}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Query(context.Background(), `{ _count(Page: {}) }`, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if resp.Data["_count"] != float64(4) {
		t.Errorf("_count = %v", resp.Data["_count"])
	}
}

func TestClient_Execute_DoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Execute(context.Background(), `mutation { x }`, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_AddSchema(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/schema" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		if strings.Contains(received, "invalid") {
			http.Error(w, "parse error", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.AddSchema(context.Background(), "type Book { title: String }"); err != nil {
		t.Fatalf("AddSchema() error = %v", err)
	}
	if received != "type Book { title: String }" {
		t.Errorf("received schema = %q", received)
	}
	if err := client.AddSchema(context.Background(), "invalid {"); err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestClient_CreateMany(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		query = req.Query
		w.Write([]byte(`{"data": {"create_Page": [{"_docID": "bae-b"}, {"_docID": "bae-a"}]}}`))
	}))
	defer server.Close()

	ids, err := NewClient(server.URL).CreateMany(context.Background(), "Page", []map[string]any{
		{"page_num": 1},
		{"page_num": 2},
	})
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v", ids)
	}
	if !strings.HasPrefix(query, "mutation { create_Page(input: [{page_num: 1}, {page_num: 2}])") {
		t.Errorf("query = %s", query)
	}
}

func TestClient_CreateMany_ShortResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"create_Page": [{"_docID": "bae-a"}]}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CreateMany(context.Background(), "Page", []map[string]any{{"page_num": 1}, {"page_num": 2}})
	if err == nil {
		t.Fatal("expected error when fewer docs are created than requested")
	}
}

func TestClient_DeleteWhere(t *testing.T) {
	var req GQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"data": {"delete_Page": [{"_docID": "a"}, {"_docID": "b"}, {"_docID": "c"}]}}`))
	}))
	defer server.Close()

	n, err := NewClient(server.URL).DeleteWhere(context.Background(), "Page", "book_id", "book-1")
	if err != nil {
		t.Fatalf("DeleteWhere() error = %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	if !strings.Contains(req.Query, "delete_Page(filter: {book_id: {_eq: $v}})") {
		t.Errorf("query = %s", req.Query)
	}
	if req.Variables["v"] != "book-1" {
		t.Errorf("variables = %v", req.Variables)
	}
}

func TestClient_Upsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"upsert_Progress": [{"_docID": "bae-p"}]}}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL).Upsert(context.Background(), "Progress",
		map[string]any{"book_id": map[string]any{"_eq": "b1"}},
		map[string]any{"book_id": "b1", "page": 3},
		map[string]any{"page": 3})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if id != "bae-p" {
		t.Errorf("id = %q", id)
	}
}

func TestClient_URLNormalization(t *testing.T) {
	if got := NewClient("http://localhost:9181/").URL(); got != "http://localhost:9181" {
		t.Errorf("URL not normalized: %s", got)
	}
	if got := NewClient("http://localhost:9181").URL(); got != "http://localhost:9181" {
		t.Errorf("URL changed unexpectedly: %s", got)
	}
}

func TestMapToGraphQLInput(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"string value", map[string]any{"title": "Test"}, `{title: "Test"}`},
		{"quotes and newlines", map[string]any{"title": "say \"hi\"\n"}, `{title: "say \"hi\"\n"}`},
		{"int value", map[string]any{"count": 42}, `{count: 42}`},
		{"bool value", map[string]any{"active": true}, `{active: true}`},
		{"nested", map[string]any{"book_id": map[string]any{"_eq": "b"}}, `{book_id: {_eq: "b"}}`},
		{"empty map", map[string]any{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapToGraphQLInput(tt.input)
			if err != nil {
				t.Fatalf("mapToGraphQLInput() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("mapToGraphQLInput() = %s, want %s", got, tt.want)
			}
		})
	}
}
