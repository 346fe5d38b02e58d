package defra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"bae-123e4567-e89b", false},
		{"5f0c2c1e-7d3b-4a8e-9f4f-0c1d2e3f4a5b", false},
		{"", true},
		{"a\" } mutation {", true},
		{"../etc", true},
	}
	for _, tt := range tests {
		if err := ValidateID(tt.id); (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	q, vars := NewQuery("Page").
		Filter("book_id", "b1").
		FilterGTE("page_num", 11).
		FilterLTE("page_num", 20).
		Fields("page_num", "title", "html").
		OrderBy("page_num", "ASC").
		Build()

	want := `query($v0: String, $v1: Int, $v2: Int) { Page(filter: {book_id: {_eq: $v0}, page_num: {_gte: $v1, _lte: $v2}}, order: {page_num: ASC}) { page_num title html } }`
	if q != want {
		t.Errorf("Build() =\n%s\nwant\n%s", q, want)
	}
	if vars["v0"] != "b1" || vars["v1"] != 11 || vars["v2"] != 20 {
		t.Errorf("vars = %v", vars)
	}
}

func TestQueryBuilder_BuildNoFilters(t *testing.T) {
	q, vars := NewQuery("Book").Limit(5).Offset(10).Build()
	if q != `{ Book(limit: 5, offset: 10) { _docID } }` {
		t.Errorf("Build() = %s", q)
	}
	if vars != nil {
		t.Errorf("vars = %v, want nil", vars)
	}
}

func TestQueryBuilder_BuildCount(t *testing.T) {
	q, _ := NewQuery("Page").Filter("book_id", "b1").Limit(3).BuildCount()
	want := `query($v0: String) { _count(Page: {filter: {book_id: {_eq: $v0}}}) }`
	if q != want {
		t.Errorf("BuildCount() = %s, want %s", q, want)
	}

	q, _ = NewQuery("Book").BuildCount()
	if q != `{ _count(Book) }` {
		t.Errorf("BuildCount() = %s", q)
	}
}

func TestQueryBuilder_Count(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["v0"] != "b1" {
			t.Errorf("variables = %v", req.Variables)
		}
		w.Write([]byte(`{"data": {"_count": 12}}`))
	}))
	defer server.Close()

	n, err := NewQuery("Page").Filter("book_id", "b1").Count(context.Background(), NewClient(server.URL))
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 12 {
		t.Errorf("Count() = %d, want 12", n)
	}
}

func TestQueryBuilder_ExecuteSurfacesGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "unknown collection"}]}`))
	}))
	defer server.Close()

	if _, err := NewQuery("Nope").Execute(context.Background(), NewClient(server.URL)); err == nil {
		t.Fatal("expected error")
	}
}
