package metrics

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/reader/internal/defra"
)

type captureSink struct {
	ops []defra.WriteOp
}

func (c *captureSink) Send(op defra.WriteOp) { c.ops = append(c.ops, op) }

func TestRecorder_Record(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink)

	r.Record(Metric{
		BookID:        "b1",
		BlocksPerPage: 25,
		Pages:         12,
		Documents:     3,
		Assets:        2,
		Duration:      1500 * time.Millisecond,
		Success:       true,
	})

	if len(sink.ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(sink.ops))
	}
	op := sink.ops[0]
	if op.Op != defra.OpCreate || op.Collection != "Metric" {
		t.Errorf("op = %+v", op)
	}
	if op.Document["duration_ms"] != 1500 || op.Document["pages"] != 12 {
		t.Errorf("document = %+v", op.Document)
	}
	if _, ok := op.Document["error"]; ok {
		t.Error("successful run should not carry an error field")
	}
	if s, _ := op.Document["created_at"].(string); s == "" {
		t.Error("created_at not set")
	}
}

func TestSummarize(t *testing.T) {
	metrics := []Metric{
		{Success: true, Pages: 10, Duration: time.Second},
		{Success: true, Pages: 20, Duration: 3 * time.Second, SkippedDocuments: 1},
		{Success: false, Error: "archive unreadable"},
	}

	s := Summarize(metrics)
	if s.Count != 3 || s.SuccessCount != 2 || s.ErrorCount != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalPages != 30 || s.SkippedDocuments != 1 {
		t.Errorf("totals = %+v", s)
	}
	if s.LatencyAvg != 2 || s.LatencyMax != 3 || s.LatencyP50 != 2 {
		t.Errorf("latency = %+v", s)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{nil, 50, 0},
		{[]float64{4}, 95, 4},
		{[]float64{1, 2, 3, 4, 5}, 50, 3},
		{[]float64{1, 2, 3, 4, 5}, 100, 5},
		{[]float64{0, 10}, 95, 9.5},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
}

func TestQuery_List(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req defra.GQLRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotQuery = req.Query
		json.NewEncoder(w).Encode(defra.GQLResponse{Data: map[string]any{
			"Metric": []any{map[string]any{
				"_docID":      "bae-m",
				"book_id":     "b1",
				"pages":       8.0,
				"duration_ms": 250.0,
				"success":     true,
				"created_at":  "2024-01-02T03:04:05Z",
			}},
		}})
	}))
	defer srv.Close()

	ok := true
	got, err := NewQuery(defra.NewClient(srv.URL)).List(context.Background(), Filter{BookID: "b1", Success: &ok}, 5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Pages != 8 || got[0].Duration != 250*time.Millisecond || !got[0].Success {
		t.Errorf("List() = %+v", got)
	}
	for _, want := range []string{"book_id: {_eq: $v0}", "success: {_eq: $v1}", "limit: 5", "order: {created_at: DESC}"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query missing %q: %s", want, gotQuery)
		}
	}
}
