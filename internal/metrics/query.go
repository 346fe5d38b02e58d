package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/schema"
)

var metricFields = []string{
	"_docID", "book_id", "blocks_per_page", "pages", "documents",
	"skipped_documents", "assets", "duration_ms", "success", "error", "created_at",
}

// Query reads stored metrics.
type Query struct {
	client *defra.Client
}

// NewQuery creates a new metrics query helper.
func NewQuery(client *defra.Client) *Query {
	return &Query{client: client}
}

// Filter narrows a metrics listing. Zero fields match everything.
type Filter struct {
	BookID  string
	Success *bool
}

// List returns metrics matching the filter, newest first. limit <= 0 means
// no limit.
func (q *Query) List(ctx context.Context, f Filter, limit int) ([]Metric, error) {
	qb := defra.NewQuery(schema.Metric).
		Fields(metricFields...).
		OrderBy("created_at", "DESC")
	if f.BookID != "" {
		qb.Filter("book_id", f.BookID)
	}
	if f.Success != nil {
		qb.Filter("success", *f.Success)
	}
	if limit > 0 {
		qb.Limit(limit)
	}

	resp, err := qb.Execute(ctx, q.client)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	docs := resp.Docs(schema.Metric)
	metrics := make([]Metric, 0, len(docs))
	for _, doc := range docs {
		metrics = append(metrics, parseMetric(doc))
	}
	return metrics, nil
}

// Summary lists and summarizes metrics matching the filter.
func (q *Query) Summary(ctx context.Context, f Filter) (*Summary, error) {
	metrics, err := q.List(ctx, f, 0)
	if err != nil {
		return nil, err
	}
	return Summarize(metrics), nil
}

func parseMetric(m map[string]any) Metric {
	metric := Metric{}

	metric.ID, _ = m["_docID"].(string)
	metric.BookID, _ = m["book_id"].(string)
	metric.Success, _ = m["success"].(bool)
	metric.Error, _ = m["error"].(string)

	if v, ok := m["blocks_per_page"].(float64); ok {
		metric.BlocksPerPage = int(v)
	}
	if v, ok := m["pages"].(float64); ok {
		metric.Pages = int(v)
	}
	if v, ok := m["documents"].(float64); ok {
		metric.Documents = int(v)
	}
	if v, ok := m["skipped_documents"].(float64); ok {
		metric.SkippedDocuments = int(v)
	}
	if v, ok := m["assets"].(float64); ok {
		metric.Assets = int(v)
	}
	if v, ok := m["duration_ms"].(float64); ok {
		metric.Duration = time.Duration(v) * time.Millisecond
	}
	if v, ok := m["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			metric.CreatedAt = t
		}
	}

	return metric
}
