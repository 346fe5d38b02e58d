// Package metrics records one row per pagination run.
package metrics

import "time"

// Metric describes a single extraction of a book into pages.
// Metrics are append-only records stored in DefraDB.
type Metric struct {
	ID string `json:"_docID,omitempty"`

	BookID        string `json:"book_id"`
	BlocksPerPage int    `json:"blocks_per_page"`

	// Output sizes
	Pages            int `json:"pages"`
	Documents        int `json:"documents"`
	SkippedDocuments int `json:"skipped_documents"`
	Assets           int `json:"assets"`

	Duration time.Duration `json:"duration"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ToMap converts the metric to a map for DefraDB storage.
func (m *Metric) ToMap() map[string]any {
	data := map[string]any{
		"book_id":           m.BookID,
		"blocks_per_page":   m.BlocksPerPage,
		"pages":             m.Pages,
		"documents":         m.Documents,
		"skipped_documents": m.SkippedDocuments,
		"assets":            m.Assets,
		"duration_ms":       int(m.Duration.Milliseconds()),
		"success":           m.Success,
		"created_at":        m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if m.Error != "" {
		data["error"] = m.Error
	}
	return data
}
