package metrics

import (
	"time"

	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/schema"
)

// Sender accepts fire-and-forget writes. *defra.Sink satisfies it.
type Sender interface {
	Send(op defra.WriteOp)
}

// Recorder writes metrics without blocking the caller.
type Recorder struct {
	sink Sender
}

// NewRecorder creates a recorder writing through sink.
func NewRecorder(sink Sender) *Recorder {
	return &Recorder{sink: sink}
}

// Record queues m for storage.
func (r *Recorder) Record(m Metric) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.sink.Send(defra.WriteOp{
		Collection: schema.Metric,
		Document:   m.ToMap(),
		Op:         defra.OpCreate,
	})
}
