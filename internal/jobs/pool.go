// Package jobs runs CPU-bound tasks, such as paginating a book, on a fixed
// set of workers behind a bounded queue.
package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrQueueFull is returned by Submit when the pool cannot accept more work.
	ErrQueueFull = errors.New("worker queue full")

	// ErrPoolStopped is returned by Submit after the pool has shut down.
	ErrPoolStopped = errors.New("worker pool stopped")
)

// Task is a unit of work. Run receives the pool's context, not the
// submitter's, so a task keeps running when its submitter goes away.
type Task struct {
	ID   string // shown in logs, e.g. the book id
	Name string // task kind, e.g. "paginate"
	Run  func(ctx context.Context) error
}

// Result reports how a task finished.
type Result struct {
	TaskID   string
	Err      error
	Duration time.Duration
}

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
	QueueSize  int    `json:"queue_size"`
	Completed  int64  `json:"completed"`
	Failed     int64  `json:"failed"`
}
