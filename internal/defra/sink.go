package defra

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OpType represents the type of write operation.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
	OpUpsert OpType = "upsert"
)

// WriteOp is a single write handed to the sink.
type WriteOp struct {
	Collection string
	Document   map[string]any
	DocID      string         // updates and deletes
	Filter     map[string]any // upserts; Document is used for both create and update
	Op         OpType

	result chan<- WriteResult
}

// WriteResult contains the result of a write operation.
type WriteResult struct {
	DocID string
	Err   error
}

// SinkConfig configures the write sink.
type SinkConfig struct {
	Client        *Client
	BatchSize     int           // default 100
	FlushInterval time.Duration // default 2s
	QueueSize     int           // default 1000
	Logger        *slog.Logger
}

// Sink batches low-priority writes (reading progress, extraction metrics)
// so request handlers never wait on them.
type Sink struct {
	client *Client
	logger *slog.Logger

	batchSize     int
	flushInterval time.Duration

	queue   chan WriteOp
	batch   []WriteOp
	batchMu sync.Mutex
	flushCh chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
	closed   chan struct{}
}

// NewSink creates a new write sink. Call Start before sending.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sink{
		client:        cfg.Client,
		logger:        cfg.Logger,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		queue:         make(chan WriteOp, cfg.QueueSize),
		batch:         make([]WriteOp, 0, cfg.BatchSize),
		flushCh:       make(chan struct{}, 1),
		closed:        make(chan struct{}),
	}
}

// Start begins processing write operations.
func (s *Sink) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.runBatcher()
}

// Stop flushes queued operations and shuts the sink down.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping sink, flushing remaining operations")
		close(s.closed)
		close(s.queue)
		s.wg.Wait()
		s.cancel()
		s.logger.Info("sink stopped")
	})
}

// Send queues a write operation without waiting for it.
// When the queue is full or the sink is closed the op is dropped and logged.
func (s *Sink) Send(op WriteOp) {
	op.result = nil

	defer func() {
		// send on closed channel after Stop
		if r := recover(); r != nil {
			s.logger.Warn("sink closed, dropping write op", "collection", op.Collection, "op", op.Op)
		}
	}()

	select {
	case <-s.closed:
		s.logger.Warn("sink closed, dropping write op", "collection", op.Collection, "op", op.Op)
	case s.queue <- op:
	default:
		s.logger.Warn("sink queue full, dropping write op", "collection", op.Collection, "op", op.Op)
	}
}

// SendSync queues a write operation and waits for the result.
func (s *Sink) SendSync(ctx context.Context, op WriteOp) (WriteResult, error) {
	resultCh := make(chan WriteResult, 1)
	op.result = resultCh

	select {
	case <-s.closed:
		return WriteResult{}, ErrSinkClosed
	default:
	}

	select {
	case s.queue <- op:
	case <-s.closed:
		return WriteResult{}, ErrSinkClosed
	case <-ctx.Done():
		return WriteResult{}, ctx.Err()
	}

	select {
	case result := <-resultCh:
		return result, result.Err
	case <-ctx.Done():
		return WriteResult{}, ctx.Err()
	}
}

// Flush asks the batcher to write the current batch now.
func (s *Sink) Flush() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

func (s *Sink) runBatcher() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case op, ok := <-s.queue:
			if !ok {
				s.flushBatch()
				return
			}
			s.addToBatch(op)

		case <-ticker.C:
			s.flushBatch()

		case <-s.flushCh:
			s.flushBatch()
		}
	}
}

func (s *Sink) addToBatch(op WriteOp) {
	s.batchMu.Lock()
	s.batch = append(s.batch, op)
	shouldFlush := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()

	if shouldFlush {
		s.flushBatch()
	}
}

func (s *Sink) flushBatch() {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	ops := s.batch
	s.batch = make([]WriteOp, 0, s.batchSize)
	s.batchMu.Unlock()

	s.logger.Debug("flushing batch", "count", len(ops))

	// Ops are applied in arrival order so a later upsert of the same
	// progress record wins over an earlier one.
	for _, op := range ops {
		s.apply(op)
	}
}

func (s *Sink) apply(op WriteOp) {
	var (
		docID = op.DocID
		err   error
	)
	switch op.Op {
	case OpCreate:
		docID, err = s.client.Create(s.ctx, op.Collection, op.Document)
	case OpUpdate:
		err = s.client.Update(s.ctx, op.Collection, op.DocID, op.Document)
	case OpDelete:
		err = s.client.Delete(s.ctx, op.Collection, op.DocID)
	case OpUpsert:
		docID, err = s.client.Upsert(s.ctx, op.Collection, op.Filter, op.Document, op.Document)
	}

	if err != nil {
		s.logger.Error("sink write failed",
			"collection", op.Collection,
			"op", op.Op,
			"doc_id", op.DocID,
			"error", err)
	}

	if op.result != nil {
		op.result <- WriteResult{DocID: docID, Err: err}
		close(op.result)
	}
}
