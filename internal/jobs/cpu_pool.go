package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// CPUWorkerPool runs tasks on a fixed number of workers.
// All workers share a single queue - natural load balancing via Go channel semantics.
type CPUWorkerPool struct {
	name        string
	logger      *slog.Logger
	workerCount int
	queueSize   int

	queue chan *workUnit

	// mu orders Submit against shutdown so no unit is queued after drain.
	mu      sync.RWMutex
	stopped chan struct{}
	wg      sync.WaitGroup

	inFlight  atomic.Int32
	completed atomic.Int64
	failed    atomic.Int64
}

type workUnit struct {
	task     Task
	queuedAt time.Time
	result   chan Result
}

// CPUWorkerPoolConfig configures a new CPU worker pool.
type CPUWorkerPoolConfig struct {
	Name        string
	Logger      *slog.Logger
	WorkerCount int // default: runtime.NumCPU()
	QueueSize   int // default: 64
}

// NewCPUWorkerPool creates a new CPU worker pool. Tasks may be submitted
// before Start; they wait in the queue.
func NewCPUWorkerPool(cfg CPUWorkerPoolConfig) *CPUWorkerPool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "cpu"
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	return &CPUWorkerPool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		queueSize:   queueSize,
		queue:       make(chan *workUnit, queueSize),
		stopped:     make(chan struct{}),
	}
}

// Name returns the pool name.
func (p *CPUWorkerPool) Name() string {
	return p.name
}

// Start runs the workers. Blocks until ctx is cancelled and every running
// task has returned. Tasks still queued at that point fail with
// ErrPoolStopped. Start must be called at most once.
func (p *CPUWorkerPool) Start(ctx context.Context) {
	p.logger.Info("cpu pool starting", "queue_size", p.queueSize)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	<-ctx.Done()
	p.mu.Lock()
	close(p.stopped)
	p.mu.Unlock()
	p.wg.Wait()
	p.drain()
	p.logger.Info("pool stopped")
}

// worker processes work units from the shared queue.
func (p *CPUWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	p.logger.Debug("cpu worker started", "worker_id", id)
	for {
		select {
		case <-ctx.Done():
			return

		case unit := <-p.queue:
			p.inFlight.Add(1)
			result := p.process(ctx, unit)
			p.inFlight.Add(-1)
			unit.result <- result
		}
	}
}

// drain fails every unit left in the queue.
func (p *CPUWorkerPool) drain() {
	for {
		select {
		case unit := <-p.queue:
			unit.result <- Result{TaskID: unit.task.ID, Err: ErrPoolStopped}
		default:
			return
		}
	}
}

// Submit queues a task without blocking. The returned channel receives
// exactly one Result.
func (p *CPUWorkerPool) Submit(task Task) (<-chan Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.stopped:
		return nil, ErrPoolStopped
	default:
	}

	unit := &workUnit{task: task, queuedAt: time.Now(), result: make(chan Result, 1)}
	select {
	case p.queue <- unit:
		p.logger.Debug("cpu pool accepted task", "task", task.Name, "task_id", task.ID, "queue_len", len(p.queue))
		return unit.result, nil
	default:
		p.logger.Warn("cpu pool queue full", "task", task.Name, "task_id", task.ID)
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, p.name)
	}
}

// Status returns current pool status.
func (p *CPUWorkerPool) Status() PoolStatus {
	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
		QueueSize:  p.queueSize,
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
	}
}

// process executes a work unit. A panicking task fails instead of taking
// the worker down.
func (p *CPUWorkerPool) process(ctx context.Context, unit *workUnit) (result Result) {
	start := time.Now()
	result.TaskID = unit.task.ID

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("task %s panicked: %v", unit.task.Name, r)
			p.logger.Error("task panicked", "task", unit.task.Name, "task_id", unit.task.ID, "panic", r)
		}
		result.Duration = time.Since(start)
		if result.Err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
	}()

	if unit.task.Run == nil {
		result.Err = fmt.Errorf("task %s has no Run function", unit.task.Name)
		return result
	}

	result.Err = unit.task.Run(ctx)
	if result.Err != nil {
		p.logger.Debug("task failed", "task", unit.task.Name, "task_id", unit.task.ID,
			"queued", start.Sub(unit.queuedAt), "error", result.Err)
		return result
	}
	p.logger.Debug("task completed", "task", unit.task.Name, "task_id", unit.task.ID,
		"queued", start.Sub(unit.queuedAt), "duration", time.Since(start))
	return result
}
