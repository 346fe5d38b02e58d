package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/reader/internal/testutil"
)

func startPool(t *testing.T, cfg CPUWorkerPoolConfig) (*CPUWorkerPool, context.CancelFunc) {
	t.Helper()
	cfg.Logger = testutil.Logger()
	p := NewCPUWorkerPool(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p, cancel
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestCPUWorkerPool_RunsTasks(t *testing.T) {
	p, _ := startPool(t, CPUWorkerPoolConfig{WorkerCount: 2})

	var ran atomic.Int32
	var chans []<-chan Result
	for i := 0; i < 10; i++ {
		ch, err := p.Submit(Task{ID: "t", Name: "count", Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		chans = append(chans, ch)
	}
	for _, ch := range chans {
		if r := waitResult(t, ch); r.Err != nil {
			t.Errorf("task error = %v", r.Err)
		}
	}
	if ran.Load() != 10 {
		t.Errorf("ran = %d, want 10", ran.Load())
	}
	if s := p.Status(); s.Completed != 10 || s.Failed != 0 {
		t.Errorf("status = %+v", s)
	}
}

func TestCPUWorkerPool_TaskErrorAndPanic(t *testing.T) {
	p, _ := startPool(t, CPUWorkerPoolConfig{WorkerCount: 1})
	boom := errors.New("boom")

	ch, _ := p.Submit(Task{Name: "fail", Run: func(ctx context.Context) error { return boom }})
	if r := waitResult(t, ch); !errors.Is(r.Err, boom) {
		t.Errorf("error = %v, want boom", r.Err)
	}

	ch, _ = p.Submit(Task{Name: "panic", Run: func(ctx context.Context) error { panic("bad") }})
	if r := waitResult(t, ch); r.Err == nil {
		t.Error("panicking task should fail")
	}

	ch, _ = p.Submit(Task{Name: "empty"})
	if r := waitResult(t, ch); r.Err == nil {
		t.Error("task without Run should fail")
	}

	// the single worker survived the panic
	ch, _ = p.Submit(Task{Name: "ok", Run: func(ctx context.Context) error { return nil }})
	if r := waitResult(t, ch); r.Err != nil {
		t.Errorf("error = %v", r.Err)
	}
	if s := p.Status(); s.Failed != 3 || s.Completed != 1 {
		t.Errorf("status = %+v", s)
	}
}

func TestCPUWorkerPool_QueueFull(t *testing.T) {
	p, _ := startPool(t, CPUWorkerPoolConfig{WorkerCount: 1, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	blocker := Task{Name: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}
	first, err := p.Submit(blocker)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	queued, err := p.Submit(Task{Name: "queued", Run: func(ctx context.Context) error { return nil }})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := p.Submit(Task{Name: "overflow", Run: func(ctx context.Context) error { return nil }}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Submit() error = %v, want ErrQueueFull", err)
	}

	close(release)
	waitResult(t, first)
	waitResult(t, queued)
}

func TestCPUWorkerPool_TaskOutlivesSubmitter(t *testing.T) {
	p, _ := startPool(t, CPUWorkerPoolConfig{WorkerCount: 1})

	var wg sync.WaitGroup
	wg.Add(1)
	var finished atomic.Bool

	// The submitter stops waiting immediately; the task still runs.
	_, err := p.Submit(Task{Name: "slow", Run: func(ctx context.Context) error {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(ctx.Err() == nil)
		return nil
	}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	wg.Wait()
	if !finished.Load() {
		t.Error("task context was cancelled")
	}
}

func TestCPUWorkerPool_Stop(t *testing.T) {
	p := NewCPUWorkerPool(CPUWorkerPoolConfig{WorkerCount: 1, Logger: testutil.Logger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// queued before Start, never picked up because ctx is already done
	ch, err := p.Submit(Task{Name: "never", Run: func(ctx context.Context) error {
		return ctx.Err()
	}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	p.Start(ctx)

	r := waitResult(t, ch)
	if r.Err == nil {
		t.Error("queued task should fail on shutdown")
	}
	if _, err := p.Submit(Task{Name: "late"}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Submit() after stop error = %v, want ErrPoolStopped", err)
	}
}
