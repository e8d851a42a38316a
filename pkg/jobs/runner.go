package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of deferred work, such as copying a rendered export into
// the archive.
type Task struct {
	ID       string
	Kind     string
	Payload  interface{}
	Attempts int
	QueuedAt time.Time
}

// HandlerFunc executes a task. A non-nil error schedules a retry until the
// attempt budget runs out.
type HandlerFunc func(context.Context, Task) error

// Options tunes the worker pool. Zero values fall back to small defaults
// sized for the export archive workload.
type Options struct {
	Workers   int
	Backlog   int
	MaxRetry  int
	RetryWait time.Duration
	Logger    *zap.Logger
}

// Runner dispatches tasks to a fixed pool of goroutines over a buffered
// channel. It holds no external state; tasks not yet handled are lost on
// shutdown.
type Runner struct {
	name    string
	handler HandlerFunc
	opts    Options

	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewRunner builds a runner for the named task stream.
func NewRunner(name string, handler HandlerFunc, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backlog <= 0 {
		opts.Backlog = opts.Workers * 4
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Runner{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task, opts.Backlog),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	r.running = true
	r.opts.Logger.Info("task runner started",
		zap.String("runner", r.name),
		zap.Int("workers", r.opts.Workers))
}

// Stop cancels the workers and blocks until they exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.opts.Logger.Info("task runner stopped", zap.String("runner", r.name))
}

// Submit hands a task to the pool, blocking while the backlog is full.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	ctx := r.ctx
	running := r.running
	r.mu.Unlock()

	if !running {
		return fmt.Errorf("runner %s not started", r.name)
	}
	if task.QueuedAt.IsZero() {
		task.QueuedAt = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("runner %s stopped: %w", r.name, ctx.Err())
	case r.tasks <- task:
		return nil
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case task := <-r.tasks:
			if err := r.handler(r.ctx, task); err != nil {
				r.retry(task, err)
			}
		}
	}
}

func (r *Runner) retry(task Task, cause error) {
	task.Attempts++
	if task.Attempts > r.opts.MaxRetry {
		r.opts.Logger.Error("task dropped after retries",
			zap.String("runner", r.name),
			zap.String("task_id", task.ID),
			zap.String("kind", task.Kind),
			zap.Error(cause))
		return
	}
	r.opts.Logger.Warn("task failed, will retry",
		zap.String("runner", r.name),
		zap.String("task_id", task.ID),
		zap.String("kind", task.Kind),
		zap.Int("attempt", task.Attempts),
		zap.Error(cause))

	timer := time.AfterFunc(r.opts.RetryWait, func() {
		if err := r.Submit(task); err != nil {
			r.opts.Logger.Error("failed to resubmit task",
				zap.String("runner", r.name),
				zap.String("task_id", task.ID),
				zap.Error(err))
		}
	})
	go func() {
		<-r.ctx.Done()
		timer.Stop()
	}()
}
