package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SerialExecutor runs queued functions one at a time, in queue order, on a
// single worker goroutine. It is the only goroutine allowed to touch the
// state it guards.
//
// Commands (Submit, Call) are rejected with ErrQueueFull when the queue is
// full. Posted functions are never rejected for lack of room: they wait in
// an unbounded backlog, in posting order, until the queue has space.
type SerialExecutor struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger

	mu       sync.Mutex
	backlog  []Task
	stopping bool
	wake     chan struct{}

	stopOnce   sync.Once
	cancelPump context.CancelFunc
	pumpDone   chan struct{}
	stopped    chan struct{}
}

// NewSerialExecutor creates and starts an executor whose queue holds at most
// queueSize pending commands.
func NewSerialExecutor(queueSize int, logger *slog.Logger) *SerialExecutor {
	if queueSize <= 0 {
		queueSize = 1
	}

	queue := NewTaskQueue(queueSize, logger)
	pool := NewWorkerPool(queue, DefaultWorkerPoolConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	e := &SerialExecutor{
		queue:      queue,
		pool:       pool,
		logger:     logger,
		wake:       make(chan struct{}, 1),
		cancelPump: cancel,
		pumpDone:   make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	pool.SetErrorHandler(e.taskFailed)
	pool.Start()
	go e.pump(ctx)

	return e
}

// Submit queues fn without waiting for it to run.
// Returns ErrQueueFull or ErrQueueClosed when fn cannot be queued.
func (e *SerialExecutor) Submit(taskType string, fn func()) error {
	return e.enqueue(newExecutorTask(taskType, fn))
}

// Call queues fn and waits until it has run or ctx is done.
//
// Call must not be used from inside a function running on the same executor,
// since the worker would wait on itself.
func (e *SerialExecutor) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	err := e.enqueue(newExecutorTask(TaskTypeGameCommand, func() {
		defer close(done)
		fn()
	}))
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for queued call: %w", ctx.Err())
	case <-e.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrQueueClosed
		}
	}
}

// Post queues fn behind everything already posted without blocking the
// caller. It fails only once the executor is stopping.
func (e *SerialExecutor) Post(taskType string, fn func()) error {
	e.mu.Lock()
	if e.stopping {
		e.mu.Unlock()
		return ErrQueueClosed
	}
	e.backlog = append(e.backlog, newExecutorTask(taskType, fn))
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop refuses new work, runs whatever is already queued and waits for the
// worker to exit. Posted functions still in the backlog are discarded. It is
// safe to call more than once.
func (e *SerialExecutor) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.stopping = true
		discarded := len(e.backlog)
		e.backlog = nil
		e.mu.Unlock()

		e.cancelPump()
		e.queue.Close()
		<-e.pumpDone
		e.pool.Drain()
		close(e.stopped)
		e.logger.Debug("executor stopped", "discarded_posts", discarded)
	})
}

func (e *SerialExecutor) enqueue(t Task) error {
	err := e.queue.Enqueue(t)
	if errors.Is(err, ErrQueueFull) {
		e.logger.Warn("rejecting task, queue full",
			"task_type", t.Type(),
			"queue_len", e.queue.Len())
	}
	return err
}

// pump moves posted functions from the backlog into the queue, waiting for
// room whenever the queue is full.
func (e *SerialExecutor) pump(ctx context.Context) {
	defer close(e.pumpDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		}

		for {
			e.mu.Lock()
			if len(e.backlog) == 0 {
				e.mu.Unlock()
				break
			}
			next := e.backlog[0]
			e.backlog = e.backlog[1:]
			e.mu.Unlock()

			if err := e.queue.EnqueueWait(ctx, next); err != nil {
				return
			}
		}
	}
}

func (e *SerialExecutor) taskFailed(t Task, err error) {
	e.logger.Error("game task failed",
		"task_id", t.ID(),
		"task_type", t.Type(),
		"queue_len", e.queue.Len(),
		"error", err)
}

func newExecutorTask(taskType string, fn func()) *FuncTask {
	return NewFuncTask(taskType, func(context.Context) error {
		fn()
		return nil
	})
}
