// Package worker runs tasks one at a time, in submission order, on a
// single background goroutine.
package worker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panda19/prisonscore/internal/model"
)

// Task is a unit of background work
type Task func()

// Worker owns one goroutine draining an unbounded FIFO queue
type Worker struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []Task
	closed bool

	notify chan struct{}
	done   chan struct{}
}

// New starts a worker
func New(logger *slog.Logger) *Worker {
	w := &Worker{
		logger: logger,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit enqueues task. It never blocks.
func (w *Worker) Submit(task Task) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return model.ErrWorkerClosed
	}
	w.queue = append(w.queue, task)
	w.mu.Unlock()

	w.wake()
	return nil
}

// Close stops accepting tasks. Already queued tasks still run.
func (w *Worker) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.wake()
}

// Done is closed once the worker has drained its queue after Close
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until Done or timeout, reporting whether the queue drained
func (w *Worker) Wait(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.done:
		return true
	case <-t.C:
		return false
	}
}

// Pending returns the number of queued tasks not yet started
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Worker) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *Worker) next() (Task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false
	}
	task := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return task, true
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		task, ok := w.next()
		if ok {
			w.execute(task)
			continue
		}

		w.mu.Lock()
		closed := w.closed && len(w.queue) == 0
		w.mu.Unlock()
		if closed {
			return
		}
		<-w.notify
	}
}

func (w *Worker) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("background task panicked",
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	task()
}
