// Package mainloop provides the single-threaded context where all
// gameplay-visible state changes happen. Other goroutines hand work to it
// with Post and the loop runs that work once per tick.
package mainloop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTick matches a 20 TPS game server
const DefaultTick = 50 * time.Millisecond

// Loop is a queue of callbacks drained on one goroutine
type Loop struct {
	logger *slog.Logger
	tick   time.Duration

	mu    sync.Mutex
	queue []func()
}

// New creates a loop that drains every tick once Run is called
func New(logger *slog.Logger, tick time.Duration) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{logger: logger, tick: tick}
}

// Post queues fn to run on the loop. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// RunPending runs everything queued so far on the calling goroutine and
// returns how many callbacks ran. Callbacks posted meanwhile wait for the
// next drain.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.invoke(fn)
	}
	return len(batch)
}

// Pending returns the number of queued callbacks
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run drains the queue every tick until ctx is cancelled, then runs one
// final drain so nothing posted before shutdown is lost.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("main loop started", slog.Duration("tick", l.tick))
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.RunPending()
		case <-ctx.Done():
			n := l.RunPending()
			l.logger.Info("main loop stopped", slog.Int("final_drain", n))
			return
		}
	}
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("main loop callback panicked",
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	fn()
}
