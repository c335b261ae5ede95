// Package watchdog cancels a context after a period without activity.
package watchdog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrIdle is the cancellation cause when the idle period elapsed.
var ErrIdle = errors.New("no activity within idle timeout")

// Watchdog watches for activity reported through Touch.
type Watchdog struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	idle   time.Duration

	last     atomic.Int64 // unix nanos of the last Touch
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start begins watching. The returned watchdog's Context is cancelled with
// cause ErrIdle once idle passes without a Touch. A non-positive idle
// disables the timer; the context then ends only with parent or Stop.
func Start(parent context.Context, idle time.Duration) *Watchdog {
	ctx, cancel := context.WithCancelCause(parent)
	w := &Watchdog{
		ctx:    ctx,
		cancel: cancel,
		idle:   idle,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	w.Touch()

	if idle <= 0 {
		close(w.done)
		return w
	}
	go w.run()
	return w
}

func (w *Watchdog) run() {
	defer close(w.done)

	interval := w.idle / 4
	if interval > time.Second {
		interval = time.Second
	}
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Since(time.Unix(0, w.last.Load())) >= w.idle {
				w.cancel(ErrIdle)
				return
			}
		case <-w.ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}
}

// Context is cancelled on idle timeout, parent cancellation or Stop.
func (w *Watchdog) Context() context.Context { return w.ctx }

// Touch records activity and postpones the timeout.
func (w *Watchdog) Touch() {
	w.last.Store(time.Now().UnixNano())
}

// Stop ends the timer and releases the context. It is safe to call more
// than once and from several goroutines.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.done
		w.cancel(context.Canceled)
	})
}

// Expired reports whether the context ended because of the idle timeout.
func (w *Watchdog) Expired() bool {
	return errors.Is(context.Cause(w.ctx), ErrIdle)
}
