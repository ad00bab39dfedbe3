package animate

import (
	"context"
	"sync"
	"time"
)

// Sink receives highlight changes from a running pulse.
type Sink interface {
	On(index int)
	Off(index int)
	// Clear removes every highlight; called when a run is cancelled.
	Clear()
}

// Controller plays pulses one at a time. It is safe for concurrent use.
type Controller struct {
	timing Timing

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController returns a controller using t.
func NewController(t Timing) *Controller {
	return &Controller{timing: t}
}

// Timing returns the schedule parameters.
func (c *Controller) Timing() Timing { return c.timing }

// Start cancels any running pulse, waits until it has cleared its sink, and
// then plays a pulse over n connectors into sink. The returned channel is
// closed when the new run finishes or is cancelled.
func (c *Controller) Start(ctx context.Context, n int, sink Sink) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	events := Events(n, c.timing)
	go func() {
		defer close(done)
		play(runCtx, events, sink)
		// Release the run context once the pulse ends on its own.
		cancel()
	}()
	return done
}

// Cancel stops the running pulse, if any, and waits for its sink to be cleared.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether a pulse is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (c *Controller) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel, c.done = nil, nil
}

// play emits events at their offsets from the start of the run. On
// cancellation it clears the sink and returns.
func play(ctx context.Context, events []Event, sink Sink) {
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, ev := range events {
		if wait := ev.At - time.Since(start); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				sink.Clear()
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			sink.Clear()
			return
		}
		if ev.On {
			sink.On(ev.Index)
		} else {
			sink.Off(ev.Index)
		}
	}
}
