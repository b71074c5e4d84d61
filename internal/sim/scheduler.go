package sim

import (
	"context"
	"math"
	"time"
)

const (
	minTickInterval = time.Millisecond
	maxTickInterval = time.Duration(math.MaxInt64)
)

// run is the state of one Running period. The engine holds a non-nil run
// exactly while it is Running.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartSim resets time to zero and starts stepping every dt seconds of
// wall time. It reports whether the engine was stopped; starting a running
// engine is a no-op.
func (e *Engine) StartSim() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != nil {
		e.log.Debug("start ignored", "error", ErrInvalidTransition)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{})}
	e.run = r
	e.time = 0

	go e.loop(ctx, r)

	e.log.Info("simulation started", "bodies", e.store.Len(), "dt", e.cfg.Dt, "speed", e.cfg.Speed)
	return true
}

// StopSim cancels the next tick and waits for the stepping goroutine to
// exit. A tick already in progress completes. It reports whether the
// engine was running; stopping a stopped engine is a no-op.
func (e *Engine) StopSim() bool {
	e.mu.Lock()
	r := e.run
	if r == nil {
		e.mu.Unlock()
		e.log.Debug("stop ignored", "error", ErrInvalidTransition)
		return false
	}
	e.run = nil
	// cancelled under the lock: a tick that has not taken the lock yet
	// sees the cancellation and does not step
	r.cancel()
	t := e.time
	e.mu.Unlock()

	<-r.done
	e.log.Info("simulation stopped", "time", t)
	return true
}

func (e *Engine) loop(ctx context.Context, r *run) {
	defer close(r.done)

	timer := time.NewTimer(e.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if !e.tick(ctx) {
			return
		}
		timer.Reset(e.interval())
	}
}

func (e *Engine) tick(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	e.step()
	return true
}

func (e *Engine) interval() time.Duration {
	e.mu.RLock()
	dt := e.cfg.Dt
	e.mu.RUnlock()
	return tickInterval(dt)
}

// tickInterval converts dt seconds to a tick period within
// [minTickInterval, maxTickInterval].
func tickInterval(dt float64) time.Duration {
	ns := dt * float64(time.Second)
	if ns >= float64(maxTickInterval) {
		return maxTickInterval
	}
	d := time.Duration(ns)
	if d < minTickInterval {
		d = minTickInterval
	}
	return d
}
