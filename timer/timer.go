// Package timer implements the CHIP-8 delay and sound countdown timers.
package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const PERIOD = time.Second / 60 // Decrement period.

// Timer is an 8-bit counter that, once started, decrements itself by one
// every Period until it reaches zero. Set and Get are safe to call while
// the countdown runs.
type Timer struct {
	Period time.Duration // Zero means PERIOD.

	value atomic.Uint32

	mutex   sync.Mutex
	running context.Context // Context of the live countdown, if any.
}

// Set overwrites the counter.
func (tm *Timer) Set(value uint8) {
	tm.value.Store(uint32(value))
}

// Get reads the counter.
func (tm *Timer) Get() uint8 {
	return uint8(tm.value.Load())
}

// Start begins the countdown on a background goroutine, which runs until
// ctx is done. Calls while a countdown is live do nothing; once its context
// is done, Start launches a new one.
func (tm *Timer) Start(ctx context.Context) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tm.running != nil && tm.running.Err() == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	period := tm.Period
	if period <= 0 {
		period = PERIOD
	}

	tm.running = ctx
	go tm.run(ctx, period)
}

// Running is true while a countdown goroutine is live.
func (tm *Timer) Running() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	return tm.running != nil && tm.running.Err() == nil
}

func (tm *Timer) run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			tm.decrement()
		}
	}
}

// decrement lowers a non-zero counter by one. A Set racing with the
// decrement wins.
func (tm *Timer) decrement() {
	for {
		value := tm.value.Load()
		if value == 0 {
			return
		}
		if tm.value.CompareAndSwap(value, value-1) {
			return
		}
	}
}
