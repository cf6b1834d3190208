// SPDX-License-Identifier: MIT
package field

import (
	"audiostate/internal/log"
	"sync"
	"time"
)

// DefaultInterval is the field loop period, about 60 Hz.
const DefaultInterval = 16 * time.Millisecond

var logger = log.Component("Field")

// Runner ticks a Collection on a fixed interval in its own goroutine.
type Runner struct {
	collection *Collection
	interval   time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	ticks uint64
}

// NewRunner returns a stopped runner. A non-positive interval selects
// DefaultInterval.
func NewRunner(c *Collection, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{collection: c, interval: interval}
}

// Start launches the loop. Calling Start on a running runner does nothing.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.ticker != nil {
		r.mu.Unlock()
		logger.Debugf("Start called but already running")
		return
	}
	r.ticker = time.NewTicker(r.interval)
	r.doneChan = make(chan struct{})
	r.stopOnce = sync.Once{}
	ticker, done := r.ticker, r.doneChan
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		logger.Debugf("Loop started (Interval: %s)", r.interval)
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				r.collection.Tick(now.Sub(last).Seconds())
				last = now
				r.mu.Lock()
				r.ticks++
				r.mu.Unlock()
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit. Calling Stop on a stopped
// runner does nothing.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.ticker == nil {
		r.mu.Unlock()
		return
	}
	r.stopOnce.Do(func() {
		close(r.doneChan)
		r.ticker.Stop()
		r.ticker = nil
	})
	r.mu.Unlock()

	r.wg.Wait()
	logger.Debugf("Loop stopped")
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticker != nil
}

// Ticks returns how many ticks have run since construction.
func (r *Runner) Ticks() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Close stops the runner.
func (r *Runner) Close() error {
	r.Stop()
	return nil
}
