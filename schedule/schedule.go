// Package schedule provides the recurring-timer primitive used to drive poll
// loops. Scheduler is an interface so the polling cadence can be replaced by
// a Manual scheduler in tests.
package schedule

import (
	"sync"
	"time"
)

// Scheduler runs fn repeatedly every interval until the returned Handle is
// stopped. Calls to fn on one handle never overlap.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// Handle cancels a recurring action. Stop is idempotent and never waits for
// an in-flight call to fn, so it is safe to call from within fn.
type Handle interface {
	Stop()
}

// Ticker is the wall-clock Scheduler backed by time.Ticker. One goroutine
// per active handle.
type Ticker struct{}

// Every starts a goroutine that calls fn on each tick.
func (Ticker) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{done: make(chan struct{})}
	t := time.NewTicker(interval)

	go func() {
		defer t.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-t.C:
				// Stop may race with a tick that is already pending.
				select {
				case <-h.done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return h
}

type tickerHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}
