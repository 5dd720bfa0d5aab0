package schedule

import (
	"sync"
	"time"
)

// Manual is a Scheduler that only fires when Tick is called. It records how
// many recurring actions were ever started and how many are still active.
type Manual struct {
	mu      sync.Mutex
	next    int
	started int
	active  map[int]*manualHandle
}

// NewManual creates an idle Manual scheduler.
func NewManual() *Manual {
	return &Manual{active: make(map[int]*manualHandle)}
}

func (m *Manual) Every(interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	m.started++
	h := &manualHandle{m: m, id: m.next, interval: interval, fn: fn}
	m.active[h.id] = h
	return h
}

// Tick fires every handle active when Tick was called, oldest first.
// Handles started or stopped by a fired fn take effect on the next Tick.
func (m *Manual) Tick() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.active))
	for id := 1; id <= m.next; id++ {
		if h, ok := m.active[id]; ok {
			fns = append(fns, h.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active returns the number of handles not yet stopped.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Started returns the total number of Every calls.
func (m *Manual) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Intervals returns the interval of each active handle, oldest first.
func (m *Manual) Intervals() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Duration
	for id := 1; id <= m.next; id++ {
		if h, ok := m.active[id]; ok {
			out = append(out, h.interval)
		}
	}
	return out
}

type manualHandle struct {
	m        *Manual
	id       int
	interval time.Duration
	fn       func()
}

func (h *manualHandle) Stop() {
	h.m.mu.Lock()
	delete(h.m.active, h.id)
	h.m.mu.Unlock()
}
