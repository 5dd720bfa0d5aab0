// Package observer detects changes to a host's navigation state by polling
// and notifies subscribers.
//
// Polling runs only while at least one subscriber exists: the first
// Subscribe starts one recurring timer, the last unsubscribe stops it.
// Every tick reads the host, compares it with the stored snapshot, and on a
// difference replaces the snapshot and calls every subscriber with it.
package observer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/navwatch/host"
	"github.com/hazyhaar/navwatch/idgen"
	"github.com/hazyhaar/navwatch/nav"
	"github.com/hazyhaar/navwatch/schedule"
)

// DefaultInterval is the poll cadence when Options.Interval is unset.
const DefaultInterval = 100 * time.Millisecond

// Unsubscribe removes a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Options tunes the observer.
type Options struct {
	// Interval between poll ticks. Default: 100ms.
	Interval time.Duration
	// Scheduler drives the poll loop. Default: schedule.Ticker.
	Scheduler schedule.Scheduler
	// IDs generates subscription tokens. Default: idgen.Default.
	IDs idgen.Generator
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Scheduler == nil {
		o.Scheduler = schedule.Ticker{}
	}
	if o.IDs == nil {
		o.IDs = idgen.Default
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Subscribers   int   `json:"subscribers"`
	Polling       bool  `json:"polling"`
	Ticks         int64 `json:"ticks"`
	Changes       int64 `json:"changes_detected"`
	Errors        int64 `json:"errors"`
	Notifications int64 `json:"notifications"`
}

// Observer owns the current snapshot, the subscriber registry and the poll
// handle. Safe for concurrent use; callbacks may call back into it.
type Observer struct {
	ctx    context.Context
	host   host.Host
	opts   Options
	logger *slog.Logger

	// tickMu serialises ticks across handle restarts.
	tickMu sync.Mutex

	mu      sync.Mutex
	current *nav.Snapshot
	subs    *registry
	poll    schedule.Handle // nil while polling is OFF
	gen     uint64          // incremented on every start; stale ticks are dropped

	ticks         atomic.Int64
	changes       atomic.Int64
	errors        atomic.Int64
	notifications atomic.Int64
}

// New reads h once to take the initial snapshot. Polling starts with the
// first subscription. ctx bounds every host read made by the observer.
func New(ctx context.Context, h host.Host, opts Options) (*Observer, error) {
	opts.defaults()

	r, err := h.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("observer: initial read: %w", err)
	}

	return &Observer{
		ctx:     ctx,
		host:    h,
		opts:    opts,
		logger:  opts.Logger,
		current: nav.NewSnapshot(r.State, r.Location),
		subs:    newRegistry(),
	}, nil
}

// Subscribe registers cb and starts polling if it is the first subscriber.
// The returned function removes cb and stops polling if none remain.
func (o *Observer) Subscribe(cb Callback) Unsubscribe {
	id := Token(o.opts.IDs())

	o.mu.Lock()
	wasEmpty := o.subs.empty()
	o.subs.add(id, cb)
	o.transitionLocked(wasEmpty)
	o.mu.Unlock()

	return func() { o.unsubscribe(id) }
}

// Listen is Subscribe under the name used by history libraries.
func (o *Observer) Listen(cb Callback) Unsubscribe {
	return o.Subscribe(cb)
}

func (o *Observer) unsubscribe(id Token) {
	o.mu.Lock()
	defer o.mu.Unlock()

	wasEmpty := o.subs.empty()
	if !o.subs.remove(id) {
		return
	}
	o.transitionLocked(wasEmpty)
}

// transitionLocked applies the polling lifecycle after a registry change.
func (o *Observer) transitionLocked(wasEmpty bool) {
	isEmpty := o.subs.empty()
	switch {
	case wasEmpty && !isEmpty:
		o.gen++
		gen := o.gen
		o.poll = o.opts.Scheduler.Every(o.opts.Interval, func() { o.tick(gen) })
		o.logger.Debug("observer: polling started", "interval", o.opts.Interval)
	case !wasEmpty && isEmpty:
		o.poll.Stop()
		o.poll = nil
		o.logger.Debug("observer: polling stopped")
	}
}

// tick compares the host with the stored snapshot and fans out on change.
// Callbacks run without o.mu held and see the registry as it was when
// iteration began.
func (o *Observer) tick(gen uint64) {
	o.tickMu.Lock()
	defer o.tickMu.Unlock()

	if !o.live(gen) {
		return
	}
	o.ticks.Add(1)

	r, err := o.host.Read(o.ctx)
	if err != nil {
		o.errors.Add(1)
		o.logger.Warn("observer: read navigation state failed", "error", err)
		return
	}

	o.mu.Lock()
	if o.poll == nil || o.gen != gen {
		o.mu.Unlock()
		return
	}
	if !o.current.IsUpdated(r.State, r.Location) {
		o.mu.Unlock()
		return
	}
	snap := nav.NewSnapshot(r.State, r.Location)
	o.current = snap
	callbacks := o.subs.callbacks()
	o.mu.Unlock()

	o.changes.Add(1)
	o.logger.Info("observer: navigation change detected",
		"path", snap.Location().String(), "subscribers", len(callbacks))

	for _, cb := range callbacks {
		cb(snap)
		o.notifications.Add(1)
	}
}

func (o *Observer) live(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.poll != nil && o.gen == gen
}

// Push writes a new history entry through the host with an empty title.
// The stored snapshot is not touched; the next tick picks up the change.
func (o *Observer) Push(ctx context.Context, path string, state any) error {
	if err := o.host.PushState(ctx, state, "", path); err != nil {
		return fmt.Errorf("observer: push %s: %w", path, err)
	}
	return nil
}

// Location returns the current stored snapshot.
func (o *Observer) Location() *nav.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Polling reports whether the poll timer is active.
func (o *Observer) Polling() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.poll != nil
}

// Len returns the number of registered subscribers.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.subs.len()
}

// Stats returns the current counters.
func (o *Observer) Stats() Stats {
	o.mu.Lock()
	s := Stats{Subscribers: o.subs.len(), Polling: o.poll != nil}
	o.mu.Unlock()

	s.Ticks = o.ticks.Load()
	s.Changes = o.changes.Load()
	s.Errors = o.errors.Load()
	s.Notifications = o.notifications.Load()
	return s
}
