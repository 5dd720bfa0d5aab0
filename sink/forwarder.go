package sink

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/navwatch/idgen"
	"github.com/hazyhaar/navwatch/nav"
)

// Forwarder stamps each snapshot it receives into an Event and sends it to
// a Sink. Its Notify method is an observer callback.
type Forwarder struct {
	ctx    context.Context
	sink   Sink
	source string
	newID  idgen.Generator
	now    func() time.Time
	logger *slog.Logger
	seq    atomic.Uint64
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithSource labels events with the observed host (e.g. the page URL).
func WithSource(source string) ForwarderOption {
	return func(f *Forwarder) { f.source = source }
}

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) ForwarderOption {
	return func(f *Forwarder) { f.newID = gen }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) ForwarderOption {
	return func(f *Forwarder) { f.now = now }
}

// WithForwarderLogger sets a custom logger.
func WithForwarderLogger(l *slog.Logger) ForwarderOption {
	return func(f *Forwarder) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewForwarder creates a Forwarder sending to s. ctx is passed to every Send.
func NewForwarder(ctx context.Context, s Sink, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		ctx:    ctx,
		sink:   s,
		newID:  idgen.Default,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Notify sends snap as the next event. Sink errors are logged, never
// returned: a failing backend must not disturb the observer.
func (f *Forwarder) Notify(snap *nav.Snapshot) {
	ev := nav.Event{
		ID:        f.newID(),
		Seq:       f.seq.Add(1),
		Source:    f.source,
		Timestamp: f.now().UnixMilli(),
		Snapshot:  snap,
	}
	if err := f.sink.Send(f.ctx, ev); err != nil {
		f.logger.Error("sink: forward event failed",
			"seq", ev.Seq, "path", snap.Location().String(), "error", err)
	}
}

// Seq returns the sequence number of the last event sent.
func (f *Forwarder) Seq() uint64 { return f.seq.Load() }
