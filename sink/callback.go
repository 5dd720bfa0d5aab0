package sink

import (
	"context"

	"github.com/hazyhaar/navwatch/nav"
)

// EventFunc is called for each event (in-process, zero serialisation).
type EventFunc func(ctx context.Context, ev nav.Event) error

// Callback delivers events via a Go function call, for embedding navwatch
// in the same binary as its consumer.
type Callback struct {
	fn EventFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn EventFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, ev nav.Event) error {
	if c.fn != nil {
		return c.fn(ctx, ev)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
