// Package sink defines output backends for navigation events. A Forwarder
// turns any Sink into an observer callback.
package sink

import (
	"context"

	"github.com/hazyhaar/navwatch/nav"
)

// Sink delivers navigation events to a backend (stdout, webhook, SQLite
// journal, in-process callback).
type Sink interface {
	Send(ctx context.Context, ev nav.Event) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
