// Package api exposes a running observer over HTTP (chi) and MCP.
// Both transports share the same kit endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/navwatch/kit"
	"github.com/hazyhaar/navwatch/nav"
	"github.com/hazyhaar/navwatch/observer"
)

// DefaultHistoryLimit bounds history queries without an explicit limit.
const DefaultHistoryLimit = 50

// ErrInvalidRequest marks a request rejected before reaching the host.
var ErrInvalidRequest = errors.New("invalid request")

// Navigator is the part of an observer the API drives.
type Navigator interface {
	Location() *nav.Snapshot
	Push(ctx context.Context, path string, state any) error
	Stats() observer.Stats
}

// History returns recorded navigation events, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]nav.Event, error)
}

// PushRequest is the body of a push, on either transport.
type PushRequest struct {
	Path  string `json:"path"`
	State any    `json:"state"`
}

// HistoryRequest selects how many recent events to return.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// Server holds the endpoints.
type Server struct {
	nav     Navigator
	history History
	logger  *slog.Logger

	location kit.Endpoint
	push     kit.Endpoint
	stats    kit.Endpoint
	recent   kit.Endpoint
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the history endpoint and tool.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a Server over n.
func New(n Navigator, opts ...Option) *Server {
	s := &Server{nav: n}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.location = s.wrap("location", s.locationEndpoint)
	s.push = s.wrap("push", s.pushEndpoint)
	s.stats = s.wrap("stats", s.statsEndpoint)
	if s.history != nil {
		s.recent = s.wrap("history", s.historyEndpoint)
	}
	return s
}

func (s *Server) wrap(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(logging(s.logger, name))(e)
}

func (s *Server) locationEndpoint(_ context.Context, _ any) (any, error) {
	return s.nav.Location(), nil
}

func (s *Server) pushEndpoint(ctx context.Context, req any) (any, error) {
	r, ok := req.(PushRequest)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected request %T", ErrInvalidRequest, req)
	}
	if r.Path == "" {
		return nil, fmt.Errorf("%w: path required", ErrInvalidRequest)
	}
	if err := s.nav.Push(ctx, r.Path, r.State); err != nil {
		return nil, err
	}
	return map[string]string{"status": "pushed", "path": r.Path}, nil
}

func (s *Server) statsEndpoint(_ context.Context, _ any) (any, error) {
	return s.nav.Stats(), nil
}

func (s *Server) historyEndpoint(ctx context.Context, req any) (any, error) {
	r, _ := req.(HistoryRequest)
	if r.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidRequest)
	}
	if r.Limit == 0 {
		r.Limit = DefaultHistoryLimit
	}
	events, err := s.history.Recent(ctx, r.Limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []nav.Event{}
	}
	return events, nil
}

// logging logs endpoint failures with the transport and request id.
func logging(logger *slog.Logger, name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				logger.Warn("api: endpoint failed",
					"endpoint", name,
					"transport", kit.GetTransport(ctx),
					"request_id", kit.GetRequestID(ctx),
					"duration", time.Since(start),
					"error", err)
				return nil, err
			}
			logger.Debug("api: endpoint",
				"endpoint", name,
				"transport", kit.GetTransport(ctx),
				"request_id", kit.GetRequestID(ctx),
				"duration", time.Since(start))
			return resp, nil
		}
	}
}
