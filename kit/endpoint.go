// Package kit holds the transport-neutral plumbing shared by the HTTP and
// MCP surfaces: endpoints, middleware and request-scoped context values.
package kit

import "context"

// Endpoint is one operation, independent of the transport that carries it.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
