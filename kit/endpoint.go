// Package kit holds the transport-neutral plumbing shared by repli's control
// surfaces: an Endpoint is written once and exposed over HTTP and MCP.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is one control operation.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs every call of the wrapped endpoint with its transport,
// request id and duration.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			call := CallFrom(ctx)
			attrs := []any{
				"endpoint", name,
				"transport", call.Transport,
				"duration", time.Since(start),
			}
			if call.RequestID != "" {
				attrs = append(attrs, "request_id", call.RequestID)
			}
			if err != nil {
				logger.Warn("kit: endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("kit: endpoint", attrs...)
			}
			return resp, err
		}
	}
}
