package kit

import "context"

// Call describes the request an endpoint is serving. Transports fill it
// in; Logging reads it.
type Call struct {
	Transport string // "http" or "mcp"
	RequestID string
}

type callKey struct{}

// CallFrom returns the call carried by ctx. Transport defaults to "http".
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Transport == "" {
		c.Transport = "http"
	}
	return c
}

// WithTransport records the transport a call arrived on.
func WithTransport(ctx context.Context, t string) context.Context {
	c, _ := ctx.Value(callKey{}).(Call)
	c.Transport = t
	return context.WithValue(ctx, callKey{}, c)
}

// WithRequestID records the request ID assigned by the HTTP router.
func WithRequestID(ctx context.Context, id string) context.Context {
	c, _ := ctx.Value(callKey{}).(Call)
	c.RequestID = id
	return context.WithValue(ctx, callKey{}, c)
}
