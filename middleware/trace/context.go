package trace

import (
	"context"
	"log/slog"
)

// HeaderTraceID carries the trace identifier between tiers
const HeaderTraceID = "X-Trace-ID"

// Context is the per-request trace state. It is created once when the
// request enters the server and is never shared across requests.
type Context struct {
	TraceID string
	Logger  *slog.Logger
}

type contextKey struct{ name string }

var traceCtxKey = contextKey{"trace"}

// WithContext returns a context carrying tc
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, traceCtxKey, tc)
}

// FromContext returns the trace context and true if set; otherwise nil, false.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	tc, ok := ctx.Value(traceCtxKey).(*Context)
	return tc, ok && tc != nil
}

// ID returns the trace identifier bound to ctx, or "".
func ID(ctx context.Context) string {
	if tc, ok := FromContext(ctx); ok {
		return tc.TraceID
	}
	return ""
}

// Logger returns the request scoped logger, falling back to slog.Default.
func Logger(ctx context.Context) *slog.Logger {
	if tc, ok := FromContext(ctx); ok && tc.Logger != nil {
		return tc.Logger
	}
	return slog.Default()
}

var statusCtxKey = contextKey{"status"}

func withStatus(ctx context.Context, read func() int) context.Context {
	return context.WithValue(ctx, statusCtxKey, read)
}

func statusFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	read, ok := ctx.Value(statusCtxKey).(func() int)
	if !ok || read == nil {
		return 0, false
	}
	return read(), true
}
