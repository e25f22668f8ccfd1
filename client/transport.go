package client

import (
	"context"
	"log/slog"
	"net/http"
)

// HeaderTraceID carries the trace id across tiers
const HeaderTraceID = "X-Trace-ID"

// Transport attaches the stored bearer token to outgoing requests and tears
// the session down on 401.
type Transport struct {
	Base         http.RoundTripper
	Store        Store
	Invalidation *Invalidation
	// TraceID returns the trace id to forward for a request context
	TraceID func(ctx context.Context) string
	Logger  *slog.Logger
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	token, attached := t.Store.Token()
	if attached {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	if t.TraceID != nil && out.Header.Get(HeaderTraceID) == "" {
		if id := t.TraceID(req.Context()); id != "" {
			out.Header.Set(HeaderTraceID, id)
		}
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.invalidate(req.Context(), attached)
	}
	return resp, nil
}

// invalidate clears the store when the rejected request carried a token.
// Only the call that removed it emits, so concurrent 401s produce one signal.
// A request sent without a token always emits and leaves the store alone,
// since a session may have been stored while it was in flight.
func (t *Transport) invalidate(ctx context.Context, attached bool) {
	if !attached {
		t.logger().InfoContext(ctx, "anonymous request unauthorized", "reason", ReasonUnauthorized)
		t.emit()
		return
	}

	removed, err := t.Store.Clear()
	if err != nil {
		t.logger().ErrorContext(ctx, "failed to clear session", "error", err)
		return
	}
	if !removed {
		return
	}

	t.logger().InfoContext(ctx, "session invalidated", "reason", ReasonUnauthorized)
	t.emit()
}

func (t *Transport) emit() {
	if t.Invalidation != nil {
		t.Invalidation.Emit(ReasonUnauthorized)
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
