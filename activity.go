package auth

import (
	"context"
	"log/slog"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess ActivityEventType = "auth.login.success"
	ActivityEventLogout       ActivityEventType = "auth.logout"
)

// ActivityEvent captures audit-friendly information about a session change.
type ActivityEvent struct {
	EventType  ActivityEventType
	Subject    string
	Role       UserRole
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

// NormalizeActivitySink returns s, or a sink that drops events when s is nil
func NormalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// NewLogActivitySink writes every event as one info record on logger
func NewLogActivitySink(logger *slog.Logger) ActivitySink {
	if logger == nil {
		logger = slog.Default()
	}
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		attrs := []any{
			"event", string(event.EventType),
			"subject", event.Subject,
			"occurred_at", event.OccurredAt,
		}
		if event.Role != "" {
			attrs = append(attrs, "role", event.Role)
		}
		if len(event.Metadata) > 0 {
			attrs = append(attrs, "metadata", event.Metadata)
		}
		logger.InfoContext(ctx, "auth activity", attrs...)
		return nil
	})
}
