package trace

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-market-auth/logging"
)

const redactedValue = "[REDACTED]"

type Config struct {
	Logger *slog.Logger
	// Generator returns a new trace identifier. Defaults to uuid.NewString.
	Generator func() string
	// LocalsKey is the router locals key holding *Context.
	LocalsKey string
	// Status resolves the status reported by the end event.
	// Defaults to ResponseStatus.
	Status func(c router.Context, err error) int
}

// DefaultLocalsKey is where the middleware stores *Context in router locals
const DefaultLocalsKey = "trace"

// New binds a trace identifier and scoped logger to every request and logs
// one start and one end event. The end event fires exactly once whether the
// handler returns, errors or panics.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			id := cfg.Generator()
			logger := cfg.Logger.With("trace_id", id)
			tc := &Context{TraceID: id, Logger: logger}

			attrs := []any{
				"method", c.Method(),
				"path", c.Path(),
			}
			if parent := strings.TrimSpace(c.Header(HeaderTraceID)); parent != "" {
				attrs = append(attrs, "parent_trace_id", parent)
			}
			attrs = append(attrs, headerGroup(c))

			c.Locals(cfg.LocalsKey, tc)
			c.SetContext(WithContext(c.Context(), tc))
			c.SetHeader(HeaderTraceID, id)

			logger.Info("request started", attrs...)

			start := time.Now()
			finished := false
			finish := func(status int) {
				if finished {
					return
				}
				finished = true
				logger.Info("request finished",
					"status", status,
					"duration", time.Since(start),
				)
			}

			defer func() {
				if r := recover(); r != nil {
					finish(fiber.StatusInternalServerError)
					panic(r)
				}
			}()

			err := c.Next()
			finish(cfg.Status(c, err))
			return err
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	if cfg.LocalsKey == "" {
		cfg.LocalsKey = DefaultLocalsKey
	}

	if cfg.Status == nil {
		cfg.Status = ResponseStatus
	}

	return cfg
}

// FromRouter returns the trace context stored by the middleware
func FromRouter(c router.Context) (*Context, bool) {
	tc, ok := c.Locals(DefaultLocalsKey).(*Context)
	return tc, ok && tc != nil
}

// ResponseStatus is the status the client will observe once the error
// handler has run. Without an error it reads the status exposed by
// ExposeStatus and assumes 200 when there is none.
func ResponseStatus(c router.Context, err error) int {
	if err != nil {
		return StatusFromError(err)
	}
	if status, ok := statusFromContext(c.Context()); ok {
		return status
	}
	return fiber.StatusOK
}

// StatusFromError maps err to the status the error handler renders
func StatusFromError(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code != 0 {
		return richErr.Code
	}

	return fiber.StatusInternalServerError
}

// ExposeStatus makes the fiber response status readable from the request
// context so router middleware can report it. Install it on the fiber app
// ahead of the routes.
func ExposeStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(withStatus(c.UserContext(), func() int {
			return c.Response().StatusCode()
		}))
		return c.Next()
	}
}

func headerGroup(c router.Context) slog.Attr {
	hc, ok := router.AsHTTPContext(c)
	if !ok || hc.Request() == nil {
		return slog.Group("headers")
	}

	attrs := make([]any, 0, len(hc.Request().Header))
	for key, values := range hc.Request().Header {
		v := strings.Join(values, ", ")
		if logging.IsSensitiveKey(key) {
			v = redactedValue
		}
		attrs = append(attrs, slog.String(key, v))
	}
	return slog.Group("headers", attrs...)
}
