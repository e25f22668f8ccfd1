// Package server assembles the router served by the fiber adapter: shared
// middleware, the OTP flow, logout, the admin gated API, health and metrics.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/metrics"
	"github.com/goliatone/go-market-auth/middleware/jwtware"
	"github.com/goliatone/go-market-auth/middleware/trace"
	"github.com/goliatone/go-market-auth/otp"
	"github.com/goliatone/go-market-auth/repository"
)

// Routes of the public API
const (
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
	RouteAPI     = "/api"
	RouteLogout  = "/auth/logout"
	RouteAdmin   = "/admin"
)

type Options struct {
	Logger     *slog.Logger
	Tokens     *auth.TokenService
	Bridge     *otp.Bridge
	Repository *repository.Manager
	Metrics    *metrics.Metrics
	// Activity receives login and logout events. Defaults to the logger.
	Activity   auth.ActivitySink
	OTPTimeout time.Duration
}

func (o Options) validate() error {
	missing := make([]string, 0)
	if o.Tokens == nil {
		missing = append(missing, "tokens")
	}
	if o.Bridge == nil {
		missing = append(missing, "bridge")
	}
	if o.Repository == nil {
		missing = append(missing, "repository")
	}
	if len(missing) > 0 {
		return auth.ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"component": "server",
			"missing":   missing,
		})
	}
	return nil
}

// New builds the server. Metrics and panic recovery run on the fiber app so
// unmatched routes and panics are still counted and rendered.
func New(opts Options) (router.Server[*fiber.App], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Activity == nil {
		opts.Activity = auth.NewLogActivitySink(opts.Logger)
	}

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "market-auth",
			DisableStartupMessage: true,
			ErrorHandler:          auth.FiberErrorHandler,
		})
		app.Use(opts.Metrics.Middleware())
		app.Use(recover.New())
		app.Use(trace.ExposeStatus())
		return app
	})

	r := srv.Router().WithLogger(opts.Logger)
	r.Use(trace.New(trace.Config{Logger: opts.Logger}))

	r.Get(RouteHealth, healthHandler(opts.Repository))
	r.Get(RouteMetrics, opts.Metrics.Handler())

	api := r.Group(RouteAPI)

	otp.RegisterRoutes(api, otp.NewController(opts.Bridge, opts.Repository.Users(), opts.OTPTimeout).
		WithSessions(NewSessions(opts.Repository.Users(), opts.Tokens, opts.Activity)))

	api.Post(RouteLogout, logoutHandler(opts.Tokens, opts.Activity))

	admin := api.Group(RouteAdmin)
	admin.Use(jwtware.AdminOnly(opts.Tokens, jwtware.Config{
		OnDecision: opts.Metrics.ObserveGate,
	}))
	admin.Get("/me", adminMeHandler)

	return srv, nil
}

// Run serves srv on addr until ctx is done, then shuts down within grace
func Run(ctx context.Context, srv router.Server[*fiber.App], addr string, grace time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.Serve(addr)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, errors.CategoryInternal, "http server stopped")
	case <-ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "http server shutdown")
	}
	return nil
}

func healthHandler(repo *repository.Manager) router.HandlerFunc {
	return func(c router.Context) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		if err := repo.Ping(ctx); err != nil {
			trace.Logger(c.Context()).Error("health check failed", "error", err)
			return c.JSON(router.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(router.StatusOK, map[string]string{"status": "ok"})
	}
}

// logoutHandler acknowledges a sign out. Tokens are trusted until expiry,
// so there is nothing to revoke; a valid bearer is only recorded.
func logoutHandler(validator auth.TokenValidator, activity auth.ActivitySink) router.HandlerFunc {
	return func(c router.Context) error {
		raw, err := jwtware.ExtractBearer(c.Header(router.HeaderAuthorization), "Bearer")
		if err != nil {
			return c.NoContent(router.StatusNoContent)
		}

		identity, err := validator.Validate(raw)
		if err != nil {
			trace.Logger(c.Context()).Debug("logout with unusable token", "reason", err.Error())
			return c.NoContent(router.StatusNoContent)
		}

		if err := activity.Record(c.Context(), auth.ActivityEvent{
			EventType:  auth.ActivityEventLogout,
			Subject:    identity.Subject,
			Role:       identity.Role,
			OccurredAt: time.Now(),
		}); err != nil {
			trace.Logger(c.Context()).Warn("failed to record logout", "error", err)
		}
		return c.NoContent(router.StatusNoContent)
	}
}

func adminMeHandler(c router.Context) error {
	identity, ok := auth.IdentityFromRouter(c)
	if !ok {
		return auth.ErrUnauthorized
	}
	return c.JSON(router.StatusOK, identity)
}
