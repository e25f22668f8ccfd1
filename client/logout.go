package client

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-errors"
)

// SignOuter ends the session server side
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Logout tears the session down from any entry point in the UI
type Logout struct {
	remote SignOuter
	store  Store
	nav    Navigator
	paths  Paths
	logger *slog.Logger
}

// NewLogout wires the orchestrator. remote may be nil.
func NewLogout(remote SignOuter, store Store, nav Navigator, paths Paths, logger *slog.Logger) *Logout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logout{
		remote: remote,
		store:  store,
		nav:    nav,
		paths:  paths,
		logger: logger,
	}
}

// Run attempts the remote sign out, then always clears the store and
// replaces the location with login. A remote failure is returned after
// teardown has completed. When both steps fail the clear failure is
// returned with the remote one in its metadata.
func (l *Logout) Run(ctx context.Context) error {
	var remoteErr *errors.Error
	if l.remote != nil {
		if err := l.remote.SignOut(ctx); err != nil {
			l.logger.WarnContext(ctx, "remote sign out failed", "error", err)
			remoteErr = errors.Wrap(err, errors.CategoryExternal, "remote sign out")
		}
	}

	var clearErr *errors.Error
	if _, err := l.store.Clear(); err != nil {
		l.logger.ErrorContext(ctx, "failed to clear session", "error", err)
		clearErr = errors.Wrap(err, errors.CategoryInternal, "clear session")
	}

	l.nav.Replace(l.paths.Login)

	switch {
	case clearErr != nil && remoteErr != nil:
		return clearErr.WithMetadata(map[string]any{
			"remote_sign_out": remoteErr.Error(),
		})
	case clearErr != nil:
		return clearErr
	case remoteErr != nil:
		return remoteErr
	}
	return nil
}
