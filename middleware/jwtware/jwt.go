package jwtware

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/middleware/trace"
)

// ErrJWTMissingOrMalformed is raised when the authorization header is absent
// or does not carry a bearer credential. It never reaches the client.
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// Gate outcomes reported to Config.OnDecision
const (
	OutcomeMissing   = "missing"
	OutcomeInvalid   = "invalid"
	OutcomeForbidden = "forbidden"
	OutcomeAllowed   = "allowed"
)

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	// ErrorHandler receives auth.ErrUnauthorized or auth.ErrForbidden.
	ErrorHandler router.ErrorHandler
	// TokenValidator is required for token validation
	TokenValidator auth.TokenValidator
	ContextKey     string
	AuthHeader     string
	AuthScheme     string
	// RequiredRole specifies an exact role that must be present
	RequiredRole string
	// OnDecision is invoked once per request with the gate outcome.
	OnDecision func(outcome string)
}

// New returns a bearer token gate. Any verification failure collapses to
// the same unauthorized response; a role mismatch is reported as forbidden.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			logger := trace.Logger(ctx.Context())

			raw, err := ExtractBearer(ctx.Header(cfg.AuthHeader), cfg.AuthScheme)
			if err != nil {
				cfg.decide(OutcomeMissing)
				logger.Debug("admin gate rejected request", "reason", err.Error())
				return cfg.ErrorHandler(ctx, auth.ErrUnauthorized)
			}

			identity, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				cfg.decide(OutcomeInvalid)
				logger.Debug("admin gate rejected token", "reason", err.Error())
				return cfg.ErrorHandler(ctx, auth.ErrUnauthorized)
			}

			if cfg.RequiredRole != "" && identity.Role != cfg.RequiredRole {
				cfg.decide(OutcomeForbidden)
				logger.Info("admin gate denied role",
					"subject", identity.Subject,
					"role", identity.Role,
					"required_role", cfg.RequiredRole,
				)
				return cfg.ErrorHandler(ctx, auth.ErrForbidden)
			}

			cfg.decide(OutcomeAllowed)
			ctx.Locals(cfg.ContextKey, identity)
			ctx.SetContext(auth.WithIdentity(ctx.Context(), identity))

			return cfg.SuccessHandler(ctx)
		}
	}
}

// AdminOnly is the admin gate: a valid token with role admin.
func AdminOnly(validator auth.TokenValidator, config ...Config) router.MiddlewareFunc {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg.TokenValidator = validator
	cfg.RequiredRole = auth.RoleAdmin
	return New(cfg)
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.DefaultContextKey
	}

	if cfg.AuthHeader == "" {
		cfg.AuthHeader = router.HeaderAuthorization
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// DefaultErrorHandler hands the rejection back up the chain as a rich error.
// Anything that is not one collapses to auth.ErrUnauthorized.
func DefaultErrorHandler(_ router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return auth.ErrUnauthorized
	}
	return richErr
}

// ExtractBearer returns the credential of an "<scheme> <token>" header value.
// The scheme comparison is case insensitive.
func ExtractBearer(header, scheme string) (string, error) {
	header = strings.TrimSpace(header)
	scheme = strings.TrimSpace(scheme)
	l := len(scheme)
	if l == 0 || len(header) <= l+1 {
		return "", ErrJWTMissingOrMalformed
	}
	if !strings.EqualFold(header[:l], scheme) || header[l] != ' ' {
		return "", ErrJWTMissingOrMalformed
	}
	token := strings.TrimSpace(header[l+1:])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrJWTMissingOrMalformed
	}
	return token, nil
}

func (cfg Config) decide(outcome string) {
	if cfg.OnDecision != nil {
		cfg.OnDecision(outcome)
	}
}
