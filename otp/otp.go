// Package otp bridges the phone verification flow to an external provider.
// It normalizes phone numbers to E.164 and delegates challenge and check
// calls without retries or caching; no OTP codes are kept locally.
package otp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goliatone/go-errors"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/middleware/trace"
)

// Operation names reported to observers
const (
	OpStart = "start"
	OpCheck = "check"
)

// Outcomes reported to observers
const (
	OutcomeOK          = "ok"
	OutcomeUnverified  = "unverified"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
)

// Config holds the provider credentials. All of AccountSID, AuthToken and
// ServiceSID are required.
type Config struct {
	AccountSID         string
	AuthToken          string
	ServiceSID         string
	DefaultCountryCode string
	// Channel is the delivery channel, sms or call. Defaults to sms.
	Channel string
}

// Validate returns auth.ErrConfigurationMissing naming every absent credential
func (c Config) Validate() error {
	missing := make([]string, 0)
	if strings.TrimSpace(c.AccountSID) == "" {
		missing = append(missing, "account_sid")
	}
	if strings.TrimSpace(c.AuthToken) == "" {
		missing = append(missing, "auth_token")
	}
	if strings.TrimSpace(c.ServiceSID) == "" {
		missing = append(missing, "service_sid")
	}
	if len(missing) > 0 {
		return auth.ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"component": "otp",
			"missing":   missing,
		})
	}
	return nil
}

// Challenge is the provider transaction created by StartChallenge
type Challenge struct {
	Ref     string `json:"ref"`
	To      string `json:"to"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
}

// Check is the provider result of a code check
type Check struct {
	Ref      string
	Status   string
	Verified bool
}

// Provider is the external verification service
type Provider interface {
	StartVerification(ctx context.Context, to, channel string) (Challenge, error)
	CheckVerification(ctx context.Context, to, code string) (Check, error)
}

// Observer is notified after every provider call
type Observer func(op, outcome string)

// Option configures a Bridge
type Option func(*Bridge)

// WithLogger sets the bridge logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithObserver registers a call observer
func WithObserver(observer Observer) Option {
	return func(b *Bridge) {
		b.observer = observer
	}
}

// Bridge delegates OTP challenges to a Provider
type Bridge struct {
	provider Provider
	prefix   string
	channel  string
	logger   *slog.Logger
	observer Observer
}

// NewBridge validates cfg and returns a Bridge. It fails when any provider
// credential is missing so the process never runs without OTP delivery.
func NewBridge(cfg Config, provider Provider, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, auth.ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"component": "otp",
			"missing":   []string{"provider"},
		})
	}

	b := &Bridge{
		provider: provider,
		prefix:   canonicalPrefix(cfg.DefaultCountryCode),
		channel:  cfg.Channel,
		logger:   slog.Default(),
	}

	if b.channel == "" {
		b.channel = "sms"
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Normalize canonicalizes raw with the configured country code
func (b *Bridge) Normalize(raw string) string {
	return Normalize(raw, b.prefix)
}

// StartChallenge asks the provider to deliver a code to phone, which must
// already be canonical.
func (b *Bridge) StartChallenge(ctx context.Context, phone string) (Challenge, error) {
	if !IsCanonical(phone) {
		b.observe(OpStart, OutcomeMalformed)
		return Challenge{}, malformedPhone()
	}

	challenge, err := b.provider.StartVerification(ctx, phone, b.channel)
	if err != nil {
		return Challenge{}, b.providerError(ctx, OpStart, err)
	}

	b.observe(OpStart, OutcomeOK)
	b.loggerFor(ctx).Info("otp challenge started", "ref", challenge.Ref, "channel", b.channel, "status", challenge.Status)
	return challenge, nil
}

// CheckChallenge asks the provider whether code is valid for phone
func (b *Bridge) CheckChallenge(ctx context.Context, phone, code string) (bool, error) {
	if !IsCanonical(phone) {
		b.observe(OpCheck, OutcomeMalformed)
		return false, malformedPhone()
	}

	if strings.TrimSpace(code) == "" {
		b.observe(OpCheck, OutcomeMalformed)
		return false, auth.ErrMalformed.Clone().WithMetadata(map[string]any{
			"field": "code",
		})
	}

	check, err := b.provider.CheckVerification(ctx, phone, code)
	if err != nil {
		return false, b.providerError(ctx, OpCheck, err)
	}

	if !check.Verified {
		b.observe(OpCheck, OutcomeUnverified)
		b.loggerFor(ctx).Info("otp check rejected", "ref", check.Ref, "status", check.Status)
		return false, nil
	}

	b.observe(OpCheck, OutcomeOK)
	b.loggerFor(ctx).Info("otp check approved", "ref", check.Ref)
	return true, nil
}

func (b *Bridge) providerError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		b.observe(op, OutcomeTimeout)
		b.loggerFor(ctx).Warn("otp provider timed out", "op", op)
		return auth.WrapAs(err, auth.ErrProviderTimeout).WithMetadata(map[string]any{"op": op})
	}

	b.observe(op, OutcomeUnavailable)
	b.loggerFor(ctx).Error("otp provider call failed", "op", op, "error", err)
	return auth.WrapAs(err, auth.ErrProviderUnavailable).WithMetadata(map[string]any{"op": op})
}

func (b *Bridge) loggerFor(ctx context.Context) *slog.Logger {
	if tc, ok := trace.FromContext(ctx); ok && tc.Logger != nil {
		return tc.Logger
	}
	return b.logger
}

func (b *Bridge) observe(op, outcome string) {
	if b.observer != nil {
		b.observer(op, outcome)
	}
}

func malformedPhone() error {
	return auth.ErrMalformed.Clone().WithMetadata(map[string]any{
		"field":  "phone",
		"reason": "phone must be canonical E.164",
	})
}
