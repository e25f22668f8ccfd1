// Package config loads and validates service configuration from the
// environment and an optional dotenv file. Validation runs once at startup;
// a missing secret is fatal.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/spf13/viper"

	auth "github.com/goliatone/go-market-auth"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	Env      string `env:"APP_ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// JWTSecret signs admin tokens. Required.
	JWTSecret string `env:"JWT_SECRET"`
	// JWTPreviousSecrets are still accepted for verification during rotation.
	JWTPreviousSecrets []string      `env:"JWT_PREVIOUS_SECRETS" envSeparator:","`
	JWTIssuer          string        `env:"JWT_ISSUER" envDefault:"market-auth"`
	JWTAudience        string        `env:"JWT_AUDIENCE" envDefault:"market-api"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"1h"`

	// Twilio Verify credentials. All three are required.
	TwilioAccountSID       string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `env:"TWILIO_AUTH_TOKEN"`
	TwilioVerifyServiceSID string `env:"TWILIO_VERIFY_SERVICE_SID"`

	// OTPDefaultCountryCode is prepended to phone numbers without a leading +.
	OTPDefaultCountryCode string        `env:"OTP_DEFAULT_COUNTRY_CODE" envDefault:"+91"`
	OTPChannel            string        `env:"OTP_CHANNEL" envDefault:"sms"`
	OTPTimeout            time.Duration `env:"OTP_TIMEOUT" envDefault:"10s"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
}

type loadOptions struct {
	file        string
	environment map[string]string
}

// Option configures Load
type Option func(*loadOptions)

// WithFile reads a dotenv file before the environment. A missing file is ignored.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithEnvironment replaces the process environment, mostly for tests.
func WithEnvironment(environment map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = environment
	}
}

// Load reads the optional dotenv file, overlays the environment, binds the
// result into Config and validates it.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	environment, err := mergeEnvironment(o)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "config: parse env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing required key in a single
// auth.ErrConfigurationMissing.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"JWT_SECRET", c.JWTSecret},
		{"TWILIO_ACCOUNT_SID", c.TwilioAccountSID},
		{"TWILIO_AUTH_TOKEN", c.TwilioAuthToken},
		{"TWILIO_VERIFY_SERVICE_SID", c.TwilioVerifyServiceSID},
	}

	missing := make([]string, 0)
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}

	if len(missing) > 0 {
		return auth.ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"missing": missing,
		})
	}

	if c.HTTPAddr == "" {
		return auth.ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"missing": []string{"HTTP_ADDR"},
		})
	}

	if c.JWTTTL <= 0 {
		c.JWTTTL = auth.DefaultTokenTTL
	}

	if c.OTPTimeout <= 0 {
		c.OTPTimeout = 10 * time.Second
	}

	return nil
}

// PreviousKeys returns the rotation secrets as byte slices
func (c *Config) PreviousKeys() [][]byte {
	keys := make([][]byte, 0, len(c.JWTPreviousSecrets))
	for _, s := range c.JWTPreviousSecrets {
		if s = strings.TrimSpace(s); s != "" {
			keys = append(keys, []byte(s))
		}
	}
	return keys
}

// Redacted returns a printable view of the configuration without secrets
func (c *Config) Redacted() map[string]any {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "[REDACTED]"
	}
	return map[string]any{
		"http_addr":                 c.HTTPAddr,
		"app_env":                   c.Env,
		"log_level":                 c.LogLevel,
		"log_format":                c.LogFormat,
		"jwt_secret":                mask(c.JWTSecret),
		"jwt_previous_secrets":      len(c.JWTPreviousSecrets),
		"jwt_issuer":                c.JWTIssuer,
		"jwt_audience":              c.JWTAudience,
		"jwt_ttl":                   c.JWTTTL.String(),
		"twilio_account_sid":        mask(c.TwilioAccountSID),
		"twilio_auth_token":         mask(c.TwilioAuthToken),
		"twilio_verify_service_sid": mask(c.TwilioVerifyServiceSID),
		"otp_default_country_code":  c.OTPDefaultCountryCode,
		"otp_channel":               c.OTPChannel,
		"otp_timeout":               c.OTPTimeout.String(),
		"database_dsn":              c.DatabaseDSN,
	}
}

func mergeEnvironment(o *loadOptions) (map[string]string, error) {
	merged := map[string]string{}

	if o.file != "" {
		if _, err := os.Stat(o.file); err == nil {
			v := viper.New()
			v.SetConfigFile(o.file)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, errors.CategoryInternal, "config: read file").WithMetadata(map[string]any{
					"file": o.file,
				})
			}
			for key, value := range v.AllSettings() {
				merged[strings.ToUpper(key)] = fmt.Sprint(value)
			}
		}
	}

	environment := o.environment
	if environment == nil {
		environment = env.ToMap(os.Environ())
	}
	for key, value := range environment {
		merged[key] = value
	}

	return merged, nil
}
