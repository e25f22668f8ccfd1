package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/config"
)

func validEnvironment() map[string]string {
	return map[string]string{
		"JWT_SECRET":                "jwt-secret",
		"TWILIO_ACCOUNT_SID":        "AC123",
		"TWILIO_AUTH_TOKEN":         "twilio-token",
		"TWILIO_VERIFY_SERVICE_SID": "VA123",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.WithEnvironment(validEnvironment()))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "market-auth", cfg.JWTIssuer)
	assert.Equal(t, "market-api", cfg.JWTAudience)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, "+91", cfg.OTPDefaultCountryCode)
	assert.Equal(t, "sms", cfg.OTPChannel)
	assert.Equal(t, 10*time.Second, cfg.OTPTimeout)
	assert.Empty(t, cfg.PreviousKeys())
}

func TestLoadMissingSecrets(t *testing.T) {
	environment := validEnvironment()
	delete(environment, "JWT_SECRET")
	delete(environment, "TWILIO_AUTH_TOKEN")

	cfg, err := config.Load(config.WithEnvironment(environment))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeConfigurationMissing))

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, []string{"JWT_SECRET", "TWILIO_AUTH_TOKEN"}, richErr.Metadata["missing"])
}

func TestLoadFileAndEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "JWT_SECRET=from-file\nJWT_TTL=15m\nOTP_CHANNEL=call\nTWILIO_ACCOUNT_SID=AC-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	environment := validEnvironment()
	delete(environment, "JWT_SECRET")
	environment["OTP_CHANNEL"] = "sms"
	environment["JWT_PREVIOUS_SECRETS"] = "old-1, old-2"

	cfg, err := config.Load(config.WithFile(path), config.WithEnvironment(environment))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "sms", cfg.OTPChannel, "environment wins over the file")
	assert.Equal(t, "AC123", cfg.TwilioAccountSID)
	assert.Equal(t, [][]byte{[]byte("old-1"), []byte("old-2")}, cfg.PreviousKeys())
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	cfg, err := config.Load(
		config.WithFile(filepath.Join(t.TempDir(), "absent.env")),
		config.WithEnvironment(validEnvironment()),
	)
	require.NoError(t, err)
	assert.Equal(t, "jwt-secret", cfg.JWTSecret)
}

func TestRedacted(t *testing.T) {
	cfg, err := config.Load(config.WithEnvironment(validEnvironment()))
	require.NoError(t, err)

	redacted := cfg.Redacted()
	assert.Equal(t, "[REDACTED]", redacted["jwt_secret"])
	assert.Equal(t, "[REDACTED]", redacted["twilio_auth_token"])
	assert.Equal(t, ":8080", redacted["http_addr"])

	for _, value := range redacted {
		assert.NotEqual(t, "jwt-secret", value)
		assert.NotEqual(t, "twilio-token", value)
	}
}

func TestLoadRejectsUnparsableValues(t *testing.T) {
	environment := validEnvironment()
	environment["JWT_TTL"] = "forever"

	_, err := config.Load(config.WithEnvironment(environment))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	assert.Contains(t, richErr.Message, "config: parse env")
}
