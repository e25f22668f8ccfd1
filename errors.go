package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthorized         = "UNAUTHORIZED"
	TextCodeForbidden            = "FORBIDDEN"
	TextCodeMalformed            = "MALFORMED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenInvalid         = "TOKEN_INVALID"
	TextCodeProviderUnavailable  = "PROVIDER_UNAVAILABLE"
	TextCodeProviderTimeout      = "PROVIDER_TIMEOUT"
	TextCodeConfigurationMissing = "CONFIGURATION_MISSING"
)

// ErrUnauthorized is the single outward signal for any credential failure
var ErrUnauthorized = errors.New("authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrForbidden is returned when the caller is authenticated but lacks the role
var ErrForbidden = errors.New("insufficient role", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrMalformed is returned for request shapes we can not parse
var ErrMalformed = errors.New("malformed request", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeMalformed)

// ErrTokenMalformed unparseable token
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenExpired token expiry elapsed
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenInvalid signature, issuer or audience mismatch
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrProviderUnavailable the verification provider call failed
var ErrProviderUnavailable = errors.New("verification provider unavailable", errors.CategoryOperation).
	WithCode(http.StatusBadGateway).
	WithTextCode(TextCodeProviderUnavailable)

// ErrProviderTimeout the verification provider did not answer in time.
// Callers may retry.
var ErrProviderTimeout = errors.New("verification provider timed out", errors.CategoryOperation).
	WithCode(http.StatusGatewayTimeout).
	WithTextCode(TextCodeProviderTimeout)

// ErrConfigurationMissing a required secret is absent at startup
var ErrConfigurationMissing = errors.New("required configuration missing", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeConfigurationMissing)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError will check for unparseable tokens
func IsMalformedError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed)
}

// IsInvalidTokenError will check for signature or claim mismatches
func IsInvalidTokenError(err error) bool {
	return HasTextCode(err, TextCodeTokenInvalid)
}

// IsTokenError reports any of the token verification failures
func IsTokenError(err error) bool {
	return IsTokenExpiredError(err) || IsMalformedError(err) || IsInvalidTokenError(err)
}

// HasTextCode reports whether err is, or wraps, a rich error with the given text code
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// StatusCode returns the HTTP status carried by a rich error, or fallback
func StatusCode(err error, fallback int) int {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code != 0 {
		return richErr.Code
	}
	return fallback
}

// WrapAs wraps err so it carries the category, code and text code of sentinel.
// Sentinels are never mutated.
func WrapAs(err error, sentinel *errors.Error) *errors.Error {
	if err == nil {
		return sentinel.Clone()
	}
	return errors.Wrap(err, sentinel.Category, sentinel.Message).
		WithCode(sentinel.Code).
		WithTextCode(sentinel.TextCode)
}
