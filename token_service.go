package auth

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is used when neither the caller nor the options set a TTL
const DefaultTokenTTL = time.Hour

// TokenServiceOptions configures a TokenService
type TokenServiceOptions struct {
	// SigningKey signs and verifies tokens. Required.
	SigningKey []byte
	// PreviousKeys are accepted for verification only, to allow secret rotation.
	PreviousKeys [][]byte
	Issuer       string
	Audience     string
	// TTL is the default lifetime of issued tokens.
	TTL    time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// TokenService issues and verifies HS256 credential tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	signingKey []byte
	verifyKeys []jwt.VerificationKey
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(opts TokenServiceOptions) (*TokenService, error) {
	if len(opts.SigningKey) == 0 {
		return nil, ErrConfigurationMissing.Clone().WithMetadata(map[string]any{
			"missing": []string{"signing_key"},
		})
	}

	ts := &TokenService{
		signingKey: append([]byte(nil), opts.SigningKey...),
		issuer:     opts.Issuer,
		audience:   opts.Audience,
		ttl:        opts.TTL,
		now:        opts.Now,
		logger:     opts.Logger,
	}

	if ts.ttl <= 0 {
		ts.ttl = DefaultTokenTTL
	}

	if ts.now == nil {
		ts.now = time.Now
	}

	if ts.logger == nil {
		ts.logger = slog.New(slog.DiscardHandler)
	}

	ts.verifyKeys = append(ts.verifyKeys, ts.signingKey)
	for _, key := range opts.PreviousKeys {
		if len(key) > 0 {
			ts.verifyKeys = append(ts.verifyKeys, append([]byte(nil), key...))
		}
	}

	return ts, nil
}

// Issue creates a signed token for subject with role. A ttl of zero or less
// uses the service default.
func (ts *TokenService) Issue(subject string, role UserRole, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(role) == "" {
		return "", ErrMalformed.Clone().WithMetadata(map[string]any{
			"reason": "subject and role are required",
		})
	}

	if ttl <= 0 {
		ttl = ts.ttl
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserRole: role,
	}

	if ts.audience != "" {
		claims.Audience = jwt.ClaimStrings{ts.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify parses and validates a token string, returning the verified identity.
// Failures are ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalid.
func (ts *TokenService) Verify(tokenString string) (Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Identity{}, ErrTokenMalformed.Clone()
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if ts.audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return jwt.VerificationKeySet{Keys: ts.verifyKeys}, nil
	}, parserOptions...)

	if err != nil {
		return Identity{}, ts.classify(err)
	}

	if !token.Valid {
		return Identity{}, ErrTokenInvalid.Clone()
	}

	if claims.Subject == "" || claims.UserRole == "" {
		return Identity{}, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"reason": "missing subject or role",
		})
	}

	return claims.Identity(), nil
}

// Validate satisfies the TokenValidator interface.
func (ts *TokenService) Validate(tokenString string) (Identity, error) {
	return ts.Verify(tokenString)
}

func (ts *TokenService) classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return WrapAs(err, ErrTokenMalformed)
	case errors.Is(err, jwt.ErrTokenExpired):
		return WrapAs(err, ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return WrapAs(err, ErrTokenInvalid)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return WrapAs(err, ErrTokenMalformed)
	default:
		ts.logger.Debug("token service unclassified verification error", "error", err)
		return WrapAs(err, ErrTokenInvalid)
	}
}
